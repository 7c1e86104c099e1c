package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/provenly/backend/api/responses"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/logger"
)

// AdminChecker answers whether an actor currently holds the administrator
// role. The access service implements it against the participant table.
type AdminChecker interface {
	IsAdministrator(ctx context.Context, actorID uuid.UUID) (bool, error)
}

// RequireAdministrator gates a route on the administrator role. The token
// claim is checked first; a token minted before an administration transfer
// still carries the old role, so the participant table has the final word and
// the incoming administrator is admitted without re-authenticating.
func RequireAdministrator(checker AdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if RoleFromContext(ctx) == string(enums.ParticipantRoleAdmin) {
				next.ServeHTTP(w, r)
				return
			}
			if checker != nil {
				isAdmin, err := checker.IsAdministrator(ctx, ActorIDFromContext(ctx))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check administrator"))
					return
				}
				if isAdmin {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "administrator role required"))
		})
	}
}
