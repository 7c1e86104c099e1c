package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provenly/backend/api/responses"
	"github.com/provenly/backend/api/validators"
	"github.com/provenly/backend/internal/holdings"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/logger"
)

// ActorItems lists every item the actor has ever held, in acquisition order.
func ActorItems(svc holdings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "holdings service unavailable"))
			return
		}

		actorID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ItemsOf(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
