package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provenly/backend/api/responses"
	"github.com/provenly/backend/api/validators"
	"github.com/provenly/backend/internal/history"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/pagination"
)

type appendCheckpointBody struct {
	Status   string `json:"status" validate:"required"`
	Location string `json:"location" validate:"max=256"`
	Note     string `json:"note" validate:"max=1024"`
}

// CheckpointAppend records a status transition on an item's history.
func CheckpointAppend(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}

		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body appendCheckpointBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkpoint, err := svc.AppendCheckpoint(r.Context(), history.AppendCheckpointInput{
			Tag:      chi.URLParam(r, "tag"),
			Status:   enums.ItemStatus(body.Status),
			Location: body.Location,
			Note:     body.Note,
			ActorID:  actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkpoint)
	}
}

// CheckpointHistory returns an item's checkpoints in sequence order. The
// after_seq parameter is an exclusive cursor.
func CheckpointHistory(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		afterSeq, err := validators.ParseQueryInt(r, "after_seq", 0, 0, int(^uint(0)>>1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkpoints, err := svc.GetHistory(r.Context(), chi.URLParam(r, "tag"), afterSeq, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkpoints)
	}
}
