package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imobflow/leadrotor/api/responses"
	"github.com/imobflow/leadrotor/api/validators"
	"github.com/imobflow/leadrotor/internal/checkpoint"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

// CheckpointGet returns the checkpoint panel for one agent. Agents without a
// stored row get an empty panel rather than a 404.
func CheckpointGet(svc *checkpoint.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkpoint service unavailable"))
			return
		}

		agentID, err := validators.ParseUUID("agentId", chi.URLParam(r, "agentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		panel, err := svc.Get(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkpoint.PanelFromModel(panel))
	}
}

// CheckpointEdit replaces the panel state from a manual submission.
func CheckpointEdit(svc *checkpoint.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkpoint service unavailable"))
			return
		}

		agentID, err := validators.ParseUUID("agentId", chi.URLParam(r, "agentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkpoint.EditParams
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.Reason = validators.SanitizeString(req.Reason, 255)

		panel, err := svc.Edit(r.Context(), agentID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkpoint.PanelFromModel(panel))
	}
}

// CheckpointRunNow recomputes the agent's snapshot on demand instead of
// waiting for the scheduled sweep.
func CheckpointRunNow(svc *checkpoint.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkpoint service unavailable"))
			return
		}

		agentID, err := validators.ParseUUID("agentId", chi.URLParam(r, "agentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		panel, err := svc.RunNow(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkpoint.PanelFromModel(panel))
	}
}
