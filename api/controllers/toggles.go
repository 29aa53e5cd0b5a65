package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imobflow/leadrotor/api/responses"
	"github.com/imobflow/leadrotor/api/validators"
	"github.com/imobflow/leadrotor/internal/enforcement"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

// ToggleStatus returns the live capability flags for an agent merged with
// what automation currently wants them to be.
func ToggleStatus(svc *enforcement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enforcement service unavailable"))
			return
		}

		agentID, err := validators.ParseUUID("agentId", chi.URLParam(r, "agentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statuses, err := svc.StatusFor(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"toggles": statuses})
	}
}

type toggleSetRequest struct {
	Toggle string `json:"toggle" validate:"required"`
	Value  bool   `json:"value"`
	Reason string `json:"reason"`
}

// ToggleSet writes one capability flag on behalf of an operator. The write
// is marked manual; automation may override it on the next recompute.
func ToggleSet(svc *enforcement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enforcement service unavailable"))
			return
		}

		agentID, err := validators.ParseUUID("agentId", chi.URLParam(r, "agentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req toggleSetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		toggle, err := enums.ParseEnforcementToggle(req.Toggle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid toggle"))
			return
		}
		req.Reason = validators.SanitizeString(req.Reason, 255)

		err = svc.SetManual(r.Context(), enforcement.SetManualParams{
			AgentID: agentID,
			Toggle:  toggle,
			Value:   req.Value,
			Reason:  req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
