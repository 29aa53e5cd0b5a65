package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/api/responses"
	"github.com/imobflow/leadrotor/api/validators"
	"github.com/imobflow/leadrotor/internal/rotation"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

// RotationQueue returns the live queue with the next-in-line marker set.
func RotationQueue(svc *rotation.Scheduler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rotation service unavailable"))
			return
		}

		entries, err := svc.QueueState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"queue": entries})
	}
}

type claimRequest struct {
	AgentID uuid.UUID `json:"agentUuid" validate:"required"`
	LeadID  uuid.UUID `json:"leadUuid" validate:"required"`
}

// RotationClaim hands one unassigned lead to an agent and stamps the
// ownership window.
func RotationClaim(svc *rotation.Scheduler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rotation service unavailable"))
			return
		}

		var req claimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.AgentID == uuid.Nil || req.LeadID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "agentUuid and leadUuid are required"))
			return
		}

		if err := svc.Claim(r.Context(), req.AgentID, req.LeadID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "claimed"})
	}
}

// RotationSettingsGet returns the current scheduling knobs.
func RotationSettingsGet(svc *rotation.SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rotation.SettingsViewFromModel(settings))
	}
}

// RotationSettingsReload drops the cached settings and rereads storage.
// Useful after out-of-band edits to the settings row.
func RotationSettingsReload(svc *rotation.SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		settings, err := svc.Reload(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rotation.SettingsViewFromModel(settings))
	}
}

// RotationSettingsUpdate replaces the scheduling knobs and refreshes the
// cache every tick reads from.
func RotationSettingsUpdate(svc *rotation.SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var req rotation.UpdateSettingsParams
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Update(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rotation.SettingsViewFromModel(settings))
	}
}
