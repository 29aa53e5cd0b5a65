package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/imobflow/leadrotor/api/responses"
	"github.com/imobflow/leadrotor/api/validators"
	"github.com/imobflow/leadrotor/internal/redistribution"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

const maxJobListLimit = 100

// RedistributionSubmit enqueues a batch move. The job comes back pending;
// a worker drains it asynchronously.
func RedistributionSubmit(svc *redistribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redistribution service unavailable"))
			return
		}

		var req redistribution.SubmitParams
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.FileName = validators.SanitizeString(req.FileName, 255)

		job, err := svc.Submit(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, redistribution.JobSummaryFromModel(job))
	}
}

// RedistributionList returns recent jobs, optionally filtered by status.
func RedistributionList(svc *redistribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redistribution service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, maxJobListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var statuses []enums.JobStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, piece := range strings.Split(raw, ",") {
				status, err := enums.ParseJobStatus(strings.TrimSpace(piece))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
		}

		jobs, err := svc.List(r.Context(), statuses, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"jobs": redistribution.JobSummariesFromModels(jobs)})
	}
}

type jobDetailResponse struct {
	Job   redistribution.JobSummary   `json:"job"`
	Leads []redistribution.LeadResult `json:"leads"`
}

// RedistributionGet returns one job with its per-lead outcomes.
func RedistributionGet(svc *redistribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redistribution service unavailable"))
			return
		}

		jobID, err := validators.ParseUUID("jobId", chi.URLParam(r, "jobId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, leads, err := svc.Get(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobDetailResponse{
			Job:   redistribution.JobSummaryFromModel(job),
			Leads: redistribution.LeadResultsFromModels(leads),
		})
	}
}

// RedistributionCancel withdraws a job that no worker has picked up yet.
func RedistributionCancel(svc *redistribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redistribution service unavailable"))
			return
		}

		jobID, err := validators.ParseUUID("jobId", chi.URLParam(r, "jobId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), jobID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
