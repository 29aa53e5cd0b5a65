package redistribution

import (
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
)

// JobSummary is the caller-facing shape of a batch job. Mode states which
// distribution path applies, so the queue escape hatch stays visible.
type JobSummary struct {
	ID            uuid.UUID       `json:"id"`
	FileName      string          `json:"fileName"`
	Status        enums.JobStatus `json:"status"`
	Mode          string          `json:"mode"`
	TargetQueueID *uuid.UUID      `json:"targetQueueId,omitempty"`
	LeadCount     int             `json:"leadCount"`
	ErrorMessage  *string         `json:"errorMessage,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	FinishedAt    *time.Time      `json:"finishedAt,omitempty"`
}

// JobSummaryFromModel maps a stored job to its external shape.
func JobSummaryFromModel(m *models.RedistributionJob) JobSummary {
	return JobSummary{
		ID:            m.ID,
		FileName:      m.FileName,
		Status:        m.Status,
		Mode:          m.Mode(),
		TargetQueueID: m.TargetQueueID,
		LeadCount:     m.LeadCount,
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
	}
}

// JobSummariesFromModels maps a job list for the caller.
func JobSummariesFromModels(rows []models.RedistributionJob) []JobSummary {
	jobs := make([]JobSummary, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, JobSummaryFromModel(&rows[i]))
	}
	return jobs
}

// LeadResult is one lead's outcome inside a job detail.
type LeadResult struct {
	LeadID  uuid.UUID                `json:"leadId"`
	Outcome *enums.LeadOutcomeStatus `json:"outcome"`
	Detail  *string                  `json:"detail,omitempty"`
}

// LeadResultsFromModels maps batch rows to their external shape.
func LeadResultsFromModels(rows []models.RedistributionLead) []LeadResult {
	results := make([]LeadResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, LeadResult{
			LeadID:  row.LeadID,
			Outcome: row.Outcome,
			Detail:  row.Detail,
		})
	}
	return results
}
