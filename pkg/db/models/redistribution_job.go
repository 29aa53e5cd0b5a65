package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/enums"
)

// RedistributionJob tracks a batch reassignment of leads. The job status
// answers "did the batch run to completion"; per-lead results live on
// RedistributionLead rows. Terminal jobs are immutable.
type RedistributionJob struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FileName string          `gorm:"column:file_name;type:text;not null;default:''"`
	Status   enums.JobStatus `gorm:"type:text;not null;default:'pending';index"`

	// TargetQueueID set means leads go straight to that queue, bypassing
	// rotation. Null means leads return to the unassigned pool.
	TargetQueueID *uuid.UUID `gorm:"column:target_queue_id;type:uuid"`

	LeadCount    int     `gorm:"column:lead_count;not null;default:0"`
	ErrorMessage *string `gorm:"column:error_message;type:text"`

	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	StartedAt  *time.Time `gorm:"column:started_at;type:timestamptz"`
	FinishedAt *time.Time `gorm:"column:finished_at;type:timestamptz"`
}

// Mode describes which distribution path the job takes in caller-facing
// summaries: the queue escape hatch must be visibly distinguished.
func (j RedistributionJob) Mode() string {
	if j.TargetQueueID != nil {
		return "queue"
	}
	return "rotation"
}

// RedistributionLead is one lead inside a job's batch, with its outcome.
type RedistributionLead struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	JobID  uuid.UUID `gorm:"column:job_id;type:uuid;not null;index"`
	LeadID uuid.UUID `gorm:"column:lead_id;type:uuid;not null"`

	Outcome *enums.LeadOutcomeStatus `gorm:"type:text"`
	Detail  *string                  `gorm:"type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
