package redistribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams configure the redistribution submission service.
type ServiceParams struct {
	Logger *logger.Logger
	DB     txRunner
	Jobs   Repository
	Queues QueueRepository
	Now    func() time.Time
}

// Service accepts and manages redistribution batches. Processing happens in
// the worker; the service only owns the pending part of the lifecycle.
type Service struct {
	logg   *logger.Logger
	db     txRunner
	jobs   Repository
	queues QueueRepository
	now    func() time.Time
}

// NewService wires the redistribution service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Queues == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:   params.Logger,
		db:     params.DB,
		jobs:   params.Jobs,
		queues: params.Queues,
		now:    now,
	}, nil
}

// SubmitParams carry one redistribution request. A nil TargetQueueID sends
// the batch back through rotation; a set one moves leads straight into that
// queue.
type SubmitParams struct {
	FileName      string      `json:"fileName"`
	LeadIDs       []uuid.UUID `json:"leadUuids" validate:"required,min=1,dive,required"`
	TargetQueueID *uuid.UUID  `json:"queueUuid"`
}

// Submit validates and enqueues a batch. The job starts pending; a worker
// picks it up asynchronously.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*models.RedistributionJob, error) {
	if len(params.LeadIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "leadUuids must not be empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(params.LeadIDs))
	for _, leadID := range params.LeadIDs {
		if leadID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "leadUuids must not contain the zero uuid")
		}
		if _, dup := seen[leadID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate lead %s in batch", leadID))
		}
		seen[leadID] = struct{}{}
	}
	if params.TargetQueueID != nil {
		target, err := s.queues.Find(ctx, *params.TargetQueueID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target queue")
		}
		if target == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target queue not found")
		}
	}

	job := &models.RedistributionJob{
		FileName:      params.FileName,
		Status:        enums.JobStatusPending,
		TargetQueueID: params.TargetQueueID,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.jobs.WithTx(tx).Create(ctx, job, params.LeadIDs)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create redistribution job")
	}
	s.logg.Info(s.logg.WithJobID(ctx, job.ID.String()), "redistribution job submitted")
	return job, nil
}

// Get returns a job with its per-lead batch results.
func (s *Service) Get(ctx context.Context, jobID uuid.UUID) (*models.RedistributionJob, []models.RedistributionLead, error) {
	if jobID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	job, err := s.jobs.Find(ctx, jobID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if job == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	batch, err := s.jobs.BatchLeads(ctx, jobID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	return job, batch, nil
}

// List returns recent jobs, optionally filtered by status.
func (s *Service) List(ctx context.Context, statuses []enums.JobStatus, limit int) ([]models.RedistributionJob, error) {
	for _, status := range statuses {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown job status %q", status))
		}
	}
	jobs, err := s.jobs.List(ctx, statuses, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list jobs")
	}
	return jobs, nil
}

// Cancel withdraws a job that no worker has started. Anything past pending
// is already running or done and cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, jobID uuid.UUID) error {
	if jobID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		jobs := s.jobs.WithTx(tx)
		job, err := jobs.FindLocked(ctx, jobID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
		}
		if job == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		if job.Status != enums.JobStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("job is %s, only pending jobs can be cancelled", job.Status))
		}
		if err := jobs.DeleteBatch(ctx, jobID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete batch")
		}
		if err := jobs.Delete(ctx, jobID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete job")
		}
		return nil
	})
}
