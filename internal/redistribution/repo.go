package redistribution

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
)

// Repository persists redistribution jobs and their per-lead batch rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *models.RedistributionJob, leadIDs []uuid.UUID) error
	Find(ctx context.Context, jobID uuid.UUID) (*models.RedistributionJob, error)
	FindLocked(ctx context.Context, jobID uuid.UUID) (*models.RedistributionJob, error)
	List(ctx context.Context, statuses []enums.JobStatus, limit int) ([]models.RedistributionJob, error)
	ClaimNextPending(ctx context.Context, now time.Time) (*models.RedistributionJob, error)
	Finish(ctx context.Context, jobID uuid.UUID, status enums.JobStatus, errorMessage *string, now time.Time) error
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status enums.JobStatus) error
	BatchLeads(ctx context.Context, jobID uuid.UUID) ([]models.RedistributionLead, error)
	SetOutcome(ctx context.Context, batchLeadID uuid.UUID, outcome enums.LeadOutcomeStatus, detail *string) error
	DeleteBatch(ctx context.Context, jobID uuid.UUID) error
	Delete(ctx context.Context, jobID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a redistribution repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Create writes the job and its batch rows together.
func (r *repositoryImpl) Create(ctx context.Context, job *models.RedistributionJob, leadIDs []uuid.UUID) error {
	job.LeadCount = len(leadIDs)
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return err
	}
	batch := make([]models.RedistributionLead, 0, len(leadIDs))
	for _, leadID := range leadIDs {
		batch = append(batch, models.RedistributionLead{JobID: job.ID, LeadID: leadID})
	}
	return r.db.WithContext(ctx).Create(&batch).Error
}

func (r *repositoryImpl) Find(ctx context.Context, jobID uuid.UUID) (*models.RedistributionJob, error) {
	var job models.RedistributionJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) FindLocked(ctx context.Context, jobID uuid.UUID) (*models.RedistributionJob, error) {
	var job models.RedistributionJob
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&job, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) List(ctx context.Context, statuses []enums.JobStatus, limit int) ([]models.RedistributionJob, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var jobs []models.RedistributionJob
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimNextPending atomically moves the oldest pending job to processing and
// returns it. SKIP LOCKED lets concurrent workers claim distinct jobs.
func (r *repositoryImpl) ClaimNextPending(ctx context.Context, now time.Time) (*models.RedistributionJob, error) {
	var job models.RedistributionJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", enums.JobStatusPending).
			Order("created_at ASC, id ASC").
			First(&job).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.RedistributionJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":     enums.JobStatusProcessing,
				"started_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	job.Status = enums.JobStatusProcessing
	started := now
	job.StartedAt = &started
	return &job, nil
}

// Finish moves a processing job to its terminal status.
func (r *repositoryImpl) Finish(ctx context.Context, jobID uuid.UUID, status enums.JobStatus, errorMessage *string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.RedistributionJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":        status,
			"error_message": errorMessage,
			"finished_at":   now,
		}).Error
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, jobID uuid.UUID, status enums.JobStatus) error {
	return r.db.WithContext(ctx).Model(&models.RedistributionJob{}).
		Where("id = ?", jobID).
		Update("status", status).Error
}

func (r *repositoryImpl) BatchLeads(ctx context.Context, jobID uuid.UUID) ([]models.RedistributionLead, error) {
	var batch []models.RedistributionLead
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, id ASC").
		Find(&batch).Error
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *repositoryImpl) SetOutcome(ctx context.Context, batchLeadID uuid.UUID, outcome enums.LeadOutcomeStatus, detail *string) error {
	return r.db.WithContext(ctx).Model(&models.RedistributionLead{}).
		Where("id = ?", batchLeadID).
		Updates(map[string]any{
			"outcome": outcome,
			"detail":  detail,
		}).Error
}

func (r *repositoryImpl) DeleteBatch(ctx context.Context, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Delete(&models.RedistributionLead{}).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", jobID).
		Delete(&models.RedistributionJob{}).Error
}

// QueueRepository resolves redistribution target queues.
type QueueRepository interface {
	Find(ctx context.Context, queueID uuid.UUID) (*models.Queue, error)
}

type queueRepositoryImpl struct {
	db *gorm.DB
}

// NewQueueRepository returns a queue lookup bound to the provided database.
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepositoryImpl{db: db}
}

func (r *queueRepositoryImpl) Find(ctx context.Context, queueID uuid.UUID) (*models.Queue, error) {
	var q models.Queue
	err := r.db.WithContext(ctx).First(&q, "id = ?", queueID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}
