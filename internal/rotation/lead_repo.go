package rotation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imobflow/leadrotor/pkg/db/models"
)

// LeadRepository exposes the lead pool operations the scheduler needs.
type LeadRepository interface {
	WithTx(tx *gorm.DB) LeadRepository
	Find(ctx context.Context, leadID uuid.UUID) (*models.Lead, error)
	FindLocked(ctx context.Context, leadID uuid.UUID) (*models.Lead, error)
	FindOverdueAssigned(ctx context.Context, cutoff time.Time) ([]models.Lead, error)
	CountUnassigned(ctx context.Context) (int64, error)
	Assign(ctx context.Context, leadID, agentID uuid.UUID, now time.Time) error
	ReturnToPool(ctx context.Context, leadID uuid.UUID) error
	MoveToQueue(ctx context.Context, leadID, queueID uuid.UUID) error
}

type leadRepositoryImpl struct {
	db *gorm.DB
}

// NewLeadRepository returns a lead repository bound to the provided database.
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepositoryImpl{db: db}
}

func (r *leadRepositoryImpl) WithTx(tx *gorm.DB) LeadRepository {
	if tx == nil {
		return r
	}
	return &leadRepositoryImpl{db: tx}
}

func (r *leadRepositoryImpl) Find(ctx context.Context, leadID uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", leadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepositoryImpl) FindLocked(ctx context.Context, leadID uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lead, "id = ?", leadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

// FindOverdueAssigned returns leads still held by an agent whose holding
// window started strictly before the cutoff. A hold of exactly the attendance
// window has not exceeded it yet.
func (r *leadRepositoryImpl) FindOverdueAssigned(ctx context.Context, cutoff time.Time) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.db.WithContext(ctx).
		Where("assigned_agent_id IS NOT NULL AND offered_at IS NOT NULL AND offered_at < ?", cutoff).
		Order("offered_at ASC").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *leadRepositoryImpl) CountUnassigned(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("assigned_agent_id IS NULL AND queue_id IS NULL AND archived = ?", false).
		Count(&count).Error
	return count, err
}

func (r *leadRepositoryImpl) Assign(ctx context.Context, leadID, agentID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", leadID).
		Updates(map[string]any{
			"assigned_agent_id": agentID,
			"offered_at":        now,
			"queue_id":          nil,
			"archived":          false,
		}).Error
}

func (r *leadRepositoryImpl) ReturnToPool(ctx context.Context, leadID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", leadID).
		Updates(map[string]any{
			"assigned_agent_id": nil,
			"offered_at":        nil,
			"queue_id":          nil,
			"archived":          false,
		}).Error
}

func (r *leadRepositoryImpl) MoveToQueue(ctx context.Context, leadID, queueID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", leadID).
		Updates(map[string]any{
			"assigned_agent_id": nil,
			"offered_at":        nil,
			"queue_id":          queueID,
			"archived":          false,
		}).Error
}
