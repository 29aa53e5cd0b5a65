package enforcement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
)

// Repository persists the per-agent, per-toggle enforcement records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, agentID uuid.UUID, toggle enums.EnforcementToggle) (*models.EnforcementRecord, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]models.EnforcementRecord, error)
	Upsert(ctx context.Context, record *models.EnforcementRecord) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an enforcement record repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Find(ctx context.Context, agentID uuid.UUID, toggle enums.EnforcementToggle) (*models.EnforcementRecord, error) {
	var record models.EnforcementRecord
	err := r.db.WithContext(ctx).
		First(&record, "agent_id = ? AND toggle = ?", agentID, toggle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]models.EnforcementRecord, error) {
	var records []models.EnforcementRecord
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("toggle ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert writes the record for its (agent, toggle) pair.
func (r *repositoryImpl) Upsert(ctx context.Context, record *models.EnforcementRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agent_id"}, {Name: "toggle"}},
			DoUpdates: clause.AssignmentColumns([]string{"enforced", "target_value", "reasons", "updated_at"}),
		}).
		Create(record).Error
}
