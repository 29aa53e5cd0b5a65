package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imobflow/leadrotor/pkg/db/models"
)

// Repository exposes persistence helpers for per-agent checkpoint state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByAgent(ctx context.Context, agentID uuid.UUID) (*models.CheckpointSettings, error)
	MapByAgent(ctx context.Context) (map[uuid.UUID]models.CheckpointSettings, error)
	ListDue(ctx context.Context, now time.Time) ([]models.CheckpointSettings, error)
	Upsert(ctx context.Context, settings *models.CheckpointSettings) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a checkpoint repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByAgent(ctx context.Context, agentID uuid.UUID) (*models.CheckpointSettings, error) {
	var settings models.CheckpointSettings
	err := r.db.WithContext(ctx).First(&settings, "agent_id = ?", agentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// MapByAgent loads all checkpoint rows keyed by agent for the scheduler's
// eligibility pass.
func (r *repositoryImpl) MapByAgent(ctx context.Context) (map[uuid.UUID]models.CheckpointSettings, error) {
	var rows []models.CheckpointSettings
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.CheckpointSettings, len(rows))
	for _, row := range rows {
		out[row.AgentID] = row
	}
	return out, nil
}

// ListDue returns checkpoints whose scheduled recompute time has elapsed.
func (r *repositoryImpl) ListDue(ctx context.Context, now time.Time) ([]models.CheckpointSettings, error) {
	var rows []models.CheckpointSettings
	err := r.db.WithContext(ctx).
		Where("next_checkpoint_at IS NOT NULL AND next_checkpoint_at <= ?", now).
		Order("next_checkpoint_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes the per-agent checkpoint row, creating it on first snapshot.
func (r *repositoryImpl) Upsert(ctx context.Context, settings *models.CheckpointSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "agent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"next_checkpoint_at",
				"suspend_leads_until",
				"suspend_roletao_until",
				"reason",
				"updated_at",
			}),
		}).
		Create(settings).Error
}
