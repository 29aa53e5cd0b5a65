package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/internal/repo"
	"github.com/imobflow/leadrotor/pkg/db/models"
)

// Repository exposes persistence helpers for the agent queue ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.Agent, error)
	Find(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	FindLocked(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	Update(ctx context.Context, agentID uuid.UUID, updates map[string]any) error
	TouchLastOffer(ctx context.Context, agentID uuid.UUID, now time.Time) error
	Deactivate(ctx context.Context, agentID uuid.UUID) error
}

type repositoryImpl struct {
	base repo.Base
}

// NewRepository returns a queue ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{base: repo.NewBase(tx)}
}

// ListActive returns active agents ordered by waiting time: oldest offer
// first, agents never offered ahead of everyone, UUID as the deterministic
// tie-break.
func (r *repositoryImpl) ListActive(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.base.DB(ctx).
		Where("is_active = ?", true).
		Order("last_offer_update ASC NULLS FIRST, id ASC").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repositoryImpl) Find(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := r.base.DB(ctx).First(&agent, "id = ?", agentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

// FindLocked loads the agent row under FOR UPDATE. Callers must already be
// inside a transaction.
func (r *repositoryImpl) FindLocked(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := r.base.Locked(ctx).First(&agent, "id = ?", agentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

func (r *repositoryImpl) Update(ctx context.Context, agentID uuid.UUID, updates map[string]any) error {
	return r.base.DB(ctx).
		Model(&models.Agent{}).
		Where("id = ?", agentID).
		Updates(updates).Error
}

func (r *repositoryImpl) TouchLastOffer(ctx context.Context, agentID uuid.UUID, now time.Time) error {
	return r.Update(ctx, agentID, map[string]any{"last_offer_update": now})
}

// Deactivate removes the agent from rotation without deleting the row.
func (r *repositoryImpl) Deactivate(ctx context.Context, agentID uuid.UUID) error {
	return r.Update(ctx, agentID, map[string]any{"is_active": false})
}
