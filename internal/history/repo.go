package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
	"github.com/imobflow/leadrotor/pkg/pagination"
)

// Repository persists and queries the append-only audit ledger. Entries are
// appended inside the same transaction as the mutation they record, so the
// ledger order matches commit order per entity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.HistoryEntry) error
	List(ctx context.Context, params ListQuery) ([]models.HistoryEntry, *pagination.Cursor, error)
}

// ListQuery carries the ledger filters.
type ListQuery struct {
	Start   *time.Time
	End     *time.Time
	AgentID *uuid.UUID
	QueueID *uuid.UUID
	Action  *enums.HistoryAction
	Limit   int
	Cursor  *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Append(ctx context.Context, entry *models.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) List(ctx context.Context, params ListQuery) ([]models.HistoryEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.HistoryEntry{})
	if params.Start != nil {
		query = query.Where("created_at >= ?", *params.Start)
	}
	if params.End != nil {
		query = query.Where("created_at <= ?", *params.End)
	}
	if params.AgentID != nil {
		query = query.Where("agent_id = ?", *params.AgentID)
	}
	if params.QueueID != nil {
		query = query.Where("queue_id = ?", *params.QueueID)
	}
	if params.Action != nil {
		query = query.Where("action = ?", *params.Action)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.HistoryEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}
