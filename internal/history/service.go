package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/pagination"
)

// Service defines the ledger query surface exposed to callers.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// ListParams configures ledger filtering for external callers.
type ListParams struct {
	Start   *time.Time
	End     *time.Time
	AgentID *uuid.UUID
	QueueID *uuid.UUID
	Action  string
	Limit   int
	Cursor  string
}

// ListResult wraps returned entries and the cursor for the next page.
type ListResult struct {
	Items  []Entry `json:"items"`
	Cursor string  `json:"cursor"`
}

type service struct {
	repo Repository
}

// NewService wires history dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "history repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Start != nil && params.End != nil && params.End.Before(*params.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
	}

	query := ListQuery{
		Start:   params.Start,
		End:     params.End,
		AgentID: params.AgentID,
		QueueID: params.QueueID,
		Limit:   params.Limit,
	}
	if params.Action != "" {
		action, err := enums.ParseHistoryAction(params.Action)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action filter")
		}
		query.Action = &action
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: entriesFromModels(rows), Cursor: cursor}, nil
}
