package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/db/models"
	dbtypes "github.com/imobflow/leadrotor/pkg/db/types"
	"github.com/imobflow/leadrotor/pkg/enums"
)

// Entry is the caller-facing shape of one ledger record.
type Entry struct {
	ID        uuid.UUID             `json:"id"`
	Timestamp time.Time             `json:"timestamp"`
	Action    enums.HistoryAction   `json:"action"`
	UserID    *uuid.UUID            `json:"userId,omitempty"`
	QueueID   *uuid.UUID            `json:"queueId,omitempty"`
	LeadID    uuid.UUID             `json:"leadId"`
	JobID     *uuid.UUID            `json:"jobId,omitempty"`
	Details   string                `json:"details"`
	Changes   []dbtypes.FieldChange `json:"changes"`
}

// EntryFromModel maps a stored row to its external shape.
func EntryFromModel(m models.HistoryEntry) Entry {
	changes := []dbtypes.FieldChange(m.Changes)
	if changes == nil {
		changes = []dbtypes.FieldChange{}
	}
	return Entry{
		ID:        m.ID,
		Timestamp: m.CreatedAt,
		Action:    m.Action,
		UserID:    m.AgentID,
		QueueID:   m.QueueID,
		LeadID:    m.LeadID,
		JobID:     m.JobID,
		Details:   m.Details,
		Changes:   changes,
	}
}

func entriesFromModels(rows []models.HistoryEntry) []Entry {
	items := make([]Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, EntryFromModel(row))
	}
	return items
}
