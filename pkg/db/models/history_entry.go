package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/imobflow/leadrotor/pkg/db/types"
	"github.com/imobflow/leadrotor/pkg/enums"
)

// HistoryEntry is the append-only audit record of a scheduling decision.
// Entries are never mutated or deleted; they are the sole persisted evidence
// of every assignment, move, and return.
type HistoryEntry struct {
	ID     uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Action enums.HistoryAction `gorm:"type:text;not null;index"`

	AgentID *uuid.UUID `gorm:"column:agent_id;type:uuid;index"`
	QueueID *uuid.UUID `gorm:"column:queue_id;type:uuid;index"`
	LeadID  uuid.UUID  `gorm:"column:lead_id;type:uuid;not null;index"`
	JobID   *uuid.UUID `gorm:"column:job_id;type:uuid;index"`

	Details string                  `gorm:"type:text;not null;default:''"`
	Changes dbtypes.FieldChangeList `gorm:"type:text;not null;default:'[]'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
