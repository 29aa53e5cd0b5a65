package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckpointSettings holds the per-agent health recompute schedule and any
// active suspension windows. Created on the first health snapshot.
type CheckpointSettings struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	NextCheckpointAt    *time.Time `gorm:"column:next_checkpoint_at;type:timestamptz"`
	SuspendLeadsUntil   *time.Time `gorm:"column:suspend_leads_until;type:timestamptz"`
	SuspendRoletaoUntil *time.Time `gorm:"column:suspend_roletao_until;type:timestamptz"`
	Reason              string     `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SuspensionActive reports whether a suspension window is in force at the
// evaluation time. Windows are always compared against the live clock, never
// cached: a suspension may lapse between panel load and action.
func SuspensionActive(until *time.Time, now time.Time) bool {
	return until != nil && until.After(now)
}
