package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the unit of work the rotation engine distributes. A lead with no
// assigned agent and no queue sits in the unassigned pool.
type Lead struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"type:text;not null;default:''"`

	AssignedAgentID *uuid.UUID `gorm:"column:assigned_agent_id;type:uuid;index"`
	QueueID         *uuid.UUID `gorm:"column:queue_id;type:uuid;index"`
	OfferedAt       *time.Time `gorm:"column:offered_at;type:timestamptz"`
	Archived        bool       `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Queue is a named destination for direct redistribution, bypassing rotation.
type Queue struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
