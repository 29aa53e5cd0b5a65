package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/enums"
)

// Agent represents a sales agent eligible for lead assignment. Agents are
// never deleted, only deactivated.
type Agent struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name  string    `gorm:"type:text;not null"`
	Email string    `gorm:"type:text;not null;uniqueIndex"`

	CanReceiveNewLeads bool `gorm:"column:can_receive_new_leads;not null;default:true"`
	CanClaimRoletao    bool `gorm:"column:can_claim_roletao;not null;default:true"`

	AutoEnforceHealthLeads bool `gorm:"column:auto_enforce_health_leads;not null;default:false"`
	AutoEnforceRoletao     bool `gorm:"column:auto_enforce_roletao;not null;default:false"`

	// Precedence of the last writer per flag. Automation wins eventually:
	// a manual value stands only until the next automatic recompute.
	LeadsFlagSource   enums.EnforcementSource `gorm:"column:leads_flag_source;type:text;not null;default:'manual'"`
	RoletaoFlagSource enums.EnforcementSource `gorm:"column:roletao_flag_source;type:text;not null;default:'manual'"`

	LastOfferUpdate *time.Time `gorm:"column:last_offer_update;type:timestamptz"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
