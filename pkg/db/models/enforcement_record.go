package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/imobflow/leadrotor/pkg/db/types"
	"github.com/imobflow/leadrotor/pkg/enums"
)

// EnforcementRecord captures what the automation wants a capability flag to
// be and why. One record per (agent, toggle). Invariant: when Enforced is
// true, TargetValue is non-null and the agent's live flag equals it.
type EnforcementRecord struct {
	ID      uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_enforcement_agent_toggle"`
	Toggle  enums.EnforcementToggle `gorm:"type:text;not null;uniqueIndex:idx_enforcement_agent_toggle"`

	Enforced    bool               `gorm:"not null;default:false"`
	TargetValue *bool              `gorm:"column:target_value"`
	Reasons     dbtypes.StringList `gorm:"type:text;not null;default:'[]'"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
