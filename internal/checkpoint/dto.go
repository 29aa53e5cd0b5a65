package checkpoint

import (
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/db/models"
)

// Panel is the caller-facing checkpoint state for one agent.
type Panel struct {
	AgentID             uuid.UUID  `json:"agentId"`
	NextCheckpointAt    *time.Time `json:"nextCheckpointAt"`
	SuspendLeadsUntil   *time.Time `json:"suspendLeadsUntil"`
	SuspendRoletaoUntil *time.Time `json:"suspendRoletaoUntil"`
	Reason              string     `json:"reason"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// PanelFromModel maps stored checkpoint settings to the panel shape.
func PanelFromModel(m *models.CheckpointSettings) Panel {
	return Panel{
		AgentID:             m.AgentID,
		NextCheckpointAt:    m.NextCheckpointAt,
		SuspendLeadsUntil:   m.SuspendLeadsUntil,
		SuspendRoletaoUntil: m.SuspendRoletaoUntil,
		Reason:              m.Reason,
		UpdatedAt:           m.UpdatedAt,
	}
}
