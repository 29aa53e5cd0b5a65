package rotation

import (
	"time"

	"github.com/imobflow/leadrotor/pkg/db/models"
)

// SettingsView is the external shape of the rotation configuration.
type SettingsView struct {
	TimeLimitMinutes int       `json:"timeLimitMinutes"`
	StartTime        string    `json:"startTime"`
	EndTime          string    `json:"endTime"`
	NextUserEnabled  bool      `json:"nextUserEnabled"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SettingsViewFromModel maps the settings row to its external shape.
func SettingsViewFromModel(m models.RotationSettings) SettingsView {
	return SettingsView{
		TimeLimitMinutes: m.TimeLimitMinutes,
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		NextUserEnabled:  m.NextUserEnabled,
		UpdatedAt:        m.UpdatedAt,
	}
}
