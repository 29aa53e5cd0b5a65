package models

import "time"

// RotationSettingsID is the primary key of the singleton settings row.
const RotationSettingsID int16 = 1

// RotationSettings is the process-wide rotation configuration. A single row
// holds it; every scheduling tick reads the cached copy and an explicit
// reload refreshes it.
type RotationSettings struct {
	ID               int16  `gorm:"primaryKey"`
	TimeLimitMinutes int    `gorm:"column:time_limit_minutes;not null;default:30"`
	StartTime        string `gorm:"column:start_time;type:text;not null;default:'08:00'"`
	EndTime          string `gorm:"column:end_time;type:text;not null;default:'18:00'"`
	NextUserEnabled  bool   `gorm:"column:next_user_enabled;not null;default:true"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TimeLimit returns the attendance window as a duration.
func (s RotationSettings) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitMinutes) * time.Minute
}
