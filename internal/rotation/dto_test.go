package rotation

import (
	"encoding/json"
	"testing"

	"github.com/imobflow/leadrotor/pkg/db/models"
)

func TestSettingsViewWireShape(t *testing.T) {
	view := SettingsViewFromModel(models.RotationSettings{
		ID:               models.RotationSettingsID,
		TimeLimitMinutes: 45,
		StartTime:        "09:00",
		EndTime:          "19:00",
		NextUserEnabled:  true,
	})

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal settings: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}

	for _, key := range []string{"timeLimitMinutes", "startTime", "endTime", "nextUserEnabled", "updatedAt"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing wire field %q in %s", key, raw)
		}
	}
	if decoded["timeLimitMinutes"] != float64(45) {
		t.Fatalf("time limit must pass through, got %v", decoded["timeLimitMinutes"])
	}
}
