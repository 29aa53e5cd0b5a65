package checkpoint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/db/models"
)

func TestPanelWireShape(t *testing.T) {
	until := time.Now().Add(time.Hour).UTC()
	panel := PanelFromModel(&models.CheckpointSettings{
		AgentID:           uuid.New(),
		SuspendLeadsUntil: &until,
		Reason:            "low conversion",
	})

	raw, err := json.Marshal(panel)
	if err != nil {
		t.Fatalf("marshal panel: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal panel: %v", err)
	}

	for _, key := range []string{"agentId", "nextCheckpointAt", "suspendLeadsUntil", "suspendRoletaoUntil", "reason", "updatedAt"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing wire field %q in %s", key, raw)
		}
	}
	if decoded["reason"] != "low conversion" {
		t.Fatalf("reason must pass through, got %v", decoded["reason"])
	}
}
