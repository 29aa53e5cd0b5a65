package history

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/db/models"
	dbtypes "github.com/imobflow/leadrotor/pkg/db/types"
	"github.com/imobflow/leadrotor/pkg/enums"
)

func TestEntryWireShape(t *testing.T) {
	agentID := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := EntryFromModel(models.HistoryEntry{
		ID:        uuid.New(),
		Action:    enums.HistoryActionAssign,
		AgentID:   &agentID,
		LeadID:    uuid.New(),
		Details:   "offered via rotation",
		Changes:   dbtypes.FieldChangeList{{Field: "assignedAgentId", From: "", To: agentID.String()}},
		CreatedAt: created,
	})

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}

	for _, key := range []string{"id", "timestamp", "action", "userId", "leadId", "details", "changes"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing wire field %q in %s", key, raw)
		}
	}
	if decoded["userId"] != agentID.String() {
		t.Fatalf("the acting agent goes out as userId, got %v", decoded["userId"])
	}
	if decoded["timestamp"] != created.Format(time.RFC3339) {
		t.Fatalf("created-at goes out as timestamp, got %v", decoded["timestamp"])
	}
}

func TestEntryChangesNeverNull(t *testing.T) {
	entry := EntryFromModel(models.HistoryEntry{ID: uuid.New(), LeadID: uuid.New()})

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	var decoded struct {
		Changes []dbtypes.FieldChange `json:"changes"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if decoded.Changes == nil {
		t.Fatalf("changes must serialize as an empty list, got %s", raw)
	}
}
