package enums

import "testing"

func TestJobStatusTransitions(t *testing.T) {
	cases := []struct {
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{JobStatusPending, JobStatusProcessing, true},
		{JobStatusProcessing, JobStatusCompleted, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusPending, JobStatusFailed, false},
		{JobStatusCompleted, JobStatusProcessing, false},
		{JobStatusFailed, JobStatusProcessing, false},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusProcessing, JobStatusPending, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobStatusPending.IsTerminal() || JobStatusProcessing.IsTerminal() {
		t.Fatal("pending/processing must not be terminal")
	}
	if !JobStatusCompleted.IsTerminal() || !JobStatusFailed.IsTerminal() {
		t.Fatal("completed/failed must be terminal")
	}
}

func TestParseJobStatus(t *testing.T) {
	status, err := ParseJobStatus("processing")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if status != JobStatusProcessing {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseJobStatus("running"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseHistoryAction(t *testing.T) {
	for _, raw := range []string{"assign", "move", "return"} {
		action, err := ParseHistoryAction(raw)
		if err != nil {
			t.Fatalf("unexpected parse error for %q: %v", raw, err)
		}
		if !action.IsValid() {
			t.Fatalf("parsed action %q reported invalid", raw)
		}
	}
	if _, err := ParseHistoryAction("delete"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}
