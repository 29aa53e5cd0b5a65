package enums

import "fmt"

// EnforcementToggle identifies which agent capability flag a record governs.
type EnforcementToggle string

const (
	ToggleReceiveLeads EnforcementToggle = "auto-receive-leads"
	ToggleClaimRoletao EnforcementToggle = "roletao-auto-claim"
)

var validEnforcementToggles = []EnforcementToggle{
	ToggleReceiveLeads,
	ToggleClaimRoletao,
}

// IsValid checks whether the toggle matches the canonical enum.
func (t EnforcementToggle) IsValid() bool {
	for _, candidate := range validEnforcementToggles {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseEnforcementToggle converts raw strings into EnforcementToggle.
func ParseEnforcementToggle(value string) (EnforcementToggle, error) {
	for _, candidate := range validEnforcementToggles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid enforcement toggle %q", value)
}

// EnforcementSource records who last set a capability flag. Automation wins
// eventually: a manual write stands only until the next automatic recompute.
type EnforcementSource string

const (
	SourceManual           EnforcementSource = "manual"
	SourceAutomationForced EnforcementSource = "automation_forced"
)

// IsValid checks whether the source matches the canonical enum.
func (s EnforcementSource) IsValid() bool {
	return s == SourceManual || s == SourceAutomationForced
}
