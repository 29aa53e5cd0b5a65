package enums

// LeadOutcomeStatus records the per-lead result inside a redistribution job.
type LeadOutcomeStatus string

const (
	LeadOutcomeMoved   LeadOutcomeStatus = "moved"
	LeadOutcomeSkipped LeadOutcomeStatus = "skipped"
	LeadOutcomeFailed  LeadOutcomeStatus = "failed"
)

// IsValid checks whether the status matches the canonical enum.
func (s LeadOutcomeStatus) IsValid() bool {
	return s == LeadOutcomeMoved || s == LeadOutcomeSkipped || s == LeadOutcomeFailed
}
