package enforcement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/internal/health"
	"github.com/imobflow/leadrotor/internal/queue"
	"github.com/imobflow/leadrotor/pkg/db/models"
	dbtypes "github.com/imobflow/leadrotor/pkg/db/types"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams configure the enforcement service.
type ServiceParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Agents  queue.Repository
	Records Repository
	Now     func() time.Time
}

// Service reconciles agent capability flags against health snapshots. A
// manual write always lands, but automation overwrites it on the next
// recompute of any agent that opted into enforcement.
type Service struct {
	logg    *logger.Logger
	db      txRunner
	agents  queue.Repository
	records Repository
	now     func() time.Time
}

// NewService wires the enforcement service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agent repository required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("record repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:    params.Logger,
		db:      params.DB,
		agents:  params.Agents,
		records: params.Records,
		now:     now,
	}, nil
}

// Evaluate derives the desired enforcement record per toggle from a health
// snapshot. Pure: no reads, no writes. Toggles the agent has not opted into
// produce an unenforced record with no target and no reasons.
func Evaluate(agent models.Agent, snapshot health.Snapshot, now time.Time) []models.EnforcementRecord {
	return []models.EnforcementRecord{
		evaluateToggle(agent.ID, enums.ToggleReceiveLeads, agent.AutoEnforceHealthLeads, snapshot.SuspendLeadsUntil, snapshot.Reason, now),
		evaluateToggle(agent.ID, enums.ToggleClaimRoletao, agent.AutoEnforceRoletao, snapshot.SuspendRoletaoUntil, snapshot.Reason, now),
	}
}

func evaluateToggle(agentID uuid.UUID, toggle enums.EnforcementToggle, optedIn bool, until *time.Time, reason string, now time.Time) models.EnforcementRecord {
	record := models.EnforcementRecord{
		AgentID: agentID,
		Toggle:  toggle,
		Reasons: dbtypes.StringList{},
	}
	if !optedIn {
		return record
	}

	record.Enforced = true
	target := true
	if models.SuspensionActive(until, now) {
		target = false
		record.Reasons = append(record.Reasons, fmt.Sprintf("suspended until %s", until.UTC().Format(time.RFC3339)))
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			record.Reasons = append(record.Reasons, trimmed)
		}
	}
	record.TargetValue = &target
	return record
}

// Apply persists the evaluated records and forces the agent's live flags to
// match every enforced target, marking the flag source as automation. The
// whole reconciliation commits or none of it does.
func (s *Service) Apply(ctx context.Context, agentID uuid.UUID, desired []models.EnforcementRecord) error {
	if agentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		agents := s.agents.WithTx(tx)
		records := s.records.WithTx(tx)

		agent, err := agents.FindLocked(ctx, agentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
		}
		if agent == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}

		updates := map[string]any{}
		for i := range desired {
			record := desired[i]
			record.AgentID = agentID
			if err := records.Upsert(ctx, &record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert enforcement record")
			}
			if !record.Enforced || record.TargetValue == nil {
				continue
			}
			switch record.Toggle {
			case enums.ToggleReceiveLeads:
				if agent.CanReceiveNewLeads != *record.TargetValue {
					updates["can_receive_new_leads"] = *record.TargetValue
					updates["leads_flag_source"] = enums.SourceAutomationForced
				}
			case enums.ToggleClaimRoletao:
				if agent.CanClaimRoletao != *record.TargetValue {
					updates["can_claim_roletao"] = *record.TargetValue
					updates["roletao_flag_source"] = enums.SourceAutomationForced
				}
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := agents.Update(ctx, agentID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agent flags")
		}
		s.logg.Info(s.logg.WithAgentID(ctx, agentID.String()), "enforcement applied")
		return nil
	})
}

// SetManualParams carry one manual capability flag write.
type SetManualParams struct {
	AgentID uuid.UUID
	Toggle  enums.EnforcementToggle
	Value   bool
	Reason  string
}

// SetManual writes a capability flag on behalf of a human operator. Turning a
// flag off requires a reason; the write is marked manual so readers can tell
// it apart from automation, which may overwrite it on the next recompute.
func (s *Service) SetManual(ctx context.Context, params SetManualParams) error {
	if params.AgentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	if !params.Toggle.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown toggle %q", params.Toggle))
	}
	if !params.Value && strings.TrimSpace(params.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "disabling a capability requires a reason")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		agents := s.agents.WithTx(tx)

		agent, err := agents.FindLocked(ctx, params.AgentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
		}
		if agent == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}

		updates := map[string]any{}
		switch params.Toggle {
		case enums.ToggleReceiveLeads:
			updates["can_receive_new_leads"] = params.Value
			updates["leads_flag_source"] = enums.SourceManual
		case enums.ToggleClaimRoletao:
			updates["can_claim_roletao"] = params.Value
			updates["roletao_flag_source"] = enums.SourceManual
		}
		if err := agents.Update(ctx, params.AgentID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agent flag")
		}
		return nil
	})
}

// Status describes one toggle for the panel: the live flag value, who set it,
// and what the automation currently wants.
type Status struct {
	Toggle    enums.EnforcementToggle `json:"toggle"`
	Value     bool                    `json:"value"`
	Source    enums.EnforcementSource `json:"source"`
	Enforced  bool                    `json:"enforced"`
	Target    *bool                   `json:"target"`
	Reasons   []string                `json:"reasons"`
	UpdatedAt *time.Time              `json:"updatedAt"`
}

// StatusFor returns the per-toggle flag state for one agent.
func (s *Service) StatusFor(ctx context.Context, agentID uuid.UUID) ([]Status, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	agent, err := s.agents.Find(ctx, agentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	if agent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
	}
	records, err := s.records.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list enforcement records")
	}

	byToggle := map[enums.EnforcementToggle]models.EnforcementRecord{}
	for _, record := range records {
		byToggle[record.Toggle] = record
	}

	statuses := []Status{
		{Toggle: enums.ToggleReceiveLeads, Value: agent.CanReceiveNewLeads, Source: agent.LeadsFlagSource},
		{Toggle: enums.ToggleClaimRoletao, Value: agent.CanClaimRoletao, Source: agent.RoletaoFlagSource},
	}
	for i := range statuses {
		record, ok := byToggle[statuses[i].Toggle]
		if !ok {
			statuses[i].Reasons = []string{}
			continue
		}
		statuses[i].Enforced = record.Enforced
		statuses[i].Target = record.TargetValue
		statuses[i].Reasons = record.Reasons
		updated := record.UpdatedAt
		statuses[i].UpdatedAt = &updated
	}
	return statuses, nil
}
