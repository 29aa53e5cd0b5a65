package enforcement

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/internal/health"
	"github.com/imobflow/leadrotor/internal/queue"
	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeAgentRepo struct {
	agents  map[uuid.UUID]*models.Agent
	updates []map[string]any
}

func (r *fakeAgentRepo) WithTx(tx *gorm.DB) queue.Repository { return r }

func (r *fakeAgentRepo) ListActive(ctx context.Context) ([]models.Agent, error) { return nil, nil }

func (r *fakeAgentRepo) Find(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	return r.agents[agentID], nil
}

func (r *fakeAgentRepo) FindLocked(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	return r.agents[agentID], nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, agentID uuid.UUID, updates map[string]any) error {
	r.updates = append(r.updates, updates)
	agent := r.agents[agentID]
	if v, ok := updates["can_receive_new_leads"].(bool); ok {
		agent.CanReceiveNewLeads = v
	}
	if v, ok := updates["can_claim_roletao"].(bool); ok {
		agent.CanClaimRoletao = v
	}
	if v, ok := updates["leads_flag_source"].(enums.EnforcementSource); ok {
		agent.LeadsFlagSource = v
	}
	if v, ok := updates["roletao_flag_source"].(enums.EnforcementSource); ok {
		agent.RoletaoFlagSource = v
	}
	return nil
}

func (r *fakeAgentRepo) TouchLastOffer(ctx context.Context, agentID uuid.UUID, now time.Time) error {
	return nil
}

func (r *fakeAgentRepo) Deactivate(ctx context.Context, agentID uuid.UUID) error { return nil }

type fakeRecordRepo struct {
	records map[string]models.EnforcementRecord
}

func recordKey(agentID uuid.UUID, toggle enums.EnforcementToggle) string {
	return agentID.String() + "/" + string(toggle)
}

func (r *fakeRecordRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *fakeRecordRepo) Find(ctx context.Context, agentID uuid.UUID, toggle enums.EnforcementToggle) (*models.EnforcementRecord, error) {
	if record, ok := r.records[recordKey(agentID, toggle)]; ok {
		return &record, nil
	}
	return nil, nil
}

func (r *fakeRecordRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]models.EnforcementRecord, error) {
	var out []models.EnforcementRecord
	for _, record := range r.records {
		if record.AgentID == agentID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) Upsert(ctx context.Context, record *models.EnforcementRecord) error {
	if r.records == nil {
		r.records = map[string]models.EnforcementRecord{}
	}
	r.records[recordKey(record.AgentID, record.Toggle)] = *record
	return nil
}

func newService(t *testing.T, agents *fakeAgentRepo, records *fakeRecordRepo, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:      fakeTxRunner{},
		Agents:  agents,
		Records: records,
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestEvaluateOptedOut(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)
	agent := models.Agent{ID: uuid.New()}

	records := Evaluate(agent, health.Snapshot{SuspendLeadsUntil: &until, SuspendRoletaoUntil: &until}, now)
	if len(records) != 2 {
		t.Fatalf("expected a record per toggle, got %d", len(records))
	}
	for _, record := range records {
		if record.Enforced {
			t.Fatalf("opted-out toggle %s must not be enforced", record.Toggle)
		}
		if record.TargetValue != nil {
			t.Fatalf("opted-out toggle %s must carry no target", record.Toggle)
		}
		if len(record.Reasons) != 0 {
			t.Fatalf("opted-out toggle %s must carry no reasons", record.Toggle)
		}
	}
}

func TestEvaluateSuspensionForcesOff(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)
	agent := models.Agent{
		ID:                     uuid.New(),
		AutoEnforceHealthLeads: true,
		AutoEnforceRoletao:     true,
	}

	records := Evaluate(agent, health.Snapshot{
		SuspendLeadsUntil: &until,
		Reason:            "slow responses",
	}, now)

	var leads, roletao models.EnforcementRecord
	for _, record := range records {
		switch record.Toggle {
		case enums.ToggleReceiveLeads:
			leads = record
		case enums.ToggleClaimRoletao:
			roletao = record
		}
	}

	if !leads.Enforced || leads.TargetValue == nil || *leads.TargetValue {
		t.Fatalf("suspended leads toggle must target false: %+v", leads)
	}
	if len(leads.Reasons) != 2 {
		t.Fatalf("expected suspension window and reason, got %v", leads.Reasons)
	}
	if !roletao.Enforced || roletao.TargetValue == nil || !*roletao.TargetValue {
		t.Fatalf("unsuspended roletao toggle must target true: %+v", roletao)
	}
	if len(roletao.Reasons) != 0 {
		t.Fatalf("unsuspended toggle must carry no reasons, got %v", roletao.Reasons)
	}
}

func TestEvaluateLapsedSuspensionTargetsOn(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	lapsed := now.Add(-time.Minute)
	agent := models.Agent{ID: uuid.New(), AutoEnforceHealthLeads: true}

	records := Evaluate(agent, health.Snapshot{SuspendLeadsUntil: &lapsed}, now)
	for _, record := range records {
		if record.Toggle != enums.ToggleReceiveLeads {
			continue
		}
		if record.TargetValue == nil || !*record.TargetValue {
			t.Fatalf("lapsed suspension must target true: %+v", record)
		}
	}
}

func TestApplyOverridesManualFlag(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	agentID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	agents := &fakeAgentRepo{agents: map[uuid.UUID]*models.Agent{
		agentID: {
			ID:                     agentID,
			CanReceiveNewLeads:     true,
			LeadsFlagSource:        enums.SourceManual,
			AutoEnforceHealthLeads: true,
		},
	}}
	records := &fakeRecordRepo{}
	svc := newService(t, agents, records, now)

	until := now.Add(time.Hour)
	desired := Evaluate(*agents.agents[agentID], health.Snapshot{SuspendLeadsUntil: &until}, now)
	if err := svc.Apply(context.Background(), agentID, desired); err != nil {
		t.Fatalf("apply: %v", err)
	}

	agent := agents.agents[agentID]
	if agent.CanReceiveNewLeads {
		t.Fatalf("enforcement must force the leads flag off")
	}
	if agent.LeadsFlagSource != enums.SourceAutomationForced {
		t.Fatalf("flag source must record automation, got %s", agent.LeadsFlagSource)
	}
	stored, err := records.Find(context.Background(), agentID, enums.ToggleReceiveLeads)
	if err != nil || stored == nil {
		t.Fatalf("expected persisted record, got %v %v", stored, err)
	}
	if !stored.Enforced || len(stored.Reasons) == 0 {
		t.Fatalf("persisted record must carry enforcement and reasons: %+v", stored)
	}
}

func TestApplyNoopWhenFlagsAlreadyMatch(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	agentID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	agents := &fakeAgentRepo{agents: map[uuid.UUID]*models.Agent{
		agentID: {
			ID:                     agentID,
			CanReceiveNewLeads:     true,
			CanClaimRoletao:        true,
			AutoEnforceHealthLeads: true,
			AutoEnforceRoletao:     true,
		},
	}}
	records := &fakeRecordRepo{}
	svc := newService(t, agents, records, now)

	desired := Evaluate(*agents.agents[agentID], health.Snapshot{}, now)
	if err := svc.Apply(context.Background(), agentID, desired); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(agents.updates) != 0 {
		t.Fatalf("matching flags must not produce an update, got %v", agents.updates)
	}
}

func TestApplyUnknownAgent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	svc := newService(t, &fakeAgentRepo{agents: map[uuid.UUID]*models.Agent{}}, &fakeRecordRepo{}, now)

	err := svc.Apply(context.Background(), uuid.New(), nil)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetManualRequiresReasonToDisable(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	agentID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	agents := &fakeAgentRepo{agents: map[uuid.UUID]*models.Agent{
		agentID: {ID: agentID, CanClaimRoletao: true},
	}}
	svc := newService(t, agents, &fakeRecordRepo{}, now)

	err := svc.SetManual(context.Background(), SetManualParams{
		AgentID: agentID,
		Toggle:  enums.ToggleClaimRoletao,
		Value:   false,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if agents.agents[agentID].CanClaimRoletao != true {
		t.Fatalf("rejected write must not change the flag")
	}
}

func TestSetManualMarksSource(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	agentID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	agents := &fakeAgentRepo{agents: map[uuid.UUID]*models.Agent{
		agentID: {ID: agentID, CanClaimRoletao: true, RoletaoFlagSource: enums.SourceAutomationForced},
	}}
	svc := newService(t, agents, &fakeRecordRepo{}, now)

	err := svc.SetManual(context.Background(), SetManualParams{
		AgentID: agentID,
		Toggle:  enums.ToggleClaimRoletao,
		Value:   false,
		Reason:  "vacation",
	})
	if err != nil {
		t.Fatalf("set manual: %v", err)
	}
	agent := agents.agents[agentID]
	if agent.CanClaimRoletao {
		t.Fatalf("manual write must land")
	}
	if agent.RoletaoFlagSource != enums.SourceManual {
		t.Fatalf("flag source must record the manual writer, got %s", agent.RoletaoFlagSource)
	}
}

func TestStatusForMergesRecordAndLiveFlag(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	agentID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	agents := &fakeAgentRepo{agents: map[uuid.UUID]*models.Agent{
		agentID: {
			ID:                 agentID,
			CanReceiveNewLeads: false,
			CanClaimRoletao:    true,
			LeadsFlagSource:    enums.SourceAutomationForced,
			RoletaoFlagSource:  enums.SourceManual,
		},
	}}
	target := false
	records := &fakeRecordRepo{records: map[string]models.EnforcementRecord{
		recordKey(agentID, enums.ToggleReceiveLeads): {
			AgentID:     agentID,
			Toggle:      enums.ToggleReceiveLeads,
			Enforced:    true,
			TargetValue: &target,
			Reasons:     []string{"suspended until 2026-03-10T18:00:00Z"},
		},
	}}
	svc := newService(t, agents, records, now)

	statuses, err := svc.StatusFor(context.Background(), agentID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected a status per toggle, got %d", len(statuses))
	}

	leads := statuses[0]
	if leads.Toggle != enums.ToggleReceiveLeads {
		t.Fatalf("expected leads toggle first, got %s", leads.Toggle)
	}
	if leads.Value || !leads.Enforced || leads.Target == nil || *leads.Target {
		t.Fatalf("leads status must show the enforced off state: %+v", leads)
	}
	if len(leads.Reasons) != 1 {
		t.Fatalf("leads status must surface reasons, got %v", leads.Reasons)
	}

	roletao := statuses[1]
	if !roletao.Value || roletao.Enforced || roletao.Source != enums.SourceManual {
		t.Fatalf("roletao status must show the unenforced manual state: %+v", roletao)
	}
}
