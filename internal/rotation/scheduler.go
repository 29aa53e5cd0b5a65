package rotation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/internal/checkpoint"
	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/internal/queue"
	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
	"github.com/imobflow/leadrotor/pkg/metrics"
)

// QueueEntry is the caller-facing view of one agent in the rotation queue.
// isNextToReceive is derived on every read, never stored.
type QueueEntry struct {
	UserUUID        uuid.UUID  `json:"userUuid"`
	UserName        string     `json:"userName"`
	UserEmail       string     `json:"userEmail"`
	LastOfferUpdate *time.Time `json:"lastOfferUpdate"`
	IsNextToReceive bool       `json:"isNextToReceive"`
}

// txRunner abstracts the transactional boundary of the shared database.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier publishes queue-change events so watchers do not have to poll.
type Notifier interface {
	QueueChanged(ctx context.Context, reason string)
}

// SchedulerParams configure the rotation scheduler.
type SchedulerParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Agents      queue.Repository
	Leads       LeadRepository
	Checkpoints checkpoint.Repository
	Settings    *SettingsService
	History     history.Repository
	Location    *time.Location
	Metrics     *metrics.RotationMetrics
	Notifier    Notifier
	Now         func() time.Time
}

// Scheduler decides which eligible agent receives each lead and enforces the
// attendance window. All rotation order is recomputed from source state on
// every evaluation; nothing incremental is kept between ticks.
type Scheduler struct {
	logg        *logger.Logger
	db          txRunner
	agents      queue.Repository
	leads       LeadRepository
	checkpoints checkpoint.Repository
	settings    *SettingsService
	history     history.Repository
	loc         *time.Location
	metrics     *metrics.RotationMetrics
	notifier    Notifier
	now         func() time.Time
}

// NewScheduler builds the rotation scheduler.
func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agent repository required")
	}
	if params.Leads == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if params.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		logg:        params.Logger,
		db:          params.DB,
		agents:      params.Agents,
		leads:       params.Leads,
		checkpoints: params.Checkpoints,
		settings:    params.Settings,
		history:     params.History,
		loc:         loc,
		metrics:     params.Metrics,
		notifier:    params.Notifier,
		now:         now,
	}, nil
}

// QueueState returns the ordered queue with the derived next-in-line flag.
// The first eligible agent in waiting order is the next to receive; at most
// one entry carries the flag.
func (s *Scheduler) QueueState(ctx context.Context) ([]QueueEntry, error) {
	agents, err := s.agents.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agents")
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	checkpoints, err := s.checkpoints.MapByAgent(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkpoints")
	}

	now := s.now()
	entries := make([]QueueEntry, 0, len(agents))
	marked := false
	eligible := 0
	for _, agent := range agents {
		entry := QueueEntry{
			UserUUID:        agent.ID,
			UserName:        agent.Name,
			UserEmail:       agent.Email,
			LastOfferUpdate: agent.LastOfferUpdate,
		}
		if s.isEligible(agent, settings, checkpoints, now) {
			eligible++
			if !marked {
				entry.IsNextToReceive = true
				marked = true
			}
		}
		entries = append(entries, entry)
	}

	s.metrics.SetCandidates(eligible)
	if pool, err := s.leads.CountUnassigned(ctx); err == nil {
		s.metrics.SetUnassignedPool(int(pool))
	}
	return entries, nil
}

// NextInLine returns the agent that would receive the next lead, or nil when
// no agent is eligible (a steady state, not an error).
func (s *Scheduler) NextInLine(ctx context.Context) (*models.Agent, error) {
	agents, err := s.agents.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agents")
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	checkpoints, err := s.checkpoints.MapByAgent(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkpoints")
	}

	now := s.now()
	for i := range agents {
		if s.isEligible(agents[i], settings, checkpoints, now) {
			return &agents[i], nil
		}
	}
	return nil, nil
}

// isEligible applies the candidate filter: active in the roletao, allowed to
// claim, inside business hours, no active roletao suspension, and the global
// kill switch on.
func (s *Scheduler) isEligible(agent models.Agent, settings models.RotationSettings, checkpoints map[uuid.UUID]models.CheckpointSettings, now time.Time) bool {
	if !settings.NextUserEnabled {
		return false
	}
	if !agent.IsActive || !agent.CanClaimRoletao {
		return false
	}
	if !WithinBusinessHours(now, settings.StartTime, settings.EndTime, s.loc) {
		return false
	}
	if cp, ok := checkpoints[agent.ID]; ok {
		if models.SuspensionActive(cp.SuspendRoletaoUntil, now) {
			return false
		}
	}
	return true
}

// Claim assigns a lead to an agent on an explicit claim action and records
// the decision in the ledger inside one transaction.
func (s *Scheduler) Claim(ctx context.Context, agentID, leadID uuid.UUID) error {
	if agentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	if leadID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lead id required")
	}

	now := s.now().UTC()
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		agents := s.agents.WithTx(tx)
		leads := s.leads.WithTx(tx)
		ledger := s.history.WithTx(tx)

		agent, err := agents.FindLocked(ctx, agentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
		}
		if agent == nil || !agent.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		if !agent.CanClaimRoletao {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "agent cannot claim from the roletao")
		}

		lead, err := leads.FindLocked(ctx, leadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
		}
		if lead == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		if lead.AssignedAgentID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lead already assigned")
		}

		if err := leads.Assign(ctx, leadID, agentID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign lead")
		}
		if err := agents.TouchLastOffer(ctx, agentID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch last offer")
		}

		entry := models.HistoryEntry{
			Action:  enums.HistoryActionAssign,
			AgentID: &agentID,
			LeadID:  leadID,
			Details: "claimed from rotation",
		}
		if err := ledger.Append(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.QueueChanged(ctx, "claim")
	}
	return nil
}

// ExpireOverdue returns leads whose holding window lapsed back to the
// unassigned pool and records a return entry per lead. Each lead is handled
// in its own transaction so a failure mid-scan leaves prior returns
// committed; the next tick picks up the rest.
func (s *Scheduler) ExpireOverdue(ctx context.Context) (int, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	cutoff := now.Add(-settings.TimeLimit())
	overdue, err := s.leads.FindOverdueAssigned(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find overdue leads")
	}

	returned := 0
	var errs []error
	for _, lead := range overdue {
		if err := s.expireLead(ctx, lead, cutoff); err != nil {
			errs = append(errs, err)
			continue
		}
		returned++
	}

	if returned > 0 {
		if pool, err := s.leads.CountUnassigned(ctx); err == nil {
			s.metrics.SetUnassignedPool(int(pool))
		}
		if s.notifier != nil {
			s.notifier.QueueChanged(ctx, "expire")
		}
	}
	return returned, multierr.Combine(errs...)
}

func (s *Scheduler) expireLead(ctx context.Context, lead models.Lead, cutoff time.Time) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		leads := s.leads.WithTx(tx)
		ledger := s.history.WithTx(tx)

		current, err := leads.FindLocked(ctx, lead.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
		}
		// Re-check under lock: a concurrent return or move wins.
		if current == nil || current.AssignedAgentID == nil || current.OfferedAt == nil || current.OfferedAt.After(cutoff) {
			return nil
		}

		agentID := *current.AssignedAgentID
		if err := leads.ReturnToPool(ctx, lead.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return lead")
		}

		entry := models.HistoryEntry{
			Action:  enums.HistoryActionReturn,
			AgentID: &agentID,
			LeadID:  lead.ID,
			Details: "attendance window expired",
		}
		if err := ledger.Append(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}

		s.metrics.IncForcedHandoff()
		return nil
	})
}
