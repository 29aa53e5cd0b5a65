package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/internal/enforcement"
	"github.com/imobflow/leadrotor/internal/health"
	"github.com/imobflow/leadrotor/internal/queue"
	"github.com/imobflow/leadrotor/pkg/db/models"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

// Enforcer reconciles capability flags after a checkpoint changes.
type Enforcer interface {
	Apply(ctx context.Context, agentID uuid.UUID, desired []models.EnforcementRecord) error
}

// ServiceParams configure the checkpoint service.
type ServiceParams struct {
	Logger        *logger.Logger
	Agents        queue.Repository
	Checkpoints   Repository
	Evaluator     health.Evaluator
	Enforcer      Enforcer
	RunNowRetries int
	Now           func() time.Time
}

// Service serves the per-agent checkpoint panel: reading the schedule,
// editing suspension windows by hand, and forcing an immediate recompute.
type Service struct {
	logg          *logger.Logger
	agents        queue.Repository
	checkpoints   Repository
	evaluator     health.Evaluator
	enforcer      Enforcer
	runNowRetries int
	now           func() time.Time
}

// NewService wires the checkpoint service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agent repository required")
	}
	if params.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if params.Evaluator == nil {
		return nil, fmt.Errorf("health evaluator required")
	}
	if params.Enforcer == nil {
		return nil, fmt.Errorf("enforcer required")
	}
	retries := params.RunNowRetries
	if retries < 0 {
		retries = 0
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:          params.Logger,
		agents:        params.Agents,
		checkpoints:   params.Checkpoints,
		evaluator:     params.Evaluator,
		enforcer:      params.Enforcer,
		runNowRetries: retries,
		now:           now,
	}, nil
}

// Get returns the checkpoint panel state for one agent. Agents that never
// produced a snapshot get an empty panel, not an error.
func (s *Service) Get(ctx context.Context, agentID uuid.UUID) (*models.CheckpointSettings, error) {
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
	settings, err := s.checkpoints.FindByAgent(ctx, agentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkpoint")
	}
	if settings == nil {
		return &models.CheckpointSettings{AgentID: agentID}, nil
	}
	return settings, nil
}

// EditParams carry a manual checkpoint panel submission. Nil time fields
// clear the corresponding window.
type EditParams struct {
	NextCheckpointAt    *time.Time `json:"nextCheckpointAt"`
	SuspendLeadsUntil   *time.Time `json:"suspendLeadsUntil"`
	SuspendRoletaoUntil *time.Time `json:"suspendRoletaoUntil"`
	Reason              string     `json:"reason"`
}

// Edit replaces the checkpoint panel state for one agent. All fields are
// validated before anything is written; a rejected submission changes
// nothing. Suspension windows must end in the future.
func (s *Service) Edit(ctx context.Context, agentID uuid.UUID, params EditParams) (*models.CheckpointSettings, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	now := s.now()
	if params.SuspendLeadsUntil != nil && !params.SuspendLeadsUntil.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "suspendLeadsUntil must be in the future")
	}
	if params.SuspendRoletaoUntil != nil && !params.SuspendRoletaoUntil.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "suspendRoletaoUntil must be in the future")
	}

	agent, err := s.agents.Find(ctx, agentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	if agent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
	}

	settings := &models.CheckpointSettings{
		AgentID:             agentID,
		NextCheckpointAt:    params.NextCheckpointAt,
		SuspendLeadsUntil:   params.SuspendLeadsUntil,
		SuspendRoletaoUntil: params.SuspendRoletaoUntil,
		Reason:              params.Reason,
	}
	if err := s.checkpoints.Upsert(ctx, settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkpoint")
	}

	// The edited windows change what enforcement wants; reconcile now rather
	// than waiting for the next recompute.
	desired := enforcement.Evaluate(*agent, health.Snapshot{
		NextCheckpointAt:    settings.NextCheckpointAt,
		SuspendLeadsUntil:   settings.SuspendLeadsUntil,
		SuspendRoletaoUntil: settings.SuspendRoletaoUntil,
		Reason:              settings.Reason,
	}, now)
	if err := s.enforcer.Apply(ctx, agentID, desired); err != nil {
		return nil, err
	}
	return settings, nil
}

// RunNow forces an immediate health recompute for one agent: evaluate,
// persist the snapshot, reconcile flags, all synchronously. An evaluator
// failure after retries leaves the previous panel state untouched.
func (s *Service) RunNow(ctx context.Context, agentID uuid.UUID) (*models.CheckpointSettings, error) {
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
	return s.recompute(ctx, *agent)
}

// RecomputeDue processes every agent whose scheduled checkpoint time has
// elapsed. Failures on one agent are logged and do not stop the sweep.
func (s *Service) RecomputeDue(ctx context.Context) (int, error) {
	due, err := s.checkpoints.ListDue(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due checkpoints")
	}

	processed := 0
	for _, settings := range due {
		agent, err := s.agents.Find(ctx, settings.AgentID)
		if err != nil {
			return processed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
		}
		if agent == nil || !agent.IsActive {
			continue
		}
		if _, err := s.recompute(ctx, *agent); err != nil {
			s.logg.Error(s.logg.WithAgentID(ctx, agent.ID.String()), "checkpoint recompute failed", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *Service) recompute(ctx context.Context, agent models.Agent) (*models.CheckpointSettings, error) {
	snapshot, err := s.evaluate(ctx, agent.ID)
	if err != nil {
		return nil, err
	}

	settings := &models.CheckpointSettings{
		AgentID:             agent.ID,
		NextCheckpointAt:    snapshot.NextCheckpointAt,
		SuspendLeadsUntil:   snapshot.SuspendLeadsUntil,
		SuspendRoletaoUntil: snapshot.SuspendRoletaoUntil,
		Reason:              snapshot.Reason,
	}
	if err := s.checkpoints.Upsert(ctx, settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkpoint")
	}

	desired := enforcement.Evaluate(agent, *snapshot, s.now())
	if err := s.enforcer.Apply(ctx, agent.ID, desired); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Service) evaluate(ctx context.Context, agentID uuid.UUID) (*health.Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt <= s.runNowRetries; attempt++ {
		snapshot, err := s.evaluator.Evaluate(ctx, agentID)
		if err == nil {
			return snapshot, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
