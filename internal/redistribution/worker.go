package redistribution

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/internal/rotation"
	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
	"github.com/imobflow/leadrotor/pkg/metrics"
)

// Notifier publishes queue-change events after a batch lands.
type Notifier interface {
	QueueChanged(ctx context.Context, reason string)
}

// ProcessorParams configure the batch processor.
type ProcessorParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Jobs     Repository
	Leads    rotation.LeadRepository
	History  history.Repository
	Metrics  *metrics.JobMetrics
	Notifier Notifier
	Now      func() time.Time
}

// Processor drains pending redistribution jobs. Each lead in a batch commits
// independently, so a crash mid-batch loses at most the lead in flight; the
// job row records how far the batch got.
type Processor struct {
	logg     *logger.Logger
	db       txRunner
	jobs     Repository
	leads    rotation.LeadRepository
	history  history.Repository
	metrics  *metrics.JobMetrics
	notifier Notifier
	now      func() time.Time
}

// NewProcessor wires the batch processor.
func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Leads == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		logg:     params.Logger,
		db:       params.DB,
		jobs:     params.Jobs,
		leads:    params.Leads,
		history:  params.History,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		now:      now,
	}, nil
}

// ProcessNext claims and runs the oldest pending job. Returns false when no
// pending job exists.
func (p *Processor) ProcessNext(ctx context.Context) (bool, error) {
	job, err := p.jobs.ClaimNextPending(ctx, p.now().UTC())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim pending job")
	}
	if job == nil {
		return false, nil
	}

	ctx = p.logg.WithJobID(ctx, job.ID.String())
	started := p.now()
	if err := p.run(ctx, job); err != nil {
		msg := err.Error()
		if finishErr := p.finish(ctx, job, enums.JobStatusFailed, &msg); finishErr != nil {
			p.logg.Error(ctx, "mark job failed", finishErr)
		}
		p.metrics.ObserveDuration("redistribution", time.Since(started))
		p.metrics.IncFailure("redistribution")
		return true, err
	}

	if err := p.finish(ctx, job, enums.JobStatusCompleted, nil); err != nil {
		return true, err
	}
	p.metrics.ObserveDuration("redistribution", time.Since(started))
	p.metrics.IncSuccess("redistribution")
	if p.notifier != nil {
		p.notifier.QueueChanged(ctx, "redistribution")
	}
	return true, nil
}

// finish moves the job to a terminal status, rejecting illegal lifecycle
// steps.
func (p *Processor) finish(ctx context.Context, job *models.RedistributionJob, status enums.JobStatus, errorMessage *string) error {
	if !job.Status.CanTransition(status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("job is %s, cannot become %s", job.Status, status))
	}
	if err := p.jobs.Finish(ctx, job.ID, status, errorMessage, p.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finish job")
	}
	job.Status = status
	return nil
}

// run processes every lead in the batch. Per-lead failures become failed
// outcomes, not job failures; only a batch-level fault fails the job.
func (p *Processor) run(ctx context.Context, job *models.RedistributionJob) error {
	batch, err := p.jobs.BatchLeads(ctx, job.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}

	moved := 0
	for _, item := range batch {
		outcome, detail := p.processLead(ctx, job, item)
		if err := p.jobs.SetOutcome(ctx, item.ID, outcome, detail); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record lead outcome")
		}
		if outcome == enums.LeadOutcomeMoved {
			moved++
		}
	}
	p.logg.Info(ctx, fmt.Sprintf("redistribution batch done: %d/%d leads moved", moved, len(batch)))
	return nil
}

func (p *Processor) processLead(ctx context.Context, job *models.RedistributionJob, item models.RedistributionLead) (enums.LeadOutcomeStatus, *string) {
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		leads := p.leads.WithTx(tx)
		ledger := p.history.WithTx(tx)

		lead, err := leads.FindLocked(ctx, item.LeadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
		}
		if lead == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}

		// Archived leads are the usual input here; the move itself
		// clears the archived flag.
		previousAgent := lead.AssignedAgentID
		if job.TargetQueueID != nil {
			if err := leads.MoveToQueue(ctx, lead.ID, *job.TargetQueueID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move lead to queue")
			}
		} else {
			if err := leads.ReturnToPool(ctx, lead.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return lead to pool")
			}
		}

		entry := models.HistoryEntry{
			Action:  enums.HistoryActionMove,
			AgentID: previousAgent,
			QueueID: job.TargetQueueID,
			LeadID:  lead.ID,
			JobID:   &job.ID,
			Details: fmt.Sprintf("redistributed via %s", job.Mode()),
		}
		if err := ledger.Append(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}
		return nil
	})
	if err == nil {
		return enums.LeadOutcomeMoved, nil
	}

	detail := err.Error()
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeNotFound:
		return enums.LeadOutcomeSkipped, &detail
	default:
		p.logg.Error(p.logg.WithLeadID(ctx, item.LeadID.String()), "redistribute lead", err)
		return enums.LeadOutcomeFailed, &detail
	}
}
