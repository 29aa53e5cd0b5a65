package redistribution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/pkg/db/models"
	"github.com/imobflow/leadrotor/pkg/enums"
)

type processorFixture struct {
	processor *Processor
	jobs      *fakeJobRepo
	leads     *fakeLeadRepo
	history   *fakeHistoryRepo
	notifier  *fakeNotifier
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	jobs := newFakeJobRepo()
	leads := &fakeLeadRepo{leads: map[uuid.UUID]*models.Lead{}}
	ledger := &fakeHistoryRepo{}
	notifier := &fakeNotifier{}

	proc, err := NewProcessor(ProcessorParams{
		Logger:   testLogger(),
		DB:       fakeTxRunner{},
		Jobs:     jobs,
		Leads:    leads,
		History:  ledger,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return &processorFixture{
		processor: proc,
		jobs:      jobs,
		leads:     leads,
		history:   ledger,
		notifier:  notifier,
	}
}

func submitJob(t *testing.T, jobs *fakeJobRepo, target *uuid.UUID, leadIDs ...uuid.UUID) *models.RedistributionJob {
	t.Helper()
	job := &models.RedistributionJob{Status: enums.JobStatusPending, TargetQueueID: target}
	if err := jobs.Create(context.Background(), job, leadIDs); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestProcessNextNoPendingJob(t *testing.T) {
	fix := newProcessorFixture(t)

	processed, err := fix.processor.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if processed {
		t.Fatalf("no pending job must be a quiet no-op")
	}
}

func TestProcessNextQueueMode(t *testing.T) {
	fix := newProcessorFixture(t)

	agentID := uuid.New()
	queueID := uuid.New()
	leadID := uuid.New()
	fix.leads.leads[leadID] = &models.Lead{ID: leadID, AssignedAgentID: &agentID}
	job := submitJob(t, fix.jobs, &queueID, leadID)

	processed, err := fix.processor.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if !processed {
		t.Fatalf("expected the pending job to be claimed")
	}

	stored := fix.jobs.jobs[job.ID]
	if stored.Status != enums.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", stored.Status)
	}
	if stored.StartedAt == nil || stored.FinishedAt == nil {
		t.Fatalf("job must record start and finish times")
	}

	lead := fix.leads.leads[leadID]
	if lead.QueueID == nil || *lead.QueueID != queueID {
		t.Fatalf("lead must land in the target queue")
	}
	if lead.AssignedAgentID != nil {
		t.Fatalf("moved lead must lose its owner")
	}

	batch, _ := fix.jobs.BatchLeads(context.Background(), job.ID)
	if batch[0].Outcome == nil || *batch[0].Outcome != enums.LeadOutcomeMoved {
		t.Fatalf("expected moved outcome, got %v", batch[0].Outcome)
	}

	if len(fix.history.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(fix.history.entries))
	}
	entry := fix.history.entries[0]
	if entry.Action != enums.HistoryActionMove {
		t.Fatalf("expected move action, got %s", entry.Action)
	}
	if entry.JobID == nil || *entry.JobID != job.ID {
		t.Fatalf("history entry must name the job as cause")
	}
	if entry.AgentID == nil || *entry.AgentID != agentID {
		t.Fatalf("history entry must record the previous owner")
	}
	if entry.QueueID == nil || *entry.QueueID != queueID {
		t.Fatalf("history entry must record the destination queue")
	}

	if len(fix.notifier.reasons) != 1 || fix.notifier.reasons[0] != "redistribution" {
		t.Fatalf("expected one redistribution notification, got %v", fix.notifier.reasons)
	}
}

func TestProcessNextRotationMode(t *testing.T) {
	fix := newProcessorFixture(t)

	agentID := uuid.New()
	leadID := uuid.New()
	offered := time.Now().Add(-time.Hour)
	fix.leads.leads[leadID] = &models.Lead{ID: leadID, AssignedAgentID: &agentID, OfferedAt: &offered}
	submitJob(t, fix.jobs, nil, leadID)

	if _, err := fix.processor.ProcessNext(context.Background()); err != nil {
		t.Fatalf("process next: %v", err)
	}

	lead := fix.leads.leads[leadID]
	if lead.AssignedAgentID != nil || lead.QueueID != nil || lead.OfferedAt != nil {
		t.Fatalf("rotation mode must return the lead to the pool: %+v", lead)
	}
}

func TestProcessNextPartialBatch(t *testing.T) {
	fix := newProcessorFixture(t)

	goodID := uuid.New()
	missingID := uuid.New()
	archivedID := uuid.New()
	fix.leads.leads[goodID] = &models.Lead{ID: goodID}
	fix.leads.leads[archivedID] = &models.Lead{ID: archivedID, Archived: true}
	job := submitJob(t, fix.jobs, nil, goodID, missingID, archivedID)

	processed, err := fix.processor.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if !processed {
		t.Fatalf("expected the job to run")
	}

	// The batch ran to completion; unresolvable leads are recorded, not fatal.
	if fix.jobs.jobs[job.ID].Status != enums.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", fix.jobs.jobs[job.ID].Status)
	}

	batch, _ := fix.jobs.BatchLeads(context.Background(), job.ID)
	outcomes := map[uuid.UUID]enums.LeadOutcomeStatus{}
	for _, item := range batch {
		if item.Outcome != nil {
			outcomes[item.LeadID] = *item.Outcome
		}
	}
	if outcomes[goodID] != enums.LeadOutcomeMoved {
		t.Fatalf("expected moved outcome for resolvable lead, got %s", outcomes[goodID])
	}
	if outcomes[missingID] != enums.LeadOutcomeSkipped {
		t.Fatalf("expected skipped outcome for missing lead, got %s", outcomes[missingID])
	}
	if outcomes[archivedID] != enums.LeadOutcomeMoved {
		t.Fatalf("expected moved outcome for archived lead, got %s", outcomes[archivedID])
	}
	if fix.leads.leads[archivedID].Archived {
		t.Fatalf("moving an archived lead must clear the archived flag")
	}

	if len(fix.history.entries) != 2 {
		t.Fatalf("each moved lead gets a ledger entry, got %d", len(fix.history.entries))
	}
}

func TestProcessNextRevivesArchivedLeads(t *testing.T) {
	fix := newProcessorFixture(t)

	leadID := uuid.New()
	queueID := uuid.New()
	fix.leads.leads[leadID] = &models.Lead{ID: leadID, Archived: true}
	submitJob(t, fix.jobs, &queueID, leadID)

	if _, err := fix.processor.ProcessNext(context.Background()); err != nil {
		t.Fatalf("process next: %v", err)
	}

	lead := fix.leads.leads[leadID]
	if lead.Archived {
		t.Fatalf("archived lead must be revived by the move")
	}
	if lead.QueueID == nil || *lead.QueueID != queueID {
		t.Fatalf("archived lead must land in the target queue, got %+v", lead.QueueID)
	}
}

func TestProcessNextOldestFirst(t *testing.T) {
	fix := newProcessorFixture(t)

	firstLead := uuid.New()
	secondLead := uuid.New()
	fix.leads.leads[firstLead] = &models.Lead{ID: firstLead}
	fix.leads.leads[secondLead] = &models.Lead{ID: secondLead}

	first := submitJob(t, fix.jobs, nil, firstLead)
	fix.jobs.jobs[first.ID].CreatedAt = time.Now().Add(-time.Hour)
	second := submitJob(t, fix.jobs, nil, secondLead)

	if _, err := fix.processor.ProcessNext(context.Background()); err != nil {
		t.Fatalf("process next: %v", err)
	}
	if fix.jobs.jobs[first.ID].Status != enums.JobStatusCompleted {
		t.Fatalf("oldest job must run first")
	}
	if fix.jobs.jobs[second.ID].Status != enums.JobStatusPending {
		t.Fatalf("newer job must stay pending")
	}
}
