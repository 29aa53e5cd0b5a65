package sched

import (
	"context"
	"fmt"
)

// CheckpointRecomputer is the checkpoint operation the recompute job drives.
type CheckpointRecomputer interface {
	RecomputeDue(ctx context.Context) (int, error)
}

// CheckpointRecomputeJob refreshes health snapshots for every agent whose
// scheduled checkpoint time has elapsed.
type CheckpointRecomputeJob struct {
	checkpoints CheckpointRecomputer
}

// NewCheckpointRecomputeJob builds the recompute job.
func NewCheckpointRecomputeJob(checkpoints CheckpointRecomputer) (*CheckpointRecomputeJob, error) {
	if checkpoints == nil {
		return nil, fmt.Errorf("checkpoint service required")
	}
	return &CheckpointRecomputeJob{checkpoints: checkpoints}, nil
}

// Name identifies the job in logs and metrics.
func (j *CheckpointRecomputeJob) Name() string {
	return "checkpoint-recompute"
}

// Run performs one sweep.
func (j *CheckpointRecomputeJob) Run(ctx context.Context) error {
	_, err := j.checkpoints.RecomputeDue(ctx)
	return err
}
