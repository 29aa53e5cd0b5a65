package sched

import (
	"context"
	"fmt"
)

// RotationTicker is the rotation operation the tick job drives.
type RotationTicker interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// RotationTickJob sweeps assigned leads whose attendance window lapsed back
// into the unassigned pool.
type RotationTickJob struct {
	scheduler RotationTicker
}

// NewRotationTickJob builds the rotation tick job.
func NewRotationTickJob(scheduler RotationTicker) (*RotationTickJob, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("rotation scheduler required")
	}
	return &RotationTickJob{scheduler: scheduler}, nil
}

// Name identifies the job in logs and metrics.
func (j *RotationTickJob) Name() string {
	return "rotation-tick"
}

// Run performs one sweep.
func (j *RotationTickJob) Run(ctx context.Context) error {
	_, err := j.scheduler.ExpireOverdue(ctx)
	return err
}
