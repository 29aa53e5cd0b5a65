package sched

import (
	"context"
	"fmt"
)

// BatchProcessor is the redistribution operation the drain job drives.
type BatchProcessor interface {
	ProcessNext(ctx context.Context) (bool, error)
}

// RedistributionDrainJob runs pending redistribution batches until the queue
// is empty for this cycle.
type RedistributionDrainJob struct {
	processor BatchProcessor
}

// NewRedistributionDrainJob builds the drain job.
func NewRedistributionDrainJob(processor BatchProcessor) (*RedistributionDrainJob, error) {
	if processor == nil {
		return nil, fmt.Errorf("batch processor required")
	}
	return &RedistributionDrainJob{processor: processor}, nil
}

// Name identifies the job in logs and metrics.
func (j *RedistributionDrainJob) Name() string {
	return "redistribution-drain"
}

// Run processes jobs until none are pending. A batch-level fault ends this
// cycle; the failed job row already carries its error and the next cycle
// picks up the rest of the queue.
func (j *RedistributionDrainJob) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		processed, err := j.processor.ProcessNext(ctx)
		if err != nil {
			return err
		}
		if !processed {
			return nil
		}
	}
}
