package worker

import (
	"context"
)

// Worker is a long-running background job managed by the WorkerManager.
type Worker interface {
	// Start runs the worker until its work is exhausted, Stop is called
	// or ctx is cancelled.
	Start(ctx context.Context) error

	// Stop signals the worker to finish.
	Stop() error

	// Name identifies the worker in logs.
	Name() string
}
