package reqctx

import (
	"context"
	"fmt"
	"time"
)

type key int

const runKey key = 0

// Run identifies one crawl run.
type Run struct {
	ID        string
	StartTime time.Time
}

// WithRun attaches run to ctx.
func WithRun(ctx context.Context, id string, start time.Time) context.Context {
	return context.WithValue(ctx, runKey, Run{ID: id, StartTime: start})
}

// FromContext returns the run attached to ctx, if any.
func FromContext(ctx context.Context) (Run, bool) {
	r, ok := ctx.Value(runKey).(Run)
	return r, ok
}

// RunID returns the run ID in ctx or "unknown".
func RunID(ctx context.Context) string {
	if r, ok := FromContext(ctx); ok {
		return r.ID
	}
	return "unknown"
}

// RunError wraps an error with the run it happened in
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[run %s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError wraps err with the run ID from ctx. A nil err stays nil.
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{RunID: RunID(ctx), Err: err}
}
