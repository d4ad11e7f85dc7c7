package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reorx/linkmind/internal/store"
)

// StepContext is what a handler's ctx.Step calls run against: the memoized
// key/value log for one task plus the ambient context.Context for
// cancellation-aware I/O.
type StepContext struct {
	ctx    context.Context
	taskID string
	store  *store.Store
}

func (c *StepContext) Context() context.Context { return c.ctx }
func (c *StepContext) TaskID() string            { return c.taskID }
func (c *StepContext) Store() *store.Store       { return c.store }

// Step runs fn at most once per task, keyed by name: spec.md section 4.2.
// If the step already has a memoized result for this task it is decoded and
// returned without calling fn. Otherwise fn runs, its return value is
// persisted, and then returned.
func Step[T any](c *StepContext, name string, fn func() (T, error)) (T, error) {
	var zero T

	task, err := c.store.GetTask(c.taskID)
	if err != nil {
		return zero, fmt.Errorf("step %s: load task: %w", name, err)
	}
	if raw, ok := task.StepResults[name]; ok {
		var memoized T
		if err := json.Unmarshal(raw, &memoized); err != nil {
			return zero, fmt.Errorf("step %s: decode memoized result: %w", name, err)
		}
		return memoized, nil
	}

	result, err := fn()
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return zero, fmt.Errorf("step %s: encode result: %w", name, err)
	}
	if err := c.store.SaveStepResult(c.taskID, name, raw); err != nil {
		return zero, fmt.Errorf("step %s: persist memoized result: %w", name, err)
	}
	return result, nil
}
