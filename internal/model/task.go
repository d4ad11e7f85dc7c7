package model

import "time"

const (
	TaskStateQueued    = "queued"
	TaskStateClaimed   = "claimed"
	TaskStateCompleted = "completed"
	TaskStateFailed    = "failed"
	TaskStateCancelled = "cancelled"
)

const (
	RetryKindExponential = "exponential"
	RetryKindFixed       = "fixed"
)

// RetryStrategy configures how a task spawned by taskqueue.Runtime.Spawn backs off between
// attempts. Only one of the two kinds is meaningful at a time.
type RetryStrategy struct {
	Kind       string
	BaseSeconds int
	Factor      float64
	MaxSeconds  int
}

// SpawnOptions mirrors the runtime contract in spec.md section 4.2.
type SpawnOptions struct {
	MaxAttempts   int
	RetryStrategy RetryStrategy
}

// PipelineTask is a persisted unit of durable work. StepResults holds the
// memoized return value of every step that has completed at least once,
// keyed by step name; it is opaque JSON to everything except the step that
// produced it.
type PipelineTask struct {
	ID            string
	Queue         string
	Kind          string
	Params        []byte
	StepResults   map[string][]byte
	AttemptCount  int
	MaxAttempts   int
	RetryStrategy RetryStrategy
	State         string
	LastError     string
	Result        []byte
	ClaimedBy     string
	ClaimedUntil  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
