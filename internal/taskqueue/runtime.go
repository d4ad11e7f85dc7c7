// Package taskqueue is the Durable Task Runtime: a Redis-backed job queue
// with per-step memoization persisted through the Store Gateway, in the
// shape of the teacher's cmd/transformer worker loop generalized from one
// hardcoded queue into a registry of named task kinds.
package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/reorx/linkmind/internal/dbconn"
	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/store"
)

// Handler is a registered task kind's entry point. params is the raw JSON
// the task was spawned with; the returned bytes become the task's final
// result.
type Handler func(ctx *StepContext, params json.RawMessage) ([]byte, error)

// Suspend, when a handler returns it, makes the runtime complete the task
// as if the handler had returned nil. The pipeline's probe-required
// sub-path does not return it: it returns a nil error with a waiting_probe
// result instead.
var Suspend = errors.New("taskqueue: suspended pending probe result")

const (
	defaultClaimTimeout = 5 * time.Minute
	defaultPopTimeout   = 5 * time.Second
	reclaimInterval     = 30 * time.Second
)

// Runtime binds task kinds to handlers and runs worker pools over them. All
// durable state lives in the Store Gateway; Redis only orders who gets to
// claim what next.
type Runtime struct {
	store    *store.Store
	rdb      *redis.Client
	handlers map[string]registeredHandler
}

type registeredHandler struct {
	queue   string
	kind    string
	handler Handler
}

func New(st *store.Store, rdb *redis.Client) *Runtime {
	return &Runtime{
		store:    st,
		rdb:      rdb,
		handlers: map[string]registeredHandler{},
	}
}

// Register binds a task kind to its handler. Kinds must be unique across
// the whole runtime regardless of queue.
func (r *Runtime) Register(queue, kind string, h Handler) {
	r.handlers[kind] = registeredHandler{queue: queue, kind: kind, handler: h}
}

// Spawn enqueues a new task: spec.md section 4.2's spawn(kind, params, opts).
func (r *Runtime) Spawn(ctx context.Context, kind string, params interface{}, opts model.SpawnOptions) (string, error) {
	reg, ok := r.handlers[kind]
	if !ok {
		return "", fmt.Errorf("taskqueue: unknown kind %q", kind)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal spawn params: %w", err)
	}

	id := uuid.NewString()
	if _, err := r.store.CreateTask(id, reg.queue, kind, raw, opts); err != nil {
		return "", err
	}

	key := dbconn.QueueKey(reg.queue, kind)
	if err := dbconn.PushTaskID(ctx, r.rdb, key, id); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}
	return id, nil
}

// Cancel marks a queued or claimed task cancelled. A running handler has no
// way to observe this; it simply won't be re-claimed after it returns.
func (r *Runtime) Cancel(taskID string) error {
	task, err := r.store.GetTask(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return store.ErrNotFound
	}
	if task.State != model.TaskStateQueued && task.State != model.TaskStateClaimed {
		return fmt.Errorf("taskqueue: cannot cancel task in state %q", task.State)
	}
	return r.store.CancelTask(taskID)
}

// Status reports {state, attemptCount, lastError?, result?} per spec.md
// section 4.2.
func (r *Runtime) Status(taskID string) (*model.PipelineTask, error) {
	return r.store.GetTask(taskID)
}

// RunWorkers starts n goroutines polling each registered queue/kind, plus a
// reclaim loop per kind, and returns at once; the goroutines stop when ctx
// is cancelled. n is the coordinator's configurable worker-pool
// concurrency (spec.md section 5, default 2).
func (r *Runtime) RunWorkers(ctx context.Context, n int) {
	for _, reg := range r.handlers {
		go r.runReclaimLoop(ctx, reg.queue)
		for i := 0; i < n; i++ {
			go r.runWorker(ctx, reg)
		}
	}
}

func (r *Runtime) runWorker(ctx context.Context, reg registeredHandler) {
	key := dbconn.QueueKey(reg.queue, reg.kind)
	workerID := uuid.NewString()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		taskID, err := dbconn.PopTaskID(ctx, r.rdb, key, defaultPopTimeout)
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				slog.Error("taskqueue: pop failed", "queue", reg.queue, "kind", reg.kind, "error", err)
				time.Sleep(time.Second)
			}
			continue
		}

		r.runOne(ctx, reg, taskID, workerID)
	}
}

func (r *Runtime) runOne(ctx context.Context, reg registeredHandler, taskID, workerID string) {
	if r.isCancelled(taskID) {
		return
	}
	leaseUntil := time.Now().Add(defaultClaimTimeout)
	task, err := r.store.ClaimTask(taskID, workerID, leaseUntil)
	if err != nil {
		slog.Error("taskqueue: claim failed", "task_id", taskID, "error", err)
		return
	}
	if task.State == model.TaskStateCancelled {
		return
	}

	sctx := &StepContext{ctx: ctx, taskID: taskID, store: r.store}
	result, herr := reg.handler(sctx, task.Params)

	if herr == nil {
		if err := r.store.CompleteTask(taskID, result); err != nil {
			slog.Error("taskqueue: complete failed", "task_id", taskID, "error", err)
		}
		return
	}
	if errors.Is(herr, Suspend) {
		if err := r.store.CompleteTask(taskID, result); err != nil {
			slog.Error("taskqueue: complete (suspended) failed", "task_id", taskID, "error", err)
		}
		return
	}

	if r.isCancelled(taskID) {
		return
	}
	requeue := task.AttemptCount+1 < task.MaxAttempts
	if err := r.store.FailTask(taskID, herr.Error(), requeue); err != nil {
		slog.Error("taskqueue: fail-task write failed", "task_id", taskID, "error", err)
		return
	}
	if requeue {
		delay := backoffFor(task.RetryStrategy, task.AttemptCount+1)
		delayedKey := dbconn.DelayedKey(reg.queue, reg.kind)
		if err := dbconn.PushDelayed(ctx, r.rdb, delayedKey, taskID, time.Now().Add(delay)); err != nil {
			slog.Error("taskqueue: schedule retry failed", "task_id", taskID, "error", err)
		}
	}
	slog.Warn("taskqueue: task attempt failed", "task_id", taskID, "kind", reg.kind, "error", herr, "requeue", requeue)
}

func (r *Runtime) isCancelled(taskID string) bool {
	task, err := r.store.GetTask(taskID)
	return err == nil && task != nil && task.State == model.TaskStateCancelled
}

// Requeue clears a task's failure and returns it to the queue. The retry
// admission endpoints do not call it: they spawn a fresh process-link task.
func (r *Runtime) Requeue(ctx context.Context, taskID string) error {
	task, err := r.store.GetTask(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return store.ErrNotFound
	}
	if err := r.store.RequeueTask(taskID); err != nil {
		return err
	}
	key := dbconn.QueueKey(task.Queue, task.Kind)
	return dbconn.PushTaskID(ctx, r.rdb, key, taskID)
}

// backoffFor computes the delay before the given attempt number retries,
// per spec.md section 4.2's retryStrategy shape.
func backoffFor(rs model.RetryStrategy, attempt int) time.Duration {
	base := rs.BaseSeconds
	if base <= 0 {
		base = 30
	}
	seconds := float64(base)
	if rs.Kind == model.RetryKindExponential {
		factor := rs.Factor
		if factor <= 0 {
			factor = 2
		}
		for i := 1; i < attempt; i++ {
			seconds *= factor
		}
	}
	if rs.MaxSeconds > 0 && seconds > float64(rs.MaxSeconds) {
		seconds = float64(rs.MaxSeconds)
	}
	return time.Duration(seconds) * time.Second
}

// runReclaimLoop moves due delayed retries onto the live queue and returns
// stale claims (lease expired, worker presumed dead) to the queue, per
// spec.md section 4.2's lease-expiry semantics.
func (r *Runtime) runReclaimLoop(ctx context.Context, queue string) {
	ticker := time.NewTicker(reclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reclaimOnce(ctx, queue)
		}
	}
}

func (r *Runtime) reclaimOnce(ctx context.Context, queue string) {
	for _, reg := range r.handlers {
		if reg.queue != queue {
			continue
		}
		liveKey := dbconn.QueueKey(reg.queue, reg.kind)
		delayedKey := dbconn.DelayedKey(reg.queue, reg.kind)
		if _, err := dbconn.PopDue(ctx, r.rdb, delayedKey, liveKey, time.Now()); err != nil {
			slog.Error("taskqueue: pop-due failed", "queue", reg.queue, "kind", reg.kind, "error", err)
		}
	}

	ids, err := r.store.ReclaimExpired(queue, time.Now())
	if err != nil {
		slog.Error("taskqueue: reclaim-expired failed", "queue", queue, "error", err)
		return
	}
	for _, id := range ids {
		task, err := r.store.GetTask(id)
		if err != nil || task == nil {
			continue
		}
		key := dbconn.QueueKey(task.Queue, task.Kind)
		if err := dbconn.PushTaskID(ctx, r.rdb, key, id); err != nil {
			slog.Error("taskqueue: requeue expired lease failed", "task_id", id, "error", err)
		}
	}
}
