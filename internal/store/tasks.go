package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/reorx/linkmind/internal/model"
)

// CreateTask persists a new PipelineTask in the queued state. The Redis
// queue entry is pushed separately by taskqueue.Runtime.Spawn once this
// call succeeds, so Postgres stays the single source of truth for whether a
// task exists at all (spec.md section 4.1/4.2).
func (s *Store) CreateTask(id, queue, kind string, params []byte, opts model.SpawnOptions) (*model.PipelineTask, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	retry := opts.RetryStrategy
	if retry.Kind == "" {
		retry.Kind = model.RetryKindFixed
	}

	t := model.PipelineTask{
		ID:            id,
		Queue:         queue,
		Kind:          kind,
		Params:        params,
		StepResults:   map[string][]byte{},
		MaxAttempts:   maxAttempts,
		RetryStrategy: retry,
		State:         model.TaskStateQueued,
	}
	err := s.db.QueryRow(`
		INSERT INTO pipeline_tasks(
			id, queue, kind, params, step_results, attempt_count, max_attempts,
			retry_kind, retry_base_seconds, retry_factor, retry_max_seconds, state
		) VALUES($1, $2, $3, $4, '{}', 0, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, t.ID, t.Queue, t.Kind, t.Params, t.MaxAttempts,
		retry.Kind, retry.BaseSeconds, retry.Factor, retry.MaxSeconds, t.State,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, classifyPGError(err)
	}
	return &t, nil
}

func scanTask(row interface{ Scan(...interface{}) error }) (*model.PipelineTask, error) {
	var t model.PipelineTask
	var stepResultsRaw, resultRaw []byte
	var claimedUntil sql.NullTime
	err := row.Scan(
		&t.ID, &t.Queue, &t.Kind, &t.Params, &stepResultsRaw,
		&t.AttemptCount, &t.MaxAttempts,
		&t.RetryStrategy.Kind, &t.RetryStrategy.BaseSeconds, &t.RetryStrategy.Factor, &t.RetryStrategy.MaxSeconds,
		&t.State, &t.LastError, &resultRaw, &t.ClaimedBy, &claimedUntil,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.StepResults = map[string][]byte{}
	if len(stepResultsRaw) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(stepResultsRaw, &raw); err == nil {
			for k, v := range raw {
				t.StepResults[k] = []byte(v)
			}
		}
	}
	if len(resultRaw) > 0 {
		t.Result = resultRaw
	}
	if claimedUntil.Valid {
		t.ClaimedUntil = &claimedUntil.Time
	}
	return &t, nil
}

const taskColumns = `id, queue, kind, params, step_results, attempt_count, max_attempts,
	retry_kind, retry_base_seconds, retry_factor, retry_max_seconds,
	state, last_error, result, claimed_by, claimed_until, created_at, updated_at`

func (s *Store) GetTask(id string) (*model.PipelineTask, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM pipeline_tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return t, nil
}

// ClaimTask records that a worker has picked up a task off the Redis queue
// and stamps a lease, but does not touch attempt_count: a lease claim is not
// itself an attempt, only a handler failure is (spec.md section 4.2 -- a
// lease expiry returns the task to the queue "without counting as a
// failure"). The Redis pop is what actually arbitrates which worker wins;
// this call just makes that outcome durable.
func (s *Store) ClaimTask(id, workerID string, leaseUntil time.Time) (*model.PipelineTask, error) {
	res, err := s.db.Exec(`
		UPDATE pipeline_tasks
		SET state = $1, claimed_by = $2, claimed_until = $3, updated_at = now()
		WHERE id = $4
	`, model.TaskStateClaimed, workerID, leaseUntil, id)
	if err != nil {
		return nil, classifyPGError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, classifyPGError(err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTask(id)
}

// SaveStepResult memoizes one step's output onto the task row so a retried
// attempt can skip straight past it (spec.md section 4.2's ctx.Step
// contract).
func (s *Store) SaveStepResult(id, stepName string, result []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return classifyPGError(err)
	}
	defer tx.Rollback()

	var raw []byte
	if err := tx.QueryRow(`SELECT step_results FROM pipeline_tasks WHERE id = $1 FOR UPDATE`, id).Scan(&raw); err != nil {
		return classifyPGError(err)
	}

	results := map[string]json.RawMessage{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &results)
	}
	results[stepName] = json.RawMessage(result)

	merged, err := json.Marshal(results)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE pipeline_tasks SET step_results = $1, updated_at = now() WHERE id = $2`, merged, id); err != nil {
		return classifyPGError(err)
	}
	return classifyPGError(tx.Commit())
}

func (s *Store) CompleteTask(id string, result []byte) error {
	_, err := s.db.Exec(`
		UPDATE pipeline_tasks SET state = $1, result = $2, updated_at = now() WHERE id = $3
	`, model.TaskStateCompleted, result, id)
	return classifyPGError(err)
}

// FailTask records a failed handler attempt, incrementing attempt_count.
// requeue distinguishes a transient failure that should return to the queue
// (state becomes queued so the next worker retries) from a terminal one
// (state becomes failed, once maxAttempts is exhausted).
func (s *Store) FailTask(id, errMsg string, requeue bool) error {
	state := model.TaskStateFailed
	if requeue {
		state = model.TaskStateQueued
	}
	_, err := s.db.Exec(`
		UPDATE pipeline_tasks
		SET state = $1, last_error = $2, attempt_count = attempt_count + 1,
		    claimed_by = '', claimed_until = NULL, updated_at = now()
		WHERE id = $3
	`, state, truncateError(errMsg), id)
	return classifyPGError(err)
}

// ReclaimExpired finds every task still marked claimed whose lease has
// passed and returns it to the queue without touching attempt_count,
// returning the ids so the caller can push them back onto the live Redis
// list.
func (s *Store) ReclaimExpired(queue string, now time.Time) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT id FROM pipeline_tasks
		WHERE queue = $1 AND state = $2 AND claimed_until IS NOT NULL AND claimed_until < $3
	`, queue, model.TaskStateClaimed, now)
	if err != nil {
		return nil, classifyPGError(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, classifyPGError(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classifyPGError(err)
	}

	for _, id := range ids {
		if _, err := s.db.Exec(`
			UPDATE pipeline_tasks
			SET state = $1, claimed_by = '', claimed_until = NULL, updated_at = now()
			WHERE id = $2
		`, model.TaskStateQueued, id); err != nil {
			return nil, classifyPGError(err)
		}
	}
	return ids, nil
}

func (s *Store) CancelTask(id string) error {
	_, err := s.db.Exec(`
		UPDATE pipeline_tasks SET state = $1, updated_at = now() WHERE id = $2
	`, model.TaskStateCancelled, id)
	return classifyPGError(err)
}

// ListRetryable returns up to limit tasks of a queue parked in the failed
// state, oldest first.
func (s *Store) ListRetryable(queue string, limit int) ([]model.PipelineTask, error) {
	rows, err := s.db.Query(`
		SELECT `+taskColumns+` FROM pipeline_tasks
		WHERE queue = $1 AND state = $2
		ORDER BY updated_at ASC LIMIT $3
	`, queue, model.TaskStateFailed, limit)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	var tasks []model.PipelineTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, classifyPGError(err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, classifyPGError(rows.Err())
}

// RequeueTask resets a failed task back to queued with a clean attempt
// count; Runtime.Requeue calls it.
func (s *Store) RequeueTask(id string) error {
	_, err := s.db.Exec(`
		UPDATE pipeline_tasks
		SET state = $1, attempt_count = 0, last_error = '', updated_at = now()
		WHERE id = $2
	`, model.TaskStateQueued, id)
	return classifyPGError(err)
}
