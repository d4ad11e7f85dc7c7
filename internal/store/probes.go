package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reorx/linkmind/internal/model"
)

func (s *Store) CreateProbeEvent(userID, linkID int64, url, urlKind string) (*model.ProbeEvent, error) {
	e := model.ProbeEvent{
		ID:      uuid.NewString(),
		UserID:  userID,
		LinkID:  linkID,
		URL:     url,
		URLKind: urlKind,
		Status:  model.ProbeEventStatusPending,
	}
	err := s.db.QueryRow(`
		INSERT INTO probe_events(id, user_id, link_id, url, url_kind, status)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.UserID, e.LinkID, e.URL, e.URLKind, e.Status).Scan(&e.CreatedAt)
	if err != nil {
		return nil, classifyPGError(err)
	}
	return &e, nil
}

func scanProbeEvent(row interface{ Scan(...interface{}) error }) (*model.ProbeEvent, error) {
	var e model.ProbeEvent
	var resultRaw []byte
	var errMsg sql.NullString
	err := row.Scan(&e.ID, &e.UserID, &e.LinkID, &e.URL, &e.URLKind, &e.Status,
		&resultRaw, &errMsg, &e.CreatedAt, &e.SentAt, &e.CompletedAt)
	if err != nil {
		return nil, err
	}
	if len(resultRaw) > 0 {
		var data model.ScrapeData
		if err := json.Unmarshal(resultRaw, &data); err == nil {
			e.Result = &data
		}
	}
	e.Error = errMsg.String
	return &e, nil
}

const probeEventColumns = `id, user_id, link_id, url, url_kind, status, result, error, created_at, sent_at, completed_at`

func (s *Store) GetProbeEvent(id string) (*model.ProbeEvent, error) {
	row := s.db.QueryRow(`SELECT `+probeEventColumns+` FROM probe_events WHERE id = $1`, id)
	e, err := scanProbeEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return e, nil
}

// SetProbeEventStatus transitions a ProbeEvent's status, stamping sent_at or
// completed_at as appropriate and requiring a result payload whenever the
// new status is completed (spec.md's invariant: a completed ProbeEvent
// always carries a result and a completed timestamp).
func (s *Store) SetProbeEventStatus(id, status string, result *model.ScrapeData, errMsg string) error {
	var resultRaw []byte
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		resultRaw = b
	}

	switch status {
	case model.ProbeEventStatusSent:
		_, err := s.db.Exec(`UPDATE probe_events SET status = $1, sent_at = now() WHERE id = $2`, status, id)
		return classifyPGError(err)
	case model.ProbeEventStatusCompleted:
		if result == nil {
			return fmt.Errorf("%w: completed probe event %s has no result", ErrConstraintViolation, id)
		}
		_, err := s.db.Exec(`
			UPDATE probe_events SET status = $1, result = $2, completed_at = now() WHERE id = $3
		`, status, resultRaw, id)
		return classifyPGError(err)
	case model.ProbeEventStatusError:
		_, err := s.db.Exec(`
			UPDATE probe_events SET status = $1, error = $2, completed_at = now() WHERE id = $3
		`, status, truncateError(errMsg), id)
		return classifyPGError(err)
	default:
		_, err := s.db.Exec(`UPDATE probe_events SET status = $1 WHERE id = $2`, status, id)
		return classifyPGError(err)
	}
}

// ListPendingProbeEvents returns every pending event for a user in creation
// order, used both by Bridge.Subscribe's replay-on-connect and by the
// GET /api/probe/status pending count.
func (s *Store) ListPendingProbeEvents(userID int64) ([]model.ProbeEvent, error) {
	rows, err := s.db.Query(`
		SELECT `+probeEventColumns+` FROM probe_events
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at ASC
	`, userID, model.ProbeEventStatusPending)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	var events []model.ProbeEvent
	for rows.Next() {
		e, err := scanProbeEvent(rows)
		if err != nil {
			return nil, classifyPGError(err)
		}
		events = append(events, *e)
	}
	return events, classifyPGError(rows.Err())
}

// ExpireStaleProbeEvents implements the expiry supplement in SPEC_FULL.md
// section 12: any pending/sent event older than ttl is marked error, and
// its still-waiting Link is marked error too.
func (s *Store) ExpireStaleProbeEvents(now time.Time, ttl time.Duration) (int, error) {
	cutoff := now.Add(-ttl)
	rows, err := s.db.Query(`
		SELECT id, link_id FROM probe_events
		WHERE status IN ($1, $2) AND created_at < $3
	`, model.ProbeEventStatusPending, model.ProbeEventStatusSent, cutoff)
	if err != nil {
		return 0, classifyPGError(err)
	}
	type pair struct {
		id     string
		linkID int64
	}
	var stale []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.id, &p.linkID); err != nil {
			rows.Close()
			return 0, classifyPGError(err)
		}
		stale = append(stale, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, classifyPGError(err)
	}

	const expiredMsg = "probe event expired"
	for _, p := range stale {
		if err := s.SetProbeEventStatus(p.id, model.ProbeEventStatusError, nil, expiredMsg); err != nil {
			return 0, err
		}
		link, err := s.GetLink(p.linkID)
		if err == nil && link != nil && link.Status == model.LinkStatusWaitingProbe {
			errMsg := expiredMsg
			status := model.LinkStatusError
			_ = s.UpdateLinkFields(p.linkID, model.LinkPartial{Status: &status, Error: &errMsg})
		}
	}
	return len(stale), nil
}
