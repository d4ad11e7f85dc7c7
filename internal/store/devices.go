package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/reorx/linkmind/internal/model"
)

// newDeviceToken produces the 32 hex characters that follow the "lmp_"
// prefix in a bearer token, per spec.md section 8's ^lmp_[0-9a-f]{32}$.
func newDeviceToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *Store) CreateProbeDevice(userID int64, displayName string) (*model.ProbeDevice, error) {
	token, err := newDeviceToken()
	if err != nil {
		return nil, err
	}
	d := model.ProbeDevice{
		ID:          uuid.NewString(),
		UserID:      userID,
		Token:       token,
		DisplayName: displayName,
	}
	err = s.db.QueryRow(`
		INSERT INTO probe_devices(id, user_id, token, display_name)
		VALUES($1, $2, $3, $4)
		RETURNING created_at
	`, d.ID, d.UserID, d.Token, d.DisplayName).Scan(&d.CreatedAt)
	if err != nil {
		return nil, classifyPGError(err)
	}
	return &d, nil
}

func scanProbeDevice(row interface{ Scan(...interface{}) error }) (*model.ProbeDevice, error) {
	var d model.ProbeDevice
	var lastSeen sql.NullTime
	err := row.Scan(&d.ID, &d.UserID, &d.Token, &d.DisplayName, &lastSeen, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		d.LastSeenAt = lastSeen.Time
	}
	return &d, nil
}

const probeDeviceColumns = `id, user_id, token, display_name, last_seen_at, created_at`

func (s *Store) GetProbeDeviceByToken(token string) (*model.ProbeDevice, error) {
	row := s.db.QueryRow(`SELECT `+probeDeviceColumns+` FROM probe_devices WHERE token = $1`, token)
	d, err := scanProbeDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return d, nil
}

func (s *Store) ListProbeDevices(userID int64) ([]model.ProbeDevice, error) {
	rows, err := s.db.Query(`SELECT `+probeDeviceColumns+` FROM probe_devices WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	var devices []model.ProbeDevice
	for rows.Next() {
		d, err := scanProbeDevice(rows)
		if err != nil {
			return nil, classifyPGError(err)
		}
		devices = append(devices, *d)
	}
	return devices, classifyPGError(rows.Err())
}

func (s *Store) TouchProbeDevice(id string) error {
	_, err := s.db.Exec(`UPDATE probe_devices SET last_seen_at = now() WHERE id = $1`, id)
	return classifyPGError(err)
}

// RotateProbeDeviceToken implements the supplement in SPEC_FULL.md section
// 12: a device can invalidate its current bearer token and receive a fresh
// one without re-running the enrollment flow.
func (s *Store) RotateProbeDeviceToken(id string) (string, error) {
	token, err := newDeviceToken()
	if err != nil {
		return "", err
	}
	res, err := s.db.Exec(`UPDATE probe_devices SET token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return "", classifyPGError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", classifyPGError(err)
	}
	if n == 0 {
		return "", ErrNotFound
	}
	return token, nil
}
