package store

import (
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/reorx/linkmind/internal/model"
)

// userCodeAlphabet excludes I, O, 0, and 1 -- easily confused characters --
// per spec.md section 8.
const userCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newUserCode produces a short, unambiguous code a human types on the
// enrolling device, following the same shape as OAuth device-code flows.
func newUserCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, 8)
	for i, b := range buf {
		code[i] = userCodeAlphabet[int(b)%len(userCodeAlphabet)]
	}
	return string(code[:4]) + "-" + string(code[4:]), nil
}

func (s *Store) CreateDeviceAuth(ttl time.Duration) (*model.DeviceAuthRequest, error) {
	userCode, err := newUserCode()
	if err != nil {
		return nil, err
	}
	req := model.DeviceAuthRequest{
		DeviceCode: uuid.NewString(),
		UserCode:   userCode,
		Status:     model.DeviceAuthStatusPending,
		ExpiresAt:  time.Now().Add(ttl),
	}
	err = s.db.QueryRow(`
		INSERT INTO device_auth_requests(device_code, user_code, status, expires_at)
		VALUES($1, $2, $3, $4)
		RETURNING created_at
	`, req.DeviceCode, req.UserCode, req.Status, req.ExpiresAt).Scan(&req.CreatedAt)
	if err != nil {
		return nil, classifyPGError(err)
	}
	return &req, nil
}

func scanDeviceAuth(row interface{ Scan(...interface{}) error }) (*model.DeviceAuthRequest, error) {
	var r model.DeviceAuthRequest
	var authorizedBy sql.NullInt64
	err := row.Scan(&r.DeviceCode, &r.UserCode, &r.Status, &authorizedBy, &r.ExpiresAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if authorizedBy.Valid {
		r.AuthorizedBy = &authorizedBy.Int64
	}
	return &r, nil
}

const deviceAuthColumns = `device_code, user_code, status, authorized_by, expires_at, created_at`

func (s *Store) GetDeviceAuth(deviceCode string) (*model.DeviceAuthRequest, error) {
	row := s.db.QueryRow(`SELECT `+deviceAuthColumns+` FROM device_auth_requests WHERE device_code = $1`, deviceCode)
	r, err := scanDeviceAuth(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return r, nil
}

func (s *Store) GetDeviceAuthByUserCode(userCode string) (*model.DeviceAuthRequest, error) {
	row := s.db.QueryRow(`SELECT `+deviceAuthColumns+` FROM device_auth_requests WHERE user_code = $1`, userCode)
	r, err := scanDeviceAuth(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return r, nil
}

// AuthorizeDeviceAuth marks a pending request authorized by the given user,
// but only if it hasn't already expired -- a stale user-typed code should
// never bind a device to an account.
func (s *Store) AuthorizeDeviceAuth(userCode string, userID int64) error {
	res, err := s.db.Exec(`
		UPDATE device_auth_requests
		SET status = $1, authorized_by = $2
		WHERE user_code = $3 AND status = $4 AND expires_at > now()
	`, model.DeviceAuthStatusAuthorized, userID, userCode, model.DeviceAuthStatusPending)
	if err != nil {
		return classifyPGError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classifyPGError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
