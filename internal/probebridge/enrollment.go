package probebridge

import (
	"strings"
	"time"

	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/store"
)

const deviceAuthTTL = 15 * time.Minute

// InitiateDeviceAuthResult is the response shape for POST /api/auth/device
// (spec.md section 4.4 step 1).
type InitiateDeviceAuthResult struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	PollInterval    int    `json:"poll_interval"`
}

func (b *Bridge) InitiateDeviceAuth(verificationURI string) (*InitiateDeviceAuthResult, error) {
	req, err := b.store.CreateDeviceAuth(deviceAuthTTL)
	if err != nil {
		return nil, err
	}
	return &InitiateDeviceAuthResult{
		DeviceCode:      req.DeviceCode,
		UserCode:        req.UserCode,
		VerificationURI: verificationURI,
		ExpiresIn:       int(deviceAuthTTL.Seconds()),
		PollInterval:    5,
	}, nil
}

// AuthorizeDeviceAuth is step 2: an already-authenticated user submits the
// user_code they see on the probe's terminal.
func (b *Bridge) AuthorizeDeviceAuth(userCode string, userID int64) error {
	return b.store.AuthorizeDeviceAuth(userCode, userID)
}

const (
	pollErrorPending = "authorization_pending"
	pollErrorExpired = "expired_token"
	pollErrorInvalid = "invalid_device_code"

	deviceTokenPrefix = "lmp_"
)

// PollTokenResult is the response shape for POST /api/auth/token.
type PollTokenResult struct {
	AccessToken string `json:"access_token,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// PollDeviceToken implements step 3: the probe polls until the device code
// is authorized, expired, or unknown.
func (b *Bridge) PollDeviceToken(deviceCode string) (*PollTokenResult, error) {
	req, err := b.store.GetDeviceAuth(deviceCode)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return &PollTokenResult{Error: pollErrorInvalid}, nil
	}
	if time.Now().After(req.ExpiresAt) {
		return &PollTokenResult{Error: pollErrorExpired}, nil
	}
	if req.Status != model.DeviceAuthStatusAuthorized || req.AuthorizedBy == nil {
		return &PollTokenResult{Error: pollErrorPending}, nil
	}

	device, err := b.store.CreateProbeDevice(*req.AuthorizedBy, "")
	if err != nil {
		return nil, err
	}
	return &PollTokenResult{AccessToken: deviceTokenPrefix + device.Token, UserID: device.UserID}, nil
}

// AuthenticateDevice resolves a bearer token to its ProbeDevice, the
// authorization step every probe-bearer route runs first.
func (b *Bridge) AuthenticateDevice(token string) (*model.ProbeDevice, error) {
	if !strings.HasPrefix(token, deviceTokenPrefix) {
		return nil, nil
	}
	device, err := b.store.GetProbeDeviceByToken(strings.TrimPrefix(token, deviceTokenPrefix))
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return device, nil
}
