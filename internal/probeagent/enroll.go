package probeagent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type initiateDeviceAuthResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	PollInterval    int    `json:"poll_interval"`
}

type pollTokenResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Login runs the device-code enrollment flow against apiBase: it prints the
// user_code for the caller to type into the coordinator's web page, then
// polls until authorized, expired, or rejected, saving the resulting bearer
// token to config.json (spec.md section 4.4/6).
func Login(apiBase string, announce func(userCode, verificationURI string)) error {
	client := &http.Client{Timeout: 15 * time.Second}

	resp, err := client.Post(apiBase+"/api/auth/device", "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("initiate device auth: %w", err)
	}
	var init initiateDeviceAuthResponse
	err = json.NewDecoder(resp.Body).Decode(&init)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("decode device auth response: %w", err)
	}

	announce(init.UserCode, init.VerificationURI)

	interval := time.Duration(init.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(init.ExpiresIn) * time.Second)

	for time.Now().Before(deadline) {
		time.Sleep(interval)

		body, _ := json.Marshal(map[string]string{"device_code": init.DeviceCode})
		resp, err := client.Post(apiBase+"/api/auth/token", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("poll device token: %w", err)
		}
		var poll pollTokenResponse
		err = json.NewDecoder(resp.Body).Decode(&poll)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode poll response: %w", err)
		}

		switch poll.Error {
		case "":
			return SaveConfig(Config{APIBase: apiBase, AccessToken: poll.AccessToken, UserID: poll.UserID})
		case "authorization_pending":
			continue
		case "expired_token":
			return fmt.Errorf("device code expired before authorization")
		default:
			return fmt.Errorf("device auth failed: %s", poll.Error)
		}
	}
	return fmt.Errorf("device code expired before authorization")
}
