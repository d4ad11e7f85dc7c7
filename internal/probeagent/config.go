// Package probeagent is the client side of the probe channel (spec.md
// section 4.5): a long-running daemon that enrolls via the device-code
// flow, holds one subscription to the coordinator's event stream, and
// dispatches scrape_request events to local fetchers.
package probeagent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the on-disk config.json: API base, bearer token, and the user
// id the token resolves to.
type Config struct {
	APIBase     string `json:"api_base"`
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
}

// StateDir returns the per-user state directory holding config.json,
// probe.pid, and probe.log (spec.md section 6).
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".linkmind-probe")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

func configPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func pidPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "probe.pid"), nil
}

func logPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "probe.log"), nil
}

// LoadConfig reads config.json. It returns (nil, nil) if the probe has
// never logged in.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func SaveConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ClearToken implements `logout`: the config stays on disk so api_base
// survives, but the token no longer authenticates anything.
func ClearToken() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	cfg.AccessToken = ""
	cfg.UserID = 0
	return SaveConfig(*cfg)
}
