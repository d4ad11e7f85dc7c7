package probeagent

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLoadConfig_ReturnsNilWhenNeverLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()

	assert.Equal(t, nil, err)
	var want *Config
	assert.Equal(t, want, cfg)
}

func TestSaveConfigThenLoadConfig_RoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := SaveConfig(Config{APIBase: "https://api.example.com", AccessToken: "lmp_abc", UserID: 7})
	assert.Equal(t, nil, err)

	cfg, err := LoadConfig()
	assert.Equal(t, nil, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBase)
	assert.Equal(t, "lmp_abc", cfg.AccessToken)
	assert.Equal(t, int64(7), cfg.UserID)
}

func TestClearToken_KeepsAPIBaseButDropsCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, nil, SaveConfig(Config{APIBase: "https://api.example.com", AccessToken: "lmp_abc", UserID: 7}))

	assert.Equal(t, nil, ClearToken())

	cfg, err := LoadConfig()
	assert.Equal(t, nil, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBase)
	assert.Equal(t, "", cfg.AccessToken)
	assert.Equal(t, int64(0), cfg.UserID)
}

func TestClearToken_NoopWhenNeverLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, nil, ClearToken())
}
