package configuration

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the watcher settings after parsing and validation.
type Config struct {
	APIBaseURL     string
	WSBaseURL      string
	UserID         string
	UserName       string
	AuthToken      string
	TickInterval   time.Duration
	RequestTimeout time.Duration
}

type tomlConfig struct {
	APIBaseURL     string `toml:"api_base_url"`
	WSBaseURL      string `toml:"ws_base_url"`
	UserID         string `toml:"user_id"`
	UserName       string `toml:"user_name"`
	AuthToken      string `toml:"auth_token"`
	TickInterval   string `toml:"tick_interval"`
	RequestTimeout string `toml:"request_timeout"`
}

// GetConfig reads and validates the TOML config file at path.
func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return nil, fmt.Errorf("failed to decode toml file with path %s: %w", path, err)
	}

	if tc.APIBaseURL == "" {
		tc.APIBaseURL = "http://localhost:8080/api"
	}
	if tc.WSBaseURL == "" {
		tc.WSBaseURL = "ws://localhost:8080"
	}
	if tc.AuthToken == "" {
		return nil, fmt.Errorf("auth_token is not set")
	}
	if tc.UserID == "" {
		return nil, fmt.Errorf("user_id is not set")
	}

	tickInterval := time.Second
	if tc.TickInterval != "" {
		parsed, err := time.ParseDuration(tc.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tick_interval: %w", err)
		}
		if parsed < 100*time.Millisecond {
			return nil, fmt.Errorf("tick_interval too short (%v), minimum interval: 100ms", parsed)
		}
		tickInterval = parsed
	}

	requestTimeout := 10 * time.Second
	if tc.RequestTimeout != "" {
		parsed, err := time.ParseDuration(tc.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse request_timeout: %w", err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("request_timeout must be positive, got %v", parsed)
		}
		requestTimeout = parsed
	}

	return &Config{
		APIBaseURL:     tc.APIBaseURL,
		WSBaseURL:      tc.WSBaseURL,
		UserID:         tc.UserID,
		UserName:       tc.UserName,
		AuthToken:      tc.AuthToken,
		TickInterval:   tickInterval,
		RequestTimeout: requestTimeout,
	}, nil
}
