package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Helper to write a temp config file
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGetConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		wantError bool
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name: "full_config",
			content: `
api_base_url = "https://market.example.com/api"
ws_base_url = "wss://market.example.com"
user_id = "U1"
user_name = "Ada"
auth_token = "tok"
tick_interval = "2s"
request_timeout = "5s"
`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, "https://market.example.com/api", cfg.APIBaseURL)
				require.Equal(t, "wss://market.example.com", cfg.WSBaseURL)
				require.Equal(t, "U1", cfg.UserID)
				require.Equal(t, 2*time.Second, cfg.TickInterval)
				require.Equal(t, 5*time.Second, cfg.RequestTimeout)
			},
		},
		{
			name:    "defaults_applied",
			content: "user_id = \"U1\"\nauth_token = \"tok\"\n",
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
				require.Equal(t, "ws://localhost:8080", cfg.WSBaseURL)
				require.Equal(t, time.Second, cfg.TickInterval)
				require.Equal(t, 10*time.Second, cfg.RequestTimeout)
			},
		},
		{name: "missing_auth_token", content: "user_id = \"U1\"\n", wantError: true},
		{name: "missing_user_id", content: "auth_token = \"tok\"\n", wantError: true},
		{name: "unparsable_tick_interval", content: "user_id = \"U1\"\nauth_token = \"tok\"\ntick_interval = \"soon\"\n", wantError: true},
		{name: "tick_interval_too_short", content: "user_id = \"U1\"\nauth_token = \"tok\"\ntick_interval = \"10ms\"\n", wantError: true},
		{name: "negative_request_timeout", content: "user_id = \"U1\"\nauth_token = \"tok\"\nrequest_timeout = \"-1s\"\n", wantError: true},
		{name: "invalid_toml", content: "user_id = \n", wantError: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := GetConfig(writeConfig(t, tc.content))
			if tc.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestGetConfig_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := GetConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
