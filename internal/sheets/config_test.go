package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/common"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		errMsg  string
		config  Config
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID: "id", ClientSecret: "secret", RefreshToken: "token",
				SheetTitle: "Review", BatchSize: 100, RetryAttempts: 3, RetryDelay: time.Second,
			},
		},
		{
			name: "oauth with token file",
			config: Config{
				ClientID: "id", ClientSecret: "secret", TokenFile: "/tmp/token.json",
				SheetTitle: "Review", BatchSize: 100,
			},
		},
		{
			name:   "valid service account config",
			config: Config{ServiceAccountPath: "/path/to/key.json", SheetTitle: "Review", BatchSize: 100},
		},
		{
			name:    "missing auth",
			config:  Config{SheetTitle: "Review", BatchSize: 100},
			wantErr: common.ErrMissingConfig,
			errMsg:  "no authentication method configured",
		},
		{
			name:    "partial oauth credentials",
			config:  Config{ClientID: "id", RefreshToken: "token", SheetTitle: "Review", BatchSize: 100},
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID: "id", ClientSecret: "secret", RefreshToken: "token",
				ServiceAccountPath: "/path/to/key.json", SheetTitle: "Review", BatchSize: 100,
			},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name:    "missing sheet title",
			config:  Config{ServiceAccountPath: "/k.json", BatchSize: 100},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "invalid batch size",
			config:  Config{ServiceAccountPath: "/k.json", SheetTitle: "Review"},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retry attempts",
			config:  Config{ServiceAccountPath: "/k.json", SheetTitle: "Review", BatchSize: 1, RetryAttempts: -1},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "negative retry delay",
			config:  Config{ServiceAccountPath: "/k.json", SheetTitle: "Review", BatchSize: 1, RetryDelay: -time.Second},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	envKeys := []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_SHEETS_SPREADSHEET_NAME",
	}

	tests := []struct {
		envVars map[string]string
		check   func(t *testing.T, c *Config)
		name    string
		wantErr bool
	}{
		{
			name: "oauth credentials",
			envVars: map[string]string{
				"GOOGLE_SHEETS_CLIENT_ID":        "test-client",
				"GOOGLE_SHEETS_CLIENT_SECRET":    "test-secret",
				"GOOGLE_SHEETS_REFRESH_TOKEN":    "test-token",
				"GOOGLE_SHEETS_SPREADSHEET_ID":   "test-id",
				"GOOGLE_SHEETS_SPREADSHEET_NAME": "Test Sheet",
			},
			check: func(t *testing.T, c *Config) {
				t.Helper()
				assert.Equal(t, "test-client", c.ClientID)
				assert.Equal(t, "test-token", c.RefreshToken)
				assert.Equal(t, "test-id", c.SpreadsheetID)
				assert.Equal(t, "Test Sheet", c.SpreadsheetName)
			},
		},
		{
			name:    "service account path",
			envVars: map[string]string{"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH": "/path/to/key.json"},
			check: func(t *testing.T, c *Config) {
				t.Helper()
				assert.Equal(t, "/path/to/key.json", c.ServiceAccountPath)
				assert.Equal(t, "Document Review", c.SpreadsheetName)
			},
		},
		{
			name:    "missing credentials",
			envVars: map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envKeys {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config := DefaultConfig()
			err := config.LoadFromEnv()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			require.NoError(t, err)
			tt.check(t, &config)
		})
	}
}
