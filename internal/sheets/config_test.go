package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	oauth := func() Config {
		cfg := DefaultConfig()
		cfg.ClientID = "client"
		cfg.ClientSecret = "secret"
		cfg.TokenFile = "/tmp/sheets-token.json"
		return cfg
	}

	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr string
	}{
		{name: "oauth", mutate: func(*Config) {}},
		{name: "service account only", mutate: func(c *Config) {
			*c = DefaultConfig()
			c.ServiceAccountPath = "/keys/sa.json"
		}},
		{name: "missing secret", mutate: func(c *Config) { c.ClientSecret = "" }, wantErr: "no authentication method"},
		{name: "missing token file", mutate: func(c *Config) { c.TokenFile = "" }, wantErr: "no authentication method"},
		{name: "oauth and service account", mutate: func(c *Config) { c.ServiceAccountPath = "/keys/sa.json" }, wantErr: "multiple authentication methods"},
		{name: "zero batch", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: "batch size"},
		{name: "negative attempts", mutate: func(c *Config) { c.RetryAttempts = -1 }, wantErr: "retry attempts"},
		{name: "negative delay", mutate: func(c *Config) { c.RetryDelay = -time.Second }, wantErr: "retry delay"},
		{name: "zero delay", mutate: func(c *Config) { c.RetryDelay = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := oauth()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_LoadFromEnvKeepsExplicitValues(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-id")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")

	cfg := Config{SpreadsheetID: "explicit", SpreadsheetName: "Mail"}
	cfg.LoadFromEnv()

	assert.Equal(t, "env-id", cfg.ClientID)
	assert.Equal(t, "env-secret", cfg.ClientSecret)
	assert.Equal(t, "explicit", cfg.SpreadsheetID)
	assert.Equal(t, "Mail", cfg.SpreadsheetName)
	assert.Empty(t, cfg.ServiceAccountPath)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Inbox Triage", cfg.SpreadsheetName)
	assert.Equal(t, "Triage", cfg.SheetTitle)
	assert.Positive(t, cfg.BatchSize)
	assert.True(t, cfg.EnableFormatting)
	assert.Error(t, cfg.Validate(), "defaults carry no credentials")
}

func TestOAuthConfig(t *testing.T) {
	cfg := Config{ClientID: "id", ClientSecret: "secret", TokenFile: "/tmp/t.json"}
	oc := OAuthConfig(cfg)
	assert.Equal(t, "id", oc.ClientID)
	assert.Equal(t, "/tmp/t.json", oc.TokenFile)
	require.Len(t, oc.Scopes, 1)
	assert.Contains(t, oc.Scopes[0], "spreadsheets")
}
