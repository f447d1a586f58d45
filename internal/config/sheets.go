package config

import (
	"github.com/Veraticus/inbox-triage/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets export settings. Values come from v
// (config file or TRIAGE_SHEETS_* variables) first, then from GOOGLE_SHEETS_*
// variables, then the defaults.
func LoadSheetsConfig(v *viper.Viper) (sheets.Config, error) {
	cfg := sheets.DefaultConfig()

	cfg.ServiceAccountPath = ExpandPath(v.GetString("sheets.service_account_path"))
	cfg.ClientID = v.GetString("sheets.client_id")
	cfg.ClientSecret = v.GetString("sheets.client_secret")
	cfg.TokenFile = ExpandPath(v.GetString("sheets.token_file"))
	cfg.SpreadsheetID = v.GetString("sheets.spreadsheet_id")

	if name := v.GetString("sheets.spreadsheet_name"); name != "" {
		cfg.SpreadsheetName = name
	}
	if title := v.GetString("sheets.sheet_title"); title != "" {
		cfg.SheetTitle = title
	}
	if tz := v.GetString("sheets.timezone"); tz != "" {
		cfg.TimeZone = tz
	}

	cfg.LoadFromEnv()
	cfg.ServiceAccountPath = ExpandPath(cfg.ServiceAccountPath)

	// OAuth needs somewhere to keep the token.
	if cfg.ServiceAccountPath == "" && cfg.TokenFile == "" {
		cfg.TokenFile = ExpandPath("~/.config/triage/sheets-token.json")
	}

	if err := cfg.Validate(); err != nil {
		return sheets.Config{}, err
	}
	return cfg, nil
}
