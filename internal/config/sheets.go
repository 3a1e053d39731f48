package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration from viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or DOCMETA_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	config := sheets.DefaultConfig()

	// Environment first so viper values override it.
	_ = config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if s := v.GetString("sheets.service_account_path"); s != "" {
		config.ServiceAccountPath = ExpandPath(s)
	}
	if s := v.GetString("sheets.client_id"); s != "" {
		config.ClientID = s
	}
	if s := v.GetString("sheets.client_secret"); s != "" {
		config.ClientSecret = s
	}
	if s := v.GetString("sheets.refresh_token"); s != "" {
		config.RefreshToken = s
	}
	config.TokenFile = TokenFile(v)
	if s := v.GetString("sheets.spreadsheet_id"); s != "" {
		config.SpreadsheetID = s
	}
	if s := v.GetString("sheets.spreadsheet_name"); s != "" {
		config.SpreadsheetName = s
	}
	if s := v.GetString("sheets.sheet_title"); s != "" {
		config.SheetTitle = s
	}
	if s := v.GetString("sheets.time_zone"); s != "" {
		config.TimeZone = s
	}
	if v.IsSet("sheets.batch_size") {
		config.BatchSize = v.GetInt("sheets.batch_size")
	}
	if v.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = v.GetInt("sheets.retry_attempts")
	}
	if v.IsSet("sheets.enable_formatting") {
		config.EnableFormatting = v.GetBool("sheets.enable_formatting")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
