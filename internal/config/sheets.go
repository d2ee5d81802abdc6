package config

import (
	"os"

	"github.com/Veraticus/autobudget/internal/auth"
	"github.com/Veraticus/autobudget/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or AUTOBUDGET_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
//
// A refresh token saved by `autobudget auth sheets` is used when none is
// configured.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := SheetsConfig()

	if config.ServiceAccountPath == "" && config.RefreshToken == "" {
		if token, err := auth.LoadToken(SheetsTokenFile()); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SheetsConfig resolves the Sheets settings without validating them, for
// flows such as obtaining the refresh token in the first place.
func SheetsConfig() sheets.Config {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(
		viper.GetString("sheets.service_account_path"),
		os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"),
	))
	config.ClientID = firstNonEmpty(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstNonEmpty(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstNonEmpty(viper.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstNonEmpty(viper.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.SpreadsheetName = firstNonEmpty(
		viper.GetString("sheets.spreadsheet_name"),
		os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"),
		config.SpreadsheetName,
	)
	config.SheetTitle = firstNonEmpty(viper.GetString("sheets.sheet_title"), config.SheetTitle)
	config.TimeZone = firstNonEmpty(viper.GetString("sheets.timezone"), config.TimeZone)

	if viper.IsSet("sheets.batch_size") {
		config.BatchSize = viper.GetInt("sheets.batch_size")
	}
	if viper.IsSet("sheets.enable_formatting") {
		config.EnableFormatting = viper.GetBool("sheets.enable_formatting")
	}

	return config
}

// SheetsTokenFile returns where the Sheets OAuth token obtained by
// `autobudget auth sheets` is stored.
func SheetsTokenFile() string {
	return ExpandPath(firstNonEmpty(
		viper.GetString("sheets.token_file"),
		Dir+"/sheets-token.json",
	))
}
