package api

import (
	"fmt"
	"strings"
)

const (
	defaultListenAddr      = ":8080"
	defaultOpenLedgerTitle = "Orders"
	defaultUsersSheet      = "Users"
	defaultLocationsSheet  = "Locations"
	defaultAllowedOrigin   = "http://localhost:4200"
)

// Config aggregates runtime settings for the farm API.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string

	// Spreadsheet storage. SpreadsheetID plus CredentialsFile select the
	// Sheets backend; GridStorePath selects the local sqlite backend
	// instead.
	SpreadsheetID   string
	CredentialsFile string
	GridStorePath   string

	OpenLedgerTitle string
	UsersSheet      string
	LocationsSheet  string

	// Confirmation-email settings. All three are required before the
	// admin endpoint will send.
	EmailSource           string
	EmailTemplate         string
	EmailConfigurationSet string
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.OpenLedgerTitle = defaultIfEmpty(cfg.OpenLedgerTitle, defaultOpenLedgerTitle)
	cfg.UsersSheet = defaultIfEmpty(cfg.UsersSheet, defaultUsersSheet)
	cfg.LocationsSheet = defaultIfEmpty(cfg.LocationsSheet, defaultLocationsSheet)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if strings.TrimSpace(cfg.GridStorePath) == "" {
		if strings.TrimSpace(cfg.SpreadsheetID) == "" {
			return fmt.Errorf("spreadsheet id is required")
		}
		if strings.TrimSpace(cfg.CredentialsFile) == "" {
			return fmt.Errorf("google credentials file is required")
		}
	}
	return nil
}

// EmailConfigured reports whether the confirmation-email settings are
// complete.
func (cfg *Config) EmailConfigured() bool {
	return strings.TrimSpace(cfg.EmailSource) != "" &&
		strings.TrimSpace(cfg.EmailTemplate) != "" &&
		strings.TrimSpace(cfg.EmailConfigurationSet) != ""
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
