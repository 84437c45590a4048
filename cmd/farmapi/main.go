package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/farmstand/internal/api"
	"github.com/MarkoPoloResearchLab/farmstand/internal/seed"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagListenAddr      = "listen-addr"
	flagAllowedOrigins  = "allowed-origins"
	flagSpreadsheetID   = "spreadsheet-id"
	flagCredentialsFile = "credentials-file"
	flagGridStore       = "grid-store"
	flagOpenLedgerTitle = "open-ledger-title"
	flagUsersSheet      = "users-sheet"
	flagLocationsSheet  = "locations-sheet"
	flagEmailSource     = "email-source"
	flagEmailTemplate   = "email-template"
	flagEmailConfigSet  = "email-configuration-set"
	envPrefix           = "FARMAPI"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "farmapi: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := api.Config{}
	cmd := &cobra.Command{
		Use:           "farmapi",
		Short:         "CSA ordering API over a spreadsheet ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagSpreadsheetID, "", "Google spreadsheet id of the system of record")
	cmd.Flags().String(flagCredentialsFile, "", "Google service-account credentials file")
	cmd.Flags().String(flagGridStore, "", "path to a local sqlite grid store (replaces the spreadsheet backend)")
	cmd.Flags().String(flagOpenLedgerTitle, "", "sheet title of the ledger currently accepting orders")
	cmd.Flags().String(flagUsersSheet, "", "sheet title of the member directory")
	cmd.Flags().String(flagLocationsSheet, "", "sheet title of the pickup locations")
	cmd.Flags().String(flagEmailSource, "", "from-address for confirmation emails")
	cmd.Flags().String(flagEmailTemplate, "", "SES template for confirmation emails")
	cmd.Flags().String(flagEmailConfigSet, "", "SES configuration set for confirmation emails")

	cmd.AddCommand(newSeedCommand())

	return cmd
}

func newSeedCommand() *cobra.Command {
	var gridStorePath string
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Create a local grid store with a sample week",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(gridStorePath) == "" {
				return fmt.Errorf("%s is required", flagGridStore)
			}
			return seed.Run(cmd.Context(), gridStorePath)
		},
	}
	cmd.Flags().StringVar(&gridStorePath, flagGridStore, "", "path of the sqlite grid store to create")
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *api.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flagNames := []string{
		flagListenAddr, flagAllowedOrigins, flagSpreadsheetID, flagCredentialsFile,
		flagGridStore, flagOpenLedgerTitle, flagUsersSheet, flagLocationsSheet,
		flagEmailSource, flagEmailTemplate, flagEmailConfigSet,
	}
	for _, flagName := range flagNames {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.AllowedOrigins = api.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.SpreadsheetID = strings.TrimSpace(v.GetString(flagSpreadsheetID))
	cfg.CredentialsFile = strings.TrimSpace(v.GetString(flagCredentialsFile))
	cfg.GridStorePath = strings.TrimSpace(v.GetString(flagGridStore))
	cfg.OpenLedgerTitle = strings.TrimSpace(v.GetString(flagOpenLedgerTitle))
	cfg.UsersSheet = strings.TrimSpace(v.GetString(flagUsersSheet))
	cfg.LocationsSheet = strings.TrimSpace(v.GetString(flagLocationsSheet))
	cfg.EmailSource = strings.TrimSpace(v.GetString(flagEmailSource))
	cfg.EmailTemplate = strings.TrimSpace(v.GetString(flagEmailTemplate))
	cfg.EmailConfigurationSet = strings.TrimSpace(v.GetString(flagEmailConfigSet))

	return cfg.Validate()
}
