// etactl is an operator CLI against the Egyptian Tax Authority e-invoicing
// API: taxpayer lookups, submission status checks and the document registry.
// It reads the same ETA_* environment variables as the API server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "etactl",
	Short:   "Operator CLI for the Egyptian Tax Authority e-invoicing API",
	Version: version,
	Long: `etactl talks directly to the tax authority's API using the
credentials configured for the invoice portal (ETA_CLIENT_ID,
ETA_CLIENT_SECRET, ETA_API_URL).

It covers the read-only surface: taxpayer verification, submission
status checks, and browsing the document registry.`,
}

// newETAClient builds the authority client from the environment.
func newETAClient() (*infraeta.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.ETA.ClientID == "" || cfg.ETA.ClientSecret == "" {
		return nil, fmt.Errorf("ETA_CLIENT_ID and ETA_CLIENT_SECRET must be set")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "warn"})
	return infraeta.NewClient(cfg.ETA, log.Zerolog()), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
