package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/adapters/driven/config"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Inspect configuration",
	Annotations: map[string]string{annotationSettingsOnly: "true"},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every required value is set",
	Long: `Loads the configuration, reports any missing required keys and prints
the effective settings with secrets masked.

With --ping, the embedding and LLM providers are contacted as well.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runConfigCheck,
}

var configPing bool

func init() {
	configCheckCmd.Flags().BoolVar(&configPing, "ping", false, "contact the embedding and LLM providers")
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if missing := settingsService.MissingKeys(); len(missing) > 0 {
		cmd.Println("Missing required keys:")
		for _, key := range missing {
			cmd.Printf("  %s (env %s)\n", key, config.EnvName(key))
		}
		return fmt.Errorf("%w: %d required keys missing", domain.ErrConfiguration, len(missing))
	}

	settings, err := settingsService.Load()
	if err != nil {
		return err
	}
	printSettings(cmd, settings)

	if configPing {
		if err := settingsService.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("provider check failed: %w", err)
		}
		cmd.Println()
		cmd.Println("Providers reachable.")
	}
	return nil
}

func printSettings(cmd *cobra.Command, s *domain.AppSettings) {
	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", s.Storage.Backend)
	if s.Storage.Backend == domain.StoragePostgres {
		db := s.Storage.Database
		cmd.Printf("  Database: %s@%s:%d/%s\n", db.User, db.Host, db.Port, db.Name)
		cmd.Printf("  Password: %s\n", maskSecret(db.Password))
	} else if s.Storage.Path != "" {
		cmd.Printf("  Path: %s\n", s.Storage.Path)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	cmd.Printf("  Batch size: %d\n", s.Embedding.BatchSize)
	if s.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskSecret(s.Embedding.APIKey))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", s.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", s.LLM.Model)
	if s.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.LLM.BaseURL)
	}
	if s.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskSecret(s.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %.2f\n", s.LLM.Temperature)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Default k: %d\n", s.Retrieval.DefaultK)
	cmd.Printf("  Oversample factor: %d\n", s.Retrieval.OversampleFactor)
	cmd.Printf("  Reranker: %s\n", s.Retrieval.Reranker)
}
