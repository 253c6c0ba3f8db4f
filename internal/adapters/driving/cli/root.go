// Package cli provides the cobra command tree for the localrag binary.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/core/ports/driving"
	"github.com/custodia-labs/localrag/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
	jsonLogs   bool
)

// Service ports used by the commands. Set by the bootstrap hook or by tests.
var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	documentService driving.DocumentService
	settingsService driving.SettingsService
	metricsHandler  http.Handler
	closeServices   func() error
)

// Command annotations controlling what the bootstrap builds.
const (
	annotationNoServices   = "localrag/no-services"
	annotationSettingsOnly = "localrag/settings-only"
)

// Services holds the wired application for one command invocation.
type Services struct {
	Ingest   driving.IngestService
	Query    driving.QueryService
	Document driving.DocumentService
	Settings driving.SettingsService

	// Metrics serves the Prometheus registry.
	Metrics http.Handler

	// Close releases the store and clients. May be nil.
	Close func() error
}

// Options are passed to the bootstrap hook.
type Options struct {
	// ConfigPath is the --config flag value. Empty means search defaults.
	ConfigPath string

	// SettingsOnly asks for the settings service alone, without
	// connecting to the store or providers.
	SettingsOnly bool
}

// BootstrapFunc builds the services for a command.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var bootstrap BootstrapFunc

// SetBootstrap installs the function that wires services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	queryService = s.Query
	documentService = s.Document
	settingsService = s.Settings
	metricsHandler = s.Metrics
	closeServices = s.Close
}

var rootCmd = &cobra.Command{
	Use:   "localrag",
	Short: "Local retrieval-augmented question answering",
	Long: `localrag ingests PDF, TXT and DOCX files into named documents,
embeds their paragraphs and answers questions from the most similar ones.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config_real.yaml, ./config.yaml, ~/.localrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "write logs as JSON")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(jsonLogs)

	if bootstrap == nil || !needsServices(cmd) {
		return nil
	}

	services, err := bootstrap(cmd.Context(), Options{
		ConfigPath:   configPath,
		SettingsOnly: cmd.Annotations[annotationSettingsOnly] == "true",
	})
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// needsServices reports whether cmd or any parent opts out of wiring.
func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoServices] == "true" {
			return false
		}
	}
	switch cmd.Name() {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return true
}
