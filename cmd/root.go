package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/output"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/sessions"
	"github.com/mbecker/study/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "study",
	Short: "Study session tracker with drift and focus analysis",
	Long: `study logs study sessions and analyzes them deterministically:
topic drift, overconfidence, and a weighted focus score. Every session
gets revision tasks and a plan for the next one, and the week rolls up
into a report with a score, a grade, and recommendations.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/study/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "study")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STUDY")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "study")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "study.db"))
	viper.SetDefault("port", 8080)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("analysis.drift_threshold", 50.0)
	viper.SetDefault("analysis.long_session_minutes", 30.0)
	viper.SetDefault("report.target_weekly_minutes", 300.0)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The store opens lazily, on first getStore call, so config and
	// version commands run without a database.
}

// rootRun handles `study` with no subcommand: show the stats dashboard.
func rootRun(cmd *cobra.Command) error {
	if _, err := getStore(); err != nil {
		return cmd.Help()
	}
	return statsRun()
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// engineConfig builds the analysis configuration from viper.
func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.DriftRelevanceThreshold = viper.GetFloat64("analysis.drift_threshold")
	cfg.LongSessionMinutes = viper.GetFloat64("analysis.long_session_minutes")
	return cfg
}

// reportConfig builds the weekly report configuration from viper.
func reportConfig() report.Config {
	cfg := report.DefaultConfig()
	cfg.TargetWeeklyMinutes = viper.GetFloat64("report.target_weekly_minutes")
	return cfg
}

// getManager returns a sessions manager over the shared store.
// The LLM enhancer is attached only when an API key is configured.
func getManager() (*sessions.Manager, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}

	var enh engine.Enhancer
	if c := newLLMClient(); c != nil {
		enh = c
	}
	return sessions.NewManager(s, engine.New(engineConfig(), enh)), nil
}
