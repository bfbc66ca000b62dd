// Package cli provides the command-line client for the analysis workflow.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/config"
)

// Version information (set at build time).
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// flags holds the global flag values of one root command.
type flags struct {
	configFile   string
	backendURL   string
	stateBackend string
	stateDir     string
	codec        string
}

type configKey struct{}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "analisis",
		Short: "Upload a dataset, get chart suggestions, and build a dashboard",
		Long: `analisis drives the analysis backend from the terminal.

Every invocation restores the saved session (current page, file metadata,
suggestions, charts, layout), runs one action, and saves the result.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&f.configFile, "config", "", "config file (default: <user config dir>/analisis/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&f.backendURL, "backend-url", "", "analysis backend base URL")
	rootCmd.PersistentFlags().StringVar(&f.stateBackend, "state-backend", "", "where session state is kept (file|sqlite|duckdb|memory)")
	rootCmd.PersistentFlags().StringVar(&f.stateDir, "state-dir", "", "directory for session state")
	rootCmd.PersistentFlags().StringVar(&f.codec, "codec", "", "session state encoding (json|msgpack)")

	_ = rootCmd.RegisterFlagCompletionFunc("state-backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"file", "sqlite", "duckdb", "memory"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("codec", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "msgpack"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newUploadCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newSuggestionsCommand())
	rootCmd.AddCommand(newChartCommand())
	rootCmd.AddCommand(newNavCommand())
	rootCmd.AddCommand(newBackToResultsCommand())
	rootCmd.AddCommand(newResetCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newDebugStorageCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "analisis", "config.yaml")
	}
	return "analisis.yaml"
}

func loadConfig(f *flags) (*config.AppConfig, error) {
	path := f.configFile
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if f.backendURL != "" {
		cfg.Client.BackendURL = f.backendURL
	}
	if f.stateBackend != "" {
		cfg.Persistence.Backend = f.stateBackend
	}
	if f.stateDir != "" {
		cfg.Persistence.Directory = f.stateDir
	}
	if f.codec != "" {
		cfg.Persistence.Codec = f.codec
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.AppConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
