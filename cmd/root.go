// Package cmd implements the relbump command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bcomnes/relbump/internal/config"
	"github.com/bcomnes/relbump/internal/logging"
)

// NewRootCmd builds the relbump command tree. version is reported by
// `relbump version` and `relbump --version`.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relbump",
		Short: "Bump, commit, push and publish a release",
		Long: `relbump bumps the semantic version of a project across its files, commits
and pushes the change, creates a GitHub release with generated notes and
asks the package index to pick up the new version.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default .relbump.yaml)")
	rootCmd.PersistentFlags().String("log-level", logging.LevelInfo, "log level: debug, info, warn, error or none")
	rootCmd.PersistentFlags().String("dir", ".", "project directory")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))

	rootCmd.AddCommand(newReleaseCmd(), newPlanCmd(), newVersionCmd(version))
	return rootCmd
}

// Execute runs the command line and exits non-zero on any error.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd(version).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}
	viper.SetConfigName(".relbump")
	viper.SetConfigType("yaml")
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		viper.AddConfigPath(dir)
	}
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	// It's fine if no config file is found; we use defaults.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// loadConfig loads and validates the configuration and builds the logger.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	logger, err := logging.GetLogger(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
