package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Strob0t/PMForge/internal/config"
	"github.com/Strob0t/PMForge/internal/domain"
)

var (
	configPath string
	projectID  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pmctl",
	Short: "PMForge terminal client",
	Long: `pmctl talks to the PMForge API and the document agent.

Chat about a project, generate its PRD, Spec and roadmap, and watch the
documents change as the agent writes them.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command and prints any error in red.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

// SetVersionInfo sets the version string shown by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", os.Getenv("PMFORGE_PROJECT"), "project id")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

// requireProject checks the --project flag.
func requireProject() (string, error) {
	if err := domain.ValidateID("--project", projectID); err != nil {
		return "", err
	}
	return projectID, nil
}
