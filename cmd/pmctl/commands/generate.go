package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PMForge/internal/adapter/terminal"
	"github.com/Strob0t/PMForge/internal/workspace"
)

var generateTemplate string

var generateCmd = &cobra.Command{
	Use:       "generate <prd|spec|roadmap> [prompt...]",
	Short:     "Have the agent generate a document or the roadmap",
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{string(workspace.TargetPRD), string(workspace.TargetSpec), string(workspace.TargetRoadmap)},
	Long: `Ask the agent to generate the PRD, the Spec or the roadmap of a project.

The agent writes the result to the API itself; pmctl then refreshes and
prints what was stored. Roadmap generation needs an existing PRD.

Examples:
  pmctl generate prd -p <project-id> "A habit tracker for remote teams"
  pmctl generate spec -p <project-id> --template api
  pmctl generate roadmap -p <project-id>`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", "", "document template (agent default if empty)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	pid, err := requireProject()
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	target := workspace.Target(strings.ToLower(args[0]))
	s := a.session(pid, generateTemplate, "")
	defer s.Close()

	if err := s.Load(ctx); err != nil {
		slog.WarnContext(ctx, "session loaded with errors", "error", err)
	}

	resp, err := s.Generate(ctx, target, strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("generate %s: %w", target, err)
	}
	terminal.Reply(os.Stdout, resp)

	switch target {
	case workspace.TargetRoadmap:
		terminal.Board(os.Stdout, s.Board().Columns())
	case workspace.TargetSpec:
		s.Documents().SetTab(workspace.TabSpec)
		terminal.Documents(os.Stdout, s.Documents().State())
	default:
		s.Documents().SetTab(workspace.TabPRD)
		terminal.Documents(os.Stdout, s.Documents().State())
	}
	return nil
}
