package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PMForge/internal/adapter/terminal"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/workspace"
)

var moveStatus string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the roadmap grouped by quarter",
	RunE:  runBoard,
}

var boardMoveCmd = &cobra.Command{
	Use:   "move <task-id> <quarter>",
	Short: "Move a roadmap task to another quarter",
	Args:  cobra.ExactArgs(2),
	Long: `Move a task to another quarter, optionally changing its status.

Examples:
  pmctl board move <task-id> "Q3 2026"
  pmctl board move <task-id> q4-2026 --status in-progress`,
	RunE: runBoardMove,
}

func init() {
	boardMoveCmd.Flags().StringVar(&moveStatus, "status", "", "new status (planned, in-progress, completed)")
	boardCmd.AddCommand(boardMoveCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, _ []string) error {
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
	tasks, err := a.api.ListRoadmap(ctx, pid)
	if err != nil {
		return fmt.Errorf("list roadmap: %w", err)
	}

	s := a.session(pid, "", "")
	defer s.Close()
	a.bus.EmitRoadmap(ctx, pid, tasks, update.SourceAPI)

	terminal.Board(os.Stdout, s.Board().Columns())
	if hidden := len(tasks) - countTasks(s.Board().Columns()); hidden > 0 {
		fmt.Fprintf(os.Stderr, "%d task(s) outside the shown quarters\n", hidden)
	}
	return nil
}

func runBoardMove(cmd *cobra.Command, args []string) error {
	pid, err := requireProject()
	if err != nil {
		return err
	}
	var status *roadmap.Status
	if moveStatus != "" {
		st := roadmap.Status(moveStatus)
		if err := roadmap.ValidateStatus(st); err != nil {
			return err
		}
		status = &st
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	s := a.session(pid, "", "")
	defer s.Close()

	t, err := s.Board().MoveTask(cmd.Context(), args[0], args[1], status)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	fmt.Printf("%s -> %s [%s]\n", t.Title, t.Quarter, t.Status)
	return nil
}

func countTasks(cols []workspace.Column) int {
	n := 0
	for _, c := range cols {
		n += len(c.Tasks)
	}
	return n
}
