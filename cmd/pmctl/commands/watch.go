package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/workspace"
)

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream project changes pushed by the server",
	Long: `Subscribe to the API's push channel and report every change to the
project as it happens. Documents and roadmap are kept in sync the same way
an open chat session is.

Examples:
  pmctl watch -p <project-id>
  pmctl watch -p <project-id> --json > changes.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print each update envelope as one JSON line")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
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
	s := a.session(pid, "", "")
	defer s.Close()
	if err := s.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	unsubscribe := a.bus.Subscribe(func(_ context.Context, ev update.Event) error {
		if watchJSON {
			return printJSONLine(ev)
		}
		fmt.Printf("%s  %-8s %-8s %s\n", ev.Timestamp.Format("15:04:05"), ev.Type, ev.Source, ev.ProjectID)
		return nil
	})
	defer unsubscribe()

	fmt.Fprintf(os.Stderr, "watching %s (Ctrl-C to stop)\n", pid)
	err = workspace.Watch(ctx, a.cfg.Client.APIURL, pid, a.bus)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
