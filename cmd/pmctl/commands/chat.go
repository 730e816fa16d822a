package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Strob0t/PMForge/internal/adapter/terminal"
	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/workspace"
)

var (
	chatAgent    string
	chatTemplate string
	chatMessage  string
	chatWatch    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Converse with an agent about a project",
	Long: `Open an interactive conversation with the PRD, Spec or roadmap agent.

Every reply is followed by a refresh, so documents the agent wrote during
the turn show up immediately. The roadmap agent's replies reload the board
instead. With --watch (the default) changes made by other clients are
pushed over the API's WebSocket as well.

Commands inside the session:
  /prd, /spec          show the current document
  /board               show the roadmap by quarter
  /refresh             re-fetch the project
  /generate <target>   generate prd, spec or roadmap
  /history             show what the agent remembers
  /clear               make the agent forget (the transcript is kept)
  /quit                leave

Examples:
  pmctl chat -p <project-id>
  pmctl chat -p <project-id> --agent spec --template api
  pmctl chat -p <project-id> --agent roadmap -m "Move billing to Q3"`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAgent, "agent", "prd", "agent to talk to (prd, spec or roadmap)")
	chatCmd.Flags().StringVarP(&chatTemplate, "template", "t", "", "document template (agent default if empty)")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "send one message and exit")
	chatCmd.Flags().BoolVar(&chatWatch, "watch", true, "apply changes pushed by the server")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	pid, err := requireProject()
	if err != nil {
		return err
	}
	agentType, err := parseAgentType(chatAgent)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s := a.session(pid, chatTemplate, agentType)
	defer s.Close()

	if err := s.Load(ctx); err != nil {
		slog.WarnContext(ctx, "session loaded with errors", "error", err)
	}

	if chatMessage != "" {
		return sendTurn(ctx, s, chatMessage, os.Stdout)
	}

	if chatWatch {
		go func() {
			if err := workspace.Watch(ctx, a.cfg.Client.APIURL, pid, a.bus); err != nil && !errors.Is(err, context.Canceled) {
				slog.WarnContext(ctx, "push channel closed", "error", err)
			}
		}()
	}

	out := os.Stdout
	if p := s.Panel().Project(); p != nil {
		fmt.Fprintf(out, "Project: %s\n", p.Name)
	}
	for _, m := range s.Panel().Messages() {
		terminal.Message(out, m)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	lines := readLines(ctx, os.Stdin)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runSlash(ctx, s, line, out)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}
		if err := sendTurn(ctx, s, line, out); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// sendTurn sends one message and prints the reply.
func sendTurn(ctx context.Context, s *workspace.Session, text string, out io.Writer) error {
	turn, err := s.Send(ctx, text)
	if err != nil {
		return err
	}
	terminal.Reply(out, turn.Reply)
	if s.AgentType() == agent.TypeRoadmap {
		terminal.Board(out, s.Board().Columns())
	}
	return nil
}

// runSlash executes an in-session command. It reports whether the session
// should end.
func runSlash(ctx context.Context, s *workspace.Session, line string, out io.Writer) (quit bool, err error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "prd":
		s.Documents().SetTab(workspace.TabPRD)
		terminal.Documents(out, s.Documents().State())
	case "spec":
		s.Documents().SetTab(workspace.TabSpec)
		terminal.Documents(out, s.Documents().State())
	case "board":
		terminal.Board(out, s.Board().Columns())
	case "refresh":
		return false, s.Load(ctx)
	case "generate":
		target, prompt, _ := strings.Cut(strings.TrimSpace(arg), " ")
		resp, err := s.Generate(ctx, workspace.Target(target), prompt)
		if err != nil {
			return false, err
		}
		terminal.Reply(out, resp)
	case "history":
		entries, err := s.AgentHistory(ctx)
		if err != nil {
			return false, err
		}
		terminal.Conversation(out, entries)
	case "clear":
		if err := s.ClearAgentHistory(ctx); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "The %s agent's memory was cleared. The transcript is kept.\n", s.AgentType())
	case "help":
		fmt.Fprintln(out, "/prd /spec /board /refresh /generate <prd|spec|roadmap> [prompt] /history /clear /quit")
	default:
		return false, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return false, nil
}

// readLines scans r in the background so a pending read never blocks
// cancellation.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
