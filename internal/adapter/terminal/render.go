package terminal

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/workspace"
)

// Message prints one transcript entry.
func Message(w io.Writer, m chat.Message) {
	label := "you"
	c := cyan
	if m.Role == chat.RoleAssistant {
		label = "agent"
		c = green
	}
	c.Fprintf(w, "%s> ", label)
	fmt.Fprintln(w, m.Content)
}

// Reply prints an agent reply, followed by any questions the agent still
// needs answered.
func Reply(w io.Writer, r *agent.ChatResponse) {
	green.Fprint(w, "agent> ")
	fmt.Fprintln(w, r.Content)
	if r.RequiresInput && len(r.MissingInfo) > 0 {
		yellow.Fprintln(w, "The agent needs more information:")
		for _, q := range r.MissingInfo {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
}

// Conversation prints what the agent remembers, or a note when it
// remembers nothing.
func Conversation(w io.Writer, entries []agent.ConversationEntry) {
	if len(entries) == 0 {
		yellow.Fprintln(w, "The agent has no conversation history.")
		return
	}
	for _, e := range entries {
		Message(w, chat.Message{Role: chat.Role(e.Role), Content: e.Content})
	}
}

// Projects prints a project table.
func Projects(w io.Writer, ps []project.Project) error {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for i := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ps[i].ID, ps[i].Name, ps[i].UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// Documents prints the active document of a workspace.
func Documents(w io.Writer, st workspace.DocumentState) {
	switch st.Tab {
	case workspace.TabSpec:
		if st.Spec == nil {
			faint.Fprintln(w, "No spec yet.")
			return
		}
		cyan.Fprintf(w, "# %s [%s]\n\n", st.Spec.Title, st.Spec.Status)
		fmt.Fprintln(w, st.Spec.Content)
		if st.Spec.TechnicalDetails != "" {
			cyan.Fprintln(w, "\n## Technical details")
			fmt.Fprintln(w, st.Spec.TechnicalDetails)
		}
	default:
		if st.PRD == nil {
			faint.Fprintln(w, "No PRD yet.")
			return
		}
		cyan.Fprintf(w, "# %s [%s]\n\n", st.PRD.Title, st.PRD.Status)
		fmt.Fprintln(w, st.PRD.Content)
	}
}

// Board prints roadmap columns side by side as a list per quarter.
func Board(w io.Writer, cols []workspace.Column) {
	for _, col := range cols {
		cyan.Fprintf(w, "%s (%d)\n", col.Quarter, len(col.Tasks))
		for i := range col.Tasks {
			t := &col.Tasks[i]
			fmt.Fprintf(w, "  [%s] %s", t.Status, t.Title)
			if t.Priority != "" {
				faint.Fprintf(w, " %s", t.Priority)
			}
			fmt.Fprintln(w)
		}
	}
}
