package workspace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
)

// ChatPanel holds the chat transcript and the latest document content used
// as context for agent calls.
type ChatPanel struct {
	mu        sync.Mutex
	projectID string
	project   *project.Project
	prd       string
	spec      string
	tasks     []roadmap.Task
	messages  []chat.Message
}

// NewChatPanel creates an empty panel for projectID.
func NewChatPanel(projectID string) *ChatPanel {
	return &ChatPanel{projectID: projectID}
}

// Apply reconciles the project header, document context and roadmap from ev.
func (p *ChatPanel) Apply(ev update.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.ProjectID != p.projectID {
		return
	}
	if ev.Project != nil && belongs(ev.Project.ID, p.projectID) {
		pr := *ev.Project
		p.project = &pr
	}
	if ev.PRD != nil && belongs(ev.PRD.ProjectID, p.projectID) {
		p.prd = ev.PRD.Content
	}
	if ev.Spec != nil && belongs(ev.Spec.ProjectID, p.projectID) {
		p.spec = ev.Spec.Content
	}
	if ev.Roadmap != nil {
		p.tasks = append([]roadmap.Task(nil), ev.Roadmap.Tasks...)
	}
}

// SetTranscript replaces the transcript, e.g. with the recent page loaded
// on mount.
func (p *ChatPanel) SetTranscript(msgs []chat.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		p.messages = append(p.messages, normalizeMessage(m))
	}
}

// Append adds m to the end of the transcript.
func (p *ChatPanel) Append(m chat.Message) {
	p.mu.Lock()
	p.messages = append(p.messages, normalizeMessage(m))
	p.mu.Unlock()
}

// Confirm replaces the local placeholder with id localID by its persisted
// version. It reports whether the placeholder was found.
func (p *ChatPanel) Confirm(localID string, persisted chat.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.messages {
		if p.messages[i].ID == localID {
			p.messages[i] = normalizeMessage(persisted)
			return true
		}
	}
	return false
}

// Messages returns a copy of the transcript.
func (p *ChatPanel) Messages() []chat.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]chat.Message(nil), p.messages...)
}

// History converts the transcript into agent chat history.
func (p *ChatPanel) History() []agent.HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := make([]agent.HistoryEntry, 0, len(p.messages))
	for _, m := range p.messages {
		h = append(h, agent.HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return h
}

// ProjectContext builds the document context sent with agent calls.
func (p *ChatPanel) ProjectContext() *agent.ProjectContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	pc := &agent.ProjectContext{
		ExistingPRD:     p.prd,
		ExistingSpec:    p.spec,
		ExistingRoadmap: summarizeRoadmap(p.tasks),
	}
	if p.project != nil {
		pc.ProjectName = p.project.Name
		pc.Description = p.project.Description
	}
	return pc
}

// Project returns the project header, or nil before it is known.
func (p *ChatPanel) Project() *project.Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.project == nil {
		return nil
	}
	pr := *p.project
	return &pr
}

func normalizeMessage(m chat.Message) chat.Message {
	if m.MessageType == "" {
		m.MessageType = chat.DefaultMessageType
	}
	m.Metadata = chat.NormalizeMetadata(m.Metadata)
	return m
}

// summarizeRoadmap renders tasks as one line each for agent context.
func summarizeRoadmap(tasks []roadmap.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s] %s (%s, %s)\n", t.Quarter, t.Title, t.Priority, t.Status)
	}
	return b.String()
}
