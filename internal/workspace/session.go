package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// Target selects what Generate produces.
type Target string

const (
	TargetPRD     Target = "prd"
	TargetSpec    Target = "spec"
	TargetRoadmap Target = "roadmap"
)

// SessionConfig describes one project session.
type SessionConfig struct {
	ProjectID    string
	TemplateType string
	AgentType    agent.Type
	RecentLimit  int
	Quarters     []string
}

// Turn is the outcome of one chat turn. Document turns fill Refresh;
// roadmap turns fill Tasks.
type Turn struct {
	Reply   *agent.ChatResponse
	Refresh Result
	Tasks   []roadmap.Task
}

// Session ties the agent bridge, the API and the surfaces of one project
// together. Every agent call is followed by a refresh because the agent may
// have written documents on its own.
type Session struct {
	cfg       SessionConfig
	remote    Remote
	bridge    Bridge
	bus       *eventbus.Bus
	refresher *Refresher
	alert     Alerter

	panel *ChatPanel
	docs  *DocumentWorkspace
	board *RoadmapBoard

	detach []func()
	newKey func() string
	now    func() time.Time
}

// NewSession builds the surfaces of cfg.ProjectID and attaches them to bus.
func NewSession(cfg SessionConfig, remote Remote, bridge Bridge, bus *eventbus.Bus, refresher *Refresher, alert Alerter) *Session {
	if cfg.TemplateType == "" {
		cfg.TemplateType = agent.DefaultTemplate
	}
	if cfg.AgentType == "" {
		cfg.AgentType = agent.TypePRD
	}
	if len(cfg.Quarters) == 0 {
		cfg.Quarters = roadmap.DefaultQuarters(time.Now().Year())
	}
	alert = alerterOrDiscard(alert)

	s := &Session{
		cfg:       cfg,
		remote:    remote,
		bridge:    bridge,
		bus:       bus,
		refresher: refresher,
		alert:     alert,
		panel:     NewChatPanel(cfg.ProjectID),
		docs:      NewDocumentWorkspace(cfg.ProjectID, remote, alert),
		board:     NewRoadmapBoard(cfg.ProjectID, cfg.Quarters, remote, alert),
		newKey:    uuid.NewString,
		now:       time.Now,
	}
	s.detach = []func(){
		Attach(bus, s.panel),
		Attach(bus, s.docs),
		Attach(bus, s.board),
	}
	return s
}

// Panel returns the chat panel.
func (s *Session) Panel() *ChatPanel { return s.panel }

// Documents returns the document workspace.
func (s *Session) Documents() *DocumentWorkspace { return s.docs }

// Board returns the roadmap board.
func (s *Session) Board() *RoadmapBoard { return s.board }

// Close detaches the surfaces from the bus.
func (s *Session) Close() {
	for _, d := range s.detach {
		d()
	}
}

// Load fetches the project state, the recent transcript and the roadmap.
// Nothing is replayed on the bus for late subscribers, so this is how a
// newly opened session catches up. Errors are joined; partial state is
// still applied.
func (s *Session) Load(ctx context.Context) error {
	var errs []error

	res := s.refresher.RefreshAs(ctx, s.cfg.ProjectID, update.SourceAPI)
	for _, e := range res.Errors {
		errs = append(errs, errors.New(e))
	}

	msgs, err := s.remote.RecentMessages(ctx, s.cfg.ProjectID, chat.ClampRecentLimit(s.cfg.RecentLimit))
	if err != nil {
		errs = append(errs, fmt.Errorf("load transcript: %w", err))
	} else {
		s.panel.SetTranscript(msgs)
	}

	if _, err := s.reloadRoadmap(ctx, update.SourceAPI); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Send runs one chat turn: the user message is shown and persisted, the
// agent is called with the prior history, its reply is shown and persisted,
// and the project is refreshed exactly once. With the roadmap agent the
// task list is reloaded instead, published as an agent change.
func (s *Session) Send(ctx context.Context, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	history := s.panel.History()

	s.record(ctx, chat.CreateRequest{Role: chat.RoleUser, Content: text})

	req := agent.ChatRequest{
		Message:        text,
		TemplateType:   s.cfg.TemplateType,
		AgentType:      s.cfg.AgentType,
		ProjectID:      s.cfg.ProjectID,
		ProjectContext: s.panel.ProjectContext(),
		ChatHistory:    history,
	}
	call := s.bridge.Chat
	if s.cfg.AgentType == agent.TypeRoadmap {
		call = s.bridge.RoadmapChat
	}
	reply, err := call(ctx, req)
	if err != nil {
		s.alert.Notify(notifier.Notification{
			Title:   "Agent unavailable",
			Message: err.Error(),
			Level:   notifier.LevelError,
			Source:  "chat",
		})
		return nil, fmt.Errorf("chat: %w", err)
	}

	s.record(ctx, chat.CreateRequest{
		Role:        chat.RoleAssistant,
		Content:     reply.Content,
		MessageType: reply.Type,
		Metadata:    reply.Metadata,
	})

	if s.cfg.AgentType == agent.TypeRoadmap {
		tasks, err := s.reloadRoadmap(ctx, update.SourceAgent)
		if err != nil {
			s.alert.Notify(notifier.Notification{
				Title:   "Roadmap not reloaded",
				Message: err.Error(),
				Level:   notifier.LevelWarning,
				Source:  "roadmap",
			})
		}
		return &Turn{Reply: reply, Tasks: tasks}, nil
	}
	res := s.refresh(ctx)
	return &Turn{Reply: reply, Refresh: res}, nil
}

// AgentHistory returns what the session's agent remembers of the
// conversation. It can differ from the transcript after a restart.
func (s *Session) AgentHistory(ctx context.Context) ([]agent.ConversationEntry, error) {
	return s.bridge.Conversation(ctx, s.cfg.AgentType)
}

// ClearAgentHistory makes the session's agent forget the conversation.
// The persisted transcript is kept.
func (s *Session) ClearAgentHistory(ctx context.Context) error {
	return s.bridge.ClearConversation(ctx, s.cfg.AgentType)
}

// AgentType reports which agent the session talks to.
func (s *Session) AgentType() agent.Type { return s.cfg.AgentType }

// record appends a message locally and persists it under a fresh
// idempotency key. A failed write is reported but does not abort the turn.
func (s *Session) record(ctx context.Context, req chat.CreateRequest) {
	key := s.newKey()
	s.panel.Append(chat.Message{
		ID:          key,
		ProjectID:   s.cfg.ProjectID,
		Role:        req.Role,
		Content:     req.Content,
		MessageType: req.MessageType,
		Metadata:    req.Metadata,
		CreatedAt:   s.now().UTC(),
	})

	msg, err := s.remote.CreateMessage(ctx, s.cfg.ProjectID, req, key)
	if err != nil {
		slog.WarnContext(ctx, "persist chat message failed", "project_id", s.cfg.ProjectID, "role", req.Role, "error", err)
		s.alert.Notify(notifier.Notification{
			Title:   "Message not saved",
			Message: err.Error(),
			Level:   notifier.LevelWarning,
			Source:  "chat",
		})
		return
	}
	s.panel.Confirm(key, *msg)
}

// refresh runs a full refresh and reports its failures to the user.
func (s *Session) refresh(ctx context.Context) Result {
	res := s.refresher.Refresh(ctx, s.cfg.ProjectID)
	if !res.OK() {
		s.alert.Notify(notifier.Notification{
			Title:   "Refresh incomplete",
			Message: strings.Join(res.Errors, "; "),
			Level:   notifier.LevelWarning,
			Source:  "refresh",
		})
	}
	return res
}

// Generate asks the agent for a complete PRD, Spec or roadmap in one shot,
// then refreshes what it may have written.
func (s *Session) Generate(ctx context.Context, target Target, prompt string) (*agent.ChatResponse, error) {
	req := agent.ChatRequest{
		Message:        prompt,
		TemplateType:   s.cfg.TemplateType,
		ProjectID:      s.cfg.ProjectID,
		ProjectContext: s.panel.ProjectContext(),
	}

	var (
		reply *agent.ChatResponse
		err   error
	)
	switch target {
	case TargetPRD:
		reply, err = s.bridge.GeneratePRD(ctx, req)
	case TargetSpec:
		reply, err = s.bridge.GenerateSpec(ctx, req)
	case TargetRoadmap:
		reply, err = s.bridge.GenerateRoadmap(ctx, req)
	default:
		return nil, fmt.Errorf("%w: unknown generation target %q", domain.ErrValidation, target)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", target, err)
	}

	if target == TargetRoadmap {
		if _, err := s.reloadRoadmap(ctx, update.SourceAgent); err != nil {
			return reply, err
		}
		return reply, nil
	}
	s.refresh(ctx)
	return reply, nil
}

// reloadRoadmap fetches the task list and publishes it as a roadmap event.
func (s *Session) reloadRoadmap(ctx context.Context, src update.Source) ([]roadmap.Task, error) {
	tasks, err := s.remote.ListRoadmap(ctx, s.cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load roadmap: %w", err)
	}
	s.bus.EmitRoadmap(ctx, s.cfg.ProjectID, tasks, src)
	return tasks, nil
}
