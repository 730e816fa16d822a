package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// fakeRemote is an in-memory Remote.
type fakeRemote struct {
	mu       sync.Mutex
	project  *project.Project
	prd      *document.PRD
	spec     *document.Spec
	tasks    []roadmap.Task
	messages []chat.Message
	keys     []string

	projectErr error
	prdErr     error
	specErr    error
	createErr  error
}

func (f *fakeRemote) GetProject(_ context.Context, id string) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	if f.project == nil || f.project.ID != id {
		return nil, fmt.Errorf("project: %w", domain.ErrNotFound)
	}
	p := *f.project
	return &p, nil
}

func (f *fakeRemote) GetPRD(_ context.Context, _ string) (*document.PRD, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prdErr != nil {
		return nil, f.prdErr
	}
	if f.prd == nil {
		return nil, fmt.Errorf("prd: %w", domain.ErrNotFound)
	}
	d := *f.prd
	return &d, nil
}

func (f *fakeRemote) GetSpec(_ context.Context, _ string) (*document.Spec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.specErr != nil {
		return nil, f.specErr
	}
	if f.spec == nil {
		return nil, fmt.Errorf("spec: %w", domain.ErrNotFound)
	}
	s := *f.spec
	return &s, nil
}

func (f *fakeRemote) UpsertPRD(_ context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prd == nil {
		f.prd = &document.PRD{ID: "prd-1", ProjectID: projectID, Title: document.DefaultPRDTitle, Status: document.StatusDraft}
	}
	req.Apply(f.prd)
	d := *f.prd
	return &d, nil
}

func (f *fakeRemote) UpsertSpec(_ context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spec == nil {
		f.spec = &document.Spec{ID: "spec-1", ProjectID: projectID, Title: document.DefaultSpecTitle, Status: document.StatusDraft}
	}
	req.Apply(f.spec)
	s := *f.spec
	return &s, nil
}

func (f *fakeRemote) ListRoadmap(_ context.Context, _ string) ([]roadmap.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]roadmap.Task(nil), f.tasks...), nil
}

func (f *fakeRemote) CreateRoadmapTask(_ context.Context, projectID string, req roadmap.CreateTaskRequest) (*roadmap.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := roadmap.Task{
		ID:        fmt.Sprintf("task-%d", len(f.tasks)+1),
		ProjectID: projectID,
		Title:     req.Title,
		Priority:  req.Priority,
		Status:    req.Status,
		Quarter:   req.Quarter,
	}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeRemote) UpdateRoadmapTask(_ context.Context, id string, req roadmap.UpdateTaskRequest) (*roadmap.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			req.Apply(&f.tasks[i])
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("task: %w", domain.ErrNotFound)
}

func (f *fakeRemote) DeleteRoadmapTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task: %w", domain.ErrNotFound)
}

func (f *fakeRemote) RecentMessages(_ context.Context, _ string, limit int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]chat.Message(nil), msgs...), nil
}

func (f *fakeRemote) CreateMessage(_ context.Context, projectID string, req chat.CreateRequest, key string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.keys = append(f.keys, key)
	m := chat.Message{
		ID:          fmt.Sprintf("msg-%d", len(f.messages)+1),
		ProjectID:   projectID,
		Role:        req.Role,
		Content:     req.Content,
		MessageType: req.MessageType,
		Metadata:    chat.NormalizeMetadata(req.Metadata),
	}
	f.messages = append(f.messages, m)
	return &m, nil
}

// fakeBridge answers every call with reply and optionally mutates the
// remote, as the real agent does through its own tools.
type fakeBridge struct {
	mu         sync.Mutex
	reply      agent.ChatResponse
	err        error
	requests   []agent.ChatRequest
	calls      []string
	sideEffect func()
	memory     map[agent.Type][]agent.ConversationEntry
}

func (b *fakeBridge) call(op string, req agent.ChatRequest) (*agent.ChatResponse, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.calls = append(b.calls, op)
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	if b.sideEffect != nil {
		b.sideEffect()
	}
	r := b.reply
	return &r, nil
}

func (b *fakeBridge) Chat(_ context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	return b.call("chat", req)
}

func (b *fakeBridge) GeneratePRD(_ context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	return b.call("generate_prd", req)
}

func (b *fakeBridge) GenerateSpec(_ context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	return b.call("generate_spec", req)
}

func (b *fakeBridge) GenerateRoadmap(_ context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	if err := req.ValidateRoadmap(); err != nil {
		return nil, err
	}
	return b.call("generate_roadmap", req)
}

func (b *fakeBridge) RoadmapChat(_ context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	return b.call("roadmap_chat", req)
}

func (b *fakeBridge) Conversation(_ context.Context, t agent.Type) ([]agent.ConversationEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]agent.ConversationEntry{}, b.memory[t]...), nil
}

func (b *fakeBridge) ClearConversation(_ context.Context, t agent.Type) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.memory, t)
	return nil
}

func (b *fakeBridge) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// recordingAlerter captures notifications synchronously.
type recordingAlerter struct {
	mu   sync.Mutex
	sent []notifier.Notification
}

func (a *recordingAlerter) Notify(n notifier.Notification) bool {
	a.mu.Lock()
	a.sent = append(a.sent, n)
	a.mu.Unlock()
	return true
}

func (a *recordingAlerter) all() []notifier.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]notifier.Notification(nil), a.sent...)
}

// captureEvents subscribes to bus and records every event.
func captureEvents(bus *eventbus.Bus) *[]update.Event {
	var events []update.Event
	bus.Subscribe(func(_ context.Context, ev update.Event) error {
		events = append(events, ev)
		return nil
	})
	return &events
}
