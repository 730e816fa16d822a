package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/port/database"
	"github.com/Strob0t/PMForge/internal/port/messagequeue"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu       sync.Mutex
	projects map[string]*project.Project
	prds     map[string]*document.PRD
	specs    map[string]*document.Spec
	tasks    []roadmap.Task
	messages []chat.Message

	// Error hooks: set these to inject failures.
	getProjectErr error
	createPRDErr  error
	listTasksErr  error

	getProjectCalls int
	getPRDCalls     int
}

func newMockStore() *mockStore {
	return &mockStore{
		projects: make(map[string]*project.Project),
		prds:     make(map[string]*document.PRD),
		specs:    make(map[string]*document.Spec),
	}
}

func (m *mockStore) addProject(name string) *project.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &project.Project{ID: uuid.NewString(), Name: name}
	m.projects[p.ID] = p
	return p
}

func (m *mockStore) Ping(context.Context) error { return nil }

func (m *mockStore) ListProjects(context.Context) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]project.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getProjectCalls++
	if m.getProjectErr != nil {
		return nil, m.getProjectErr
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreateProject(_ context.Context, req project.CreateRequest) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &project.Project{ID: uuid.NewString(), Name: req.Name, Description: req.Description}
	m.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *mockStore) UpdateProject(_ context.Context, p *project.Project) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now()
	m.projects[p.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	delete(m.prds, id)
	delete(m.specs, id)
	return nil
}

func (m *mockStore) GetPRD(_ context.Context, projectID string) (*document.PRD, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getPRDCalls++
	p, ok := m.prds[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreatePRD(_ context.Context, projectID string, req document.CreatePRDRequest) (*document.PRD, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createPRDErr != nil {
		return nil, m.createPRDErr
	}
	if _, ok := m.prds[projectID]; ok {
		return nil, domain.ErrConflict
	}
	p := &document.PRD{ID: uuid.NewString(), ProjectID: projectID, Title: req.Title, Content: req.Content, Status: req.Status}
	m.prds[projectID] = p
	cp := *p
	return &cp, nil
}

func (m *mockStore) UpdatePRD(_ context.Context, prd *document.PRD) (*document.PRD, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *prd
	m.prds[prd.ProjectID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) GetSpec(_ context.Context, projectID string) (*document.Spec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.specs[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) CreateSpec(_ context.Context, projectID string, req document.CreateSpecRequest) (*document.Spec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specs[projectID]; ok {
		return nil, domain.ErrConflict
	}
	s := &document.Spec{ID: uuid.NewString(), ProjectID: projectID, Title: req.Title, Content: req.Content,
		TechnicalDetails: req.TechnicalDetails, Status: req.Status}
	m.specs[projectID] = s
	cp := *s
	return &cp, nil
}

func (m *mockStore) UpdateSpec(_ context.Context, spec *document.Spec) (*document.Spec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *spec
	m.specs[spec.ProjectID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) ListRoadmapTasks(_ context.Context, projectID string) ([]roadmap.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listTasksErr != nil {
		return nil, m.listTasksErr
	}
	var out []roadmap.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) ListRoadmapTasksByQuarter(ctx context.Context, projectID, quarter string) ([]roadmap.Task, error) {
	all, err := m.ListRoadmapTasks(ctx, projectID)
	var out []roadmap.Task
	for _, t := range all {
		if t.Quarter == quarter {
			out = append(out, t)
		}
	}
	return out, err
}

func (m *mockStore) ListRoadmapTasksByStatus(ctx context.Context, projectID string, status roadmap.Status) ([]roadmap.Task, error) {
	all, err := m.ListRoadmapTasks(ctx, projectID)
	var out []roadmap.Task
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, err
}

func (m *mockStore) GetRoadmapTask(_ context.Context, id string) (*roadmap.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			cp := m.tasks[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateRoadmapTasks(_ context.Context, projectID string, reqs []roadmap.CreateTaskRequest) ([]roadmap.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[projectID]; !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]roadmap.Task, 0, len(reqs))
	for _, r := range reqs {
		t := roadmap.Task{ID: uuid.NewString(), ProjectID: projectID, Title: r.Title, Priority: r.Priority,
			Status: r.Status, Quarter: r.Quarter, Dependencies: r.Dependencies}
		m.tasks = append(m.tasks, t)
		out = append(out, t)
	}
	return out, nil
}

func (m *mockStore) UpdateRoadmapTask(_ context.Context, t *roadmap.Task) (*roadmap.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = *t
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteRoadmapTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ClearRoadmap(_ context.Context, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tasks[:0]
	var n int64
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	m.tasks = kept
	return n, nil
}

func (m *mockStore) ListChatMessages(_ context.Context, projectID string) ([]chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []chat.Message
	for _, msg := range m.messages {
		if msg.ProjectID == projectID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockStore) RecentChatMessages(ctx context.Context, projectID string, limit int) ([]chat.Message, error) {
	all, _ := m.ListChatMessages(ctx, projectID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *mockStore) CreateChatMessage(_ context.Context, projectID string, req chat.CreateRequest) (*chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := chat.Message{ID: uuid.NewString(), ProjectID: projectID, Role: req.Role, Content: req.Content,
		MessageType: req.MessageType, Metadata: req.Metadata, CreatedAt: time.Now()}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *mockStore) DeleteChatMessage(_ context.Context, projectID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id && m.messages[i].ProjectID == projectID {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ClearChatMessages(_ context.Context, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.messages[:0]
	var n int64
	for _, msg := range m.messages {
		if msg.ProjectID == projectID {
			n++
			continue
		}
		kept = append(kept, msg)
	}
	m.messages = kept
	return n, nil
}

// mockQueue records published messages and dispatches them to subscribers.
type mockQueue struct {
	mu         sync.Mutex
	published  []published
	handlers   []messagequeue.Handler
	publishErr error
}

type published struct {
	subject string
	payload messagequeue.ProjectUpdatedPayload
	raw     []byte
}

var _ messagequeue.Queue = (*mockQueue)(nil)

func (q *mockQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	if err := messagequeue.Validate(subject, data); err != nil {
		return err
	}
	var p messagequeue.ProjectUpdatedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	q.mu.Lock()
	q.published = append(q.published, published{subject: subject, payload: p, raw: data})
	handlers := append([]messagequeue.Handler(nil), q.handlers...)
	q.mu.Unlock()
	for _, h := range handlers {
		_ = h(ctx, subject, data)
	}
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, h)
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) events() []published {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]published(nil), q.published...)
}

// memCache is an in-memory cache.Cache that also tracks local deletes.
type memCache struct {
	mu           sync.Mutex
	data         map[string][]byte
	localDeletes []string
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) DeleteLocal(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localDeletes = append(c.localDeletes, key)
	return nil
}

// mockHub records broadcast calls.
type mockHub struct {
	mu    sync.Mutex
	calls map[string]int
}

func (h *mockHub) BroadcastProjectEvent(_ context.Context, projectID string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.calls == nil {
		h.calls = make(map[string]int)
	}
	h.calls[projectID]++
}
