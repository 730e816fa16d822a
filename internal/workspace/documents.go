package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// Tab is the visible document of the workspace.
type Tab string

const (
	TabPRD  Tab = "prd"
	TabSpec Tab = "spec"
)

// DocumentState is a copy of the workspace's reconciled state.
type DocumentState struct {
	ProjectID string
	Project   *project.Project
	PRD       *document.PRD
	Spec      *document.Spec
	Tab       Tab
}

// DocumentWorkspace shows a project's PRD and Spec. Direct saves and bus
// events go through the same reconciliation; the last to arrive wins.
type DocumentWorkspace struct {
	mu        sync.Mutex
	projectID string
	project   *project.Project
	prd       *document.PRD
	spec      *document.Spec
	tab       Tab

	writer DocumentWriter
	alert  Alerter
}

// NewDocumentWorkspace creates a workspace for projectID showing the PRD tab.
func NewDocumentWorkspace(projectID string, writer DocumentWriter, alert Alerter) *DocumentWorkspace {
	return &DocumentWorkspace{
		projectID: projectID,
		tab:       TabPRD,
		writer:    writer,
		alert:     alerterOrDiscard(alert),
	}
}

// SetProject switches the workspace to another project and forgets the
// previous project's state.
func (w *DocumentWorkspace) SetProject(projectID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.projectID == projectID {
		return
	}
	w.projectID = projectID
	w.project, w.prd, w.spec = nil, nil, nil
	w.tab = TabPRD
}

// SetTab changes the visible document.
func (w *DocumentWorkspace) SetTab(t Tab) {
	w.mu.Lock()
	w.tab = t
	w.mu.Unlock()
}

// State returns a copy of the current state.
func (w *DocumentWorkspace) State() DocumentState {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := DocumentState{ProjectID: w.projectID, Tab: w.tab}
	if w.project != nil {
		p := *w.project
		st.Project = &p
	}
	if w.prd != nil {
		d := *w.prd
		st.PRD = &d
	}
	if w.spec != nil {
		s := *w.spec
		st.Spec = &s
	}
	return st
}

// Apply reconciles ev into the workspace. Events for other projects are
// ignored and absent payloads leave state untouched.
//
// A delivered document counts as changed only when there was none before,
// or its updated_at or content differs from what is shown (for a Spec,
// technical details too). Only agent events with at least one changed
// document switch the tab, to the PRD when both changed, and raise a
// notification. Re-delivering the same document is a silent overwrite.
func (w *DocumentWorkspace) Apply(ev update.Event) {
	var changed []document.Kind

	w.mu.Lock()
	if ev.ProjectID != w.projectID {
		w.mu.Unlock()
		return
	}
	if ev.Project != nil && belongs(ev.Project.ID, w.projectID) {
		p := *ev.Project
		w.project = &p
	}
	if ev.PRD != nil && belongs(ev.PRD.ProjectID, w.projectID) {
		if prdChanged(w.prd, ev.PRD) {
			changed = append(changed, document.KindPRD)
		}
		d := *ev.PRD
		w.prd = &d
	}
	if ev.Spec != nil && belongs(ev.Spec.ProjectID, w.projectID) {
		if specChanged(w.spec, ev.Spec) {
			changed = append(changed, document.KindSpec)
		}
		s := *ev.Spec
		w.spec = &s
	}
	fromAgent := ev.Source == update.SourceAgent && len(changed) > 0
	if fromAgent {
		w.tab = Tab(changed[0])
	}
	w.mu.Unlock()

	if fromAgent {
		w.alert.Notify(documentNotification(changed))
	}
}

func prdChanged(old, next *document.PRD) bool {
	return old == nil || !old.UpdatedAt.Equal(next.UpdatedAt) || old.Content != next.Content
}

func specChanged(old, next *document.Spec) bool {
	return old == nil || !old.UpdatedAt.Equal(next.UpdatedAt) || old.Content != next.Content ||
		old.TechnicalDetails != next.TechnicalDetails
}

func documentNotification(kinds []document.Kind) notifier.Notification {
	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = k.Label()
	}
	names := strings.Join(labels, " and ")
	return notifier.Notification{
		Title:   names + " updated",
		Message: fmt.Sprintf("The AI agent updated the %s.", names),
		Level:   notifier.LevelSuccess,
		Source:  string(update.SourceAgent),
	}
}

// SavePRD saves the PRD (creating it on first save) and applies the result.
func (w *DocumentWorkspace) SavePRD(ctx context.Context, req document.UpdatePRDRequest) (*document.PRD, error) {
	projectID := w.State().ProjectID
	prd, err := w.writer.UpsertPRD(ctx, projectID, req)
	if err != nil {
		return nil, fmt.Errorf("save prd: %w", err)
	}
	w.Apply(update.Event{ProjectID: projectID, Type: update.TypePRD, Source: update.SourceManual, PRD: prd})
	return prd, nil
}

// SaveSpec saves the Spec (creating it on first save) and applies the result.
func (w *DocumentWorkspace) SaveSpec(ctx context.Context, req document.UpdateSpecRequest) (*document.Spec, error) {
	projectID := w.State().ProjectID
	spec, err := w.writer.UpsertSpec(ctx, projectID, req)
	if err != nil {
		return nil, fmt.Errorf("save spec: %w", err)
	}
	w.Apply(update.Event{ProjectID: projectID, Type: update.TypeSpec, Source: update.SourceManual, Spec: spec})
	return spec, nil
}
