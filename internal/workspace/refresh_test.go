package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
)

const testProject = "6f1c2a52-3e0b-4c4b-9d7e-0f7b8b6b1a01"

func TestRefresh_MissingPRDIsAbsenceNotError(t *testing.T) {
	remote := &fakeRemote{
		project: &project.Project{ID: testProject, Name: "Alpha"},
		spec:    &document.Spec{ID: "s1", ProjectID: testProject, Content: "spec"},
	}
	bus := eventbus.New()
	events := captureEvents(bus)

	res := NewRefresher(remote, bus).Refresh(context.Background(), testProject)

	if res.PRD != nil {
		t.Errorf("expected no PRD, got %+v", res.PRD)
	}
	if res.Spec == nil || res.Project == nil {
		t.Fatalf("expected project and spec, got %+v", res)
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
	if len(*events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Type != update.TypeAll || ev.Source != update.SourceAgent {
		t.Errorf("unexpected envelope %s/%s", ev.Type, ev.Source)
	}
	if ev.Project == nil || ev.Spec == nil || ev.PRD != nil {
		t.Errorf("event should carry only project and spec: %+v", ev)
	}
}

func TestRefresh_ProjectFailureDoesNotAbortDocuments(t *testing.T) {
	remote := &fakeRemote{
		projectErr: errors.New("connection refused"),
		prd:        &document.PRD{ID: "d1", ProjectID: testProject, Content: "prd"},
		spec:       &document.Spec{ID: "s1", ProjectID: testProject, Content: "spec"},
	}
	bus := eventbus.New()
	events := captureEvents(bus)

	res := NewRefresher(remote, bus).Refresh(context.Background(), testProject)

	if res.PRD == nil || res.Spec == nil {
		t.Fatalf("expected prd and spec despite project failure: %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "project") {
		t.Fatalf("expected one project error, got %v", res.Errors)
	}
	if len(*events) != 1 {
		t.Fatalf("expected one event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Project != nil || ev.PRD == nil || ev.Spec == nil {
		t.Errorf("event should carry prd and spec only: %+v", ev)
	}
}

func TestRefresh_DocumentFailureRecorded(t *testing.T) {
	remote := &fakeRemote{
		project: &project.Project{ID: testProject},
		prdErr:  errors.New("timeout"),
	}
	res := NewRefresher(remote, eventbus.New()).Refresh(context.Background(), testProject)
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "prd:") {
		t.Fatalf("expected prd error, got %v", res.Errors)
	}
	if res.OK() {
		t.Error("OK should be false")
	}
}

func TestRefreshAs_UsesGivenSource(t *testing.T) {
	remote := &fakeRemote{project: &project.Project{ID: testProject}}
	bus := eventbus.New()
	events := captureEvents(bus)

	NewRefresher(remote, bus, WithSource(update.SourceManual)).Refresh(context.Background(), testProject)
	NewRefresher(remote, bus).RefreshAs(context.Background(), testProject, update.SourceAPI)

	if (*events)[0].Source != update.SourceManual || (*events)[1].Source != update.SourceAPI {
		t.Errorf("unexpected sources %s, %s", (*events)[0].Source, (*events)[1].Source)
	}
}

func TestRefreshPRD(t *testing.T) {
	remote := &fakeRemote{}
	bus := eventbus.New()
	events := captureEvents(bus)
	r := NewRefresher(remote, bus)

	prd, err := r.RefreshPRD(context.Background(), testProject)
	if err != nil || prd != nil {
		t.Fatalf("missing PRD should yield nil, nil; got %v, %v", prd, err)
	}
	if len(*events) != 0 {
		t.Fatalf("missing PRD should emit nothing, got %d events", len(*events))
	}

	remote.prd = &document.PRD{ID: "d1", ProjectID: testProject, UpdatedAt: time.Now()}
	prd, err = r.RefreshPRD(context.Background(), testProject)
	if err != nil || prd == nil {
		t.Fatalf("RefreshPRD: %v, %v", prd, err)
	}
	if len(*events) != 1 || (*events)[0].Type != update.TypePRD || (*events)[0].PRD == nil {
		t.Fatalf("expected one prd event, got %+v", *events)
	}
}

func TestRefreshSpec_Error(t *testing.T) {
	remote := &fakeRemote{specErr: errors.New("boom")}
	bus := eventbus.New()
	events := captureEvents(bus)

	if _, err := NewRefresher(remote, bus).RefreshSpec(context.Background(), testProject); err == nil {
		t.Fatal("expected error")
	}
	if len(*events) != 0 {
		t.Error("failed refresh must not emit")
	}
}
