package workspace

import (
	"strings"
	"testing"

	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
)

func TestChatPanel_ProjectContext(t *testing.T) {
	p := NewChatPanel(testProject)
	p.Apply(update.Event{
		ProjectID: testProject, Type: update.TypeAll, Source: update.SourceAgent,
		Project: &project.Project{ID: testProject, Name: "Alpha", Description: "desc"},
		PRD:     &document.PRD{ProjectID: testProject, Content: "prd body"},
	})
	p.Apply(update.Event{
		ProjectID: testProject, Type: update.TypeRoadmap, Source: update.SourceAPI,
		Roadmap: &update.RoadmapPayload{Tasks: []roadmap.Task{{Title: "Ship", Quarter: "Q1 2025", Priority: roadmap.PriorityP0, Status: roadmap.StatusPlanned}}},
	})
	p.Apply(update.Event{ProjectID: otherProject, Type: update.TypeSpec, Source: update.SourceAgent,
		Spec: &document.Spec{ProjectID: otherProject, Content: "foreign"}})

	pc := p.ProjectContext()
	if pc.ProjectName != "Alpha" || pc.ExistingPRD != "prd body" || pc.ExistingSpec != "" {
		t.Errorf("unexpected context %+v", pc)
	}
	if !strings.Contains(pc.ExistingRoadmap, "Ship") {
		t.Errorf("roadmap summary missing task: %q", pc.ExistingRoadmap)
	}
}

func TestChatPanel_TranscriptDefaults(t *testing.T) {
	p := NewChatPanel(testProject)
	p.SetTranscript([]chat.Message{{ID: "m1", Role: chat.RoleUser, Content: "hi"}})
	p.Append(chat.Message{ID: "local", Role: chat.RoleAssistant, Content: "hello"})

	msgs := p.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].MessageType != chat.DefaultMessageType || string(msgs[0].Metadata) != "{}" {
		t.Errorf("defaults not applied: %+v", msgs[0])
	}

	if !p.Confirm("local", chat.Message{ID: "m2", Role: chat.RoleAssistant, Content: "hello"}) {
		t.Fatal("placeholder not found")
	}
	if p.Messages()[1].ID != "m2" {
		t.Error("placeholder not replaced")
	}
	if h := p.History(); len(h) != 2 || h[1].Role != "assistant" {
		t.Errorf("unexpected history %+v", h)
	}
}
