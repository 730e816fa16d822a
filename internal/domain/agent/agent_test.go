package agent

import (
	"errors"
	"testing"

	"github.com/Strob0t/PMForge/internal/domain"
)

func TestNormalize(t *testing.T) {
	r := ChatRequest{Message: "draft a PRD"}
	if err := r.Normalize(); err != nil {
		t.Fatal(err)
	}
	if r.TemplateType != DefaultTemplate || r.AgentType != TypePRD {
		t.Errorf("defaults not applied: %+v", r)
	}

	if err := (&ChatRequest{}).Normalize(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := (&ChatRequest{Message: "x", AgentType: "design"}).Normalize(); err == nil {
		t.Error("expected error for unknown agent type")
	}
}

func TestValidateRoadmap(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{"missing project", ChatRequest{ProjectContext: &ProjectContext{ExistingPRD: "x"}}, true},
		{"missing context", ChatRequest{ProjectID: "p"}, true},
		{"blank prd", ChatRequest{ProjectID: "p", ProjectContext: &ProjectContext{ExistingPRD: " "}}, true},
		{"ok", ChatRequest{ProjectID: "p", ProjectContext: &ProjectContext{ExistingPRD: "# PRD"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.ValidateRoadmap()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpecTemplate(t *testing.T) {
	cases := map[string]string{"": "api", "lean": "api", "enterprise": "api", "microservice": "microservice"}
	for in, want := range cases {
		if got := SpecTemplate(in); got != want {
			t.Errorf("SpecTemplate(%q) = %q, want %q", in, got, want)
		}
	}
}
