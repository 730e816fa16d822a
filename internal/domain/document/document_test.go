package document

import (
	"errors"
	"testing"

	"github.com/Strob0t/PMForge/internal/domain"
)

func TestNormalizeCreatePRDDefaults(t *testing.T) {
	req := CreatePRDRequest{Content: "# Goals"}
	if err := NormalizeCreatePRD(&req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Title != DefaultPRDTitle {
		t.Errorf("expected default title, got %q", req.Title)
	}
	if req.Status != StatusDraft {
		t.Errorf("expected draft status, got %q", req.Status)
	}
}

func TestNormalizeCreateSpecRejectsUnknownStatus(t *testing.T) {
	req := CreateSpecRequest{Status: "published"}
	err := NormalizeCreateSpec(&req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateUpdate(t *testing.T) {
	empty := ""
	bad := Status("shipped")
	good := StatusApproved

	if err := ValidateUpdatePRD(&UpdatePRDRequest{Title: &empty}); err == nil {
		t.Error("expected error for empty title")
	}
	if err := ValidateUpdateSpec(&UpdateSpecRequest{Status: &bad}); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := ValidateUpdateSpec(&UpdateSpecRequest{Status: &good}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUpdateApplyKeepsNilFields(t *testing.T) {
	s := Spec{Title: "API", Content: "v1", TechnicalDetails: "grpc", Status: StatusDraft}
	content := "v2"
	req := UpdateSpecRequest{Content: &content}
	req.Apply(&s)

	if s.Content != "v2" {
		t.Errorf("expected content v2, got %q", s.Content)
	}
	if s.Title != "API" || s.TechnicalDetails != "grpc" || s.Status != StatusDraft {
		t.Errorf("nil fields changed: %+v", s)
	}
}

func TestKindLabel(t *testing.T) {
	if KindPRD.Label() != "PRD" || KindSpec.Label() != "Spec" {
		t.Errorf("unexpected labels: %s %s", KindPRD.Label(), KindSpec.Label())
	}
}
