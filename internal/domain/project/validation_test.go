package project

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/PMForge/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestValidateCreateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid", CreateRequest{Name: "Checkout revamp", Description: "Q3 initiative"}, false},
		{"valid without description", CreateRequest{Name: "Search"}, false},
		{"empty name", CreateRequest{}, true},
		{"name too long", CreateRequest{Name: strings.Repeat("a", 256)}, true},
		{"control characters", CreateRequest{Name: "bad\x00name"}, true},
		{"description too long", CreateRequest{Name: "ok", Description: strings.Repeat("d", 2001)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateRequest(&tt.req)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateUpdateRequest(t *testing.T) {
	if err := ValidateUpdateRequest(&UpdateRequest{}); err != nil {
		t.Errorf("empty update should be valid, got %v", err)
	}
	if err := ValidateUpdateRequest(&UpdateRequest{Name: strPtr("")}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := ValidateUpdateRequest(&UpdateRequest{Description: strPtr(strings.Repeat("x", 2001))}); err == nil {
		t.Error("expected error for long description")
	}
	if err := ValidateUpdateRequest(&UpdateRequest{Name: strPtr("Renamed")}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
