package chat

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Strob0t/PMForge/internal/domain"
)

func TestNormalizeCreate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid user", CreateRequest{Role: RoleUser, Content: "hi"}, false},
		{"valid assistant", CreateRequest{Role: RoleAssistant, Content: "hello", MessageType: "clarification"}, false},
		{"bad role", CreateRequest{Role: "system", Content: "x"}, true},
		{"blank content", CreateRequest{Role: RoleUser, Content: "   "}, true},
		{"bad metadata", CreateRequest{Role: RoleUser, Content: "x", Metadata: json.RawMessage(`{`)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NormalizeCreate(&tt.req)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.req.MessageType == "" {
				t.Error("message type default not applied")
			}
			if len(tt.req.Metadata) == 0 {
				t.Error("metadata default not applied")
			}
		})
	}
}

func TestNormalizeCreateDefaults(t *testing.T) {
	req := CreateRequest{Role: RoleUser, Content: "x", Metadata: json.RawMessage("null")}
	if err := NormalizeCreate(&req); err != nil {
		t.Fatal(err)
	}
	if req.MessageType != DefaultMessageType {
		t.Errorf("message type = %q", req.MessageType)
	}
	if string(req.Metadata) != "{}" {
		t.Errorf("metadata = %s", req.Metadata)
	}
}

func TestClampRecentLimit(t *testing.T) {
	cases := map[int]int{0: 50, -1: 50, 10: 10, 200: 200, 500: 200}
	for in, want := range cases {
		if got := ClampRecentLimit(in); got != want {
			t.Errorf("ClampRecentLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestReverse(t *testing.T) {
	msgs := []Message{{ID: "3"}, {ID: "2"}, {ID: "1"}}
	Reverse(msgs)
	for i, want := range []string{"1", "2", "3"} {
		if msgs[i].ID != want {
			t.Errorf("index %d: got %s, want %s", i, msgs[i].ID, want)
		}
	}
	Reverse(nil)
}
