package natskv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/PMForge/internal/middleware"
)

var _ middleware.Reserver = (*Cache)(nil)

func TestKey(t *testing.T) {
	tests := map[string]string{
		"prd:0b7c":                     "prd.0b7c",
		"idem:POST:/api/v1/projects/x": "idem.POST._api_v1_projects_x",
		"a b*c>":                       "a_b_c_",
	}
	for in, want := range tests {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCache_Integration(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c, err := Open(ctx, js, "PMFORGE_TEST_CACHE", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "project:abc", []byte("v1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, ok, err := c.Get(ctx, "project:abc")
	if err != nil || !ok || string(val) != "v1" {
		t.Fatalf("Get = %s, %v, %v", val, ok, err)
	}
	if err := c.Delete(ctx, "project:abc"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "project:abc"); ok {
		t.Fatal("expected miss after delete")
	}
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of missing key should not error: %v", err)
	}

	key := "idem:POST:/api/v1/projects/p1/chat/messages:k1"
	_ = c.Delete(ctx, key)
	if ok, err := c.Reserve(ctx, key, []byte("pending")); err != nil || !ok {
		t.Fatalf("first Reserve = %v, %v", ok, err)
	}
	if ok, err := c.Reserve(ctx, key, []byte("pending")); err != nil || ok {
		t.Fatalf("second Reserve = %v, %v; want false, nil", ok, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if ok, err := c.Reserve(ctx, key, []byte("pending")); err != nil || !ok {
		t.Fatalf("Reserve after release = %v, %v", ok, err)
	}
	_ = c.Delete(ctx, key)
}
