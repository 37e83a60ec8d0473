package cache

import (
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	c, err := New(true, t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := Key("direct", "gpt-4", "review this diff")
	if _, ok := c.Get(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	if err := c.Put(key, "cached review"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	body, ok := c.Get(key)
	if !ok || body != "cached review" {
		t.Errorf("Get = (%q, %v), want (cached review, true)", body, ok)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, err := New(true, t.TempDir(), time.Nanosecond)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := Key("direct", "gpt-4", "p")
	if err := c.Put(key, "stale"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("expired entry should miss")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Put("k", "v"); err != nil {
		t.Errorf("disabled Put error: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache should always miss")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("disabled Clear error: %v", err)
	}
}

func TestCache_Clear(t *testing.T) {
	c, err := New(true, t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	key := Key("mcp", "", "p")
	c.Put(key, "v")

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("entry survived Clear")
	}
}

func TestKey_DistinguishesInputs(t *testing.T) {
	a := Key("direct", "gpt-4", "p")
	b := Key("direct", "gpt-4o", "p")
	c := Key("direct", "gpt-4", "q")
	if a == b || a == c {
		t.Error("keys should differ when model or prompt differ")
	}
}
