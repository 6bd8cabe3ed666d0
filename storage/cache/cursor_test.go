package cache

import (
	"context"
	"testing"
)

func TestMemoryCursorCache(t *testing.T) {
	c := NewMemoryCursorCache()
	ctx := context.Background()

	// absent cursor is empty, not an error
	got, err := c.GetCursor(ctx, "u1", "beginner")
	if err != nil {
		t.Fatalf("GetCursor() failed: %v", err)
	}
	if got != "" {
		t.Errorf("GetCursor() = %q, want empty", got)
	}

	if err = c.SetCursor(ctx, "u1", "beginner", "variables"); err != nil {
		t.Fatalf("SetCursor() failed: %v", err)
	}
	if got, _ = c.GetCursor(ctx, "u1", "beginner"); got != "variables" {
		t.Errorf("GetCursor() = %q", got)
	}

	// cursors are scoped per user and tier
	if got, _ = c.GetCursor(ctx, "u2", "beginner"); got != "" {
		t.Errorf("GetCursor(other user) = %q", got)
	}
	if got, _ = c.GetCursor(ctx, "u1", "advanced"); got != "" {
		t.Errorf("GetCursor(other tier) = %q", got)
	}

	// overwrite
	if err = c.SetCursor(ctx, "u1", "beginner", "methods"); err != nil {
		t.Fatalf("SetCursor() failed: %v", err)
	}
	if got, _ = c.GetCursor(ctx, "u1", "beginner"); got != "methods" {
		t.Errorf("GetCursor() after overwrite = %q", got)
	}
}
