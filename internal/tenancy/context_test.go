package tenancy

import (
	"context"
	"testing"
)

func TestWithOrgIDAndOrgIDFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithOrgID(ctx, "org-123")

	got, ok := OrgIDFromContext(ctx)
	if !ok {
		t.Fatalf("expected org id to be present")
	}
	if got != "org-123" {
		t.Fatalf("expected org-123, got %s", got)
	}
}

func TestOrgIDFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Fatalf("expected missing org id to return false")
	}

	ctx = context.WithValue(ctx, orgKey, 42)
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Fatalf("expected non-string org id to return false")
	}

	ctx = WithOrgID(context.Background(), "")
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Fatalf("expected empty org id to return false")
	}
}

func TestSessionScopedValues(t *testing.T) {
	ctx := WithCenterID(context.Background(), "center-9")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithUpstreamToken(ctx, "tok")
	ctx = WithSessionID(ctx, "sess-1")

	checks := []struct {
		name string
		get  func(context.Context) (string, bool)
		want string
	}{
		{"center", CenterIDFromContext, "center-9"},
		{"user", UserIDFromContext, "user-1"},
		{"token", UpstreamTokenFromContext, "tok"},
		{"session", SessionIDFromContext, "sess-1"},
	}
	for _, c := range checks {
		got, ok := c.get(ctx)
		if !ok || got != c.want {
			t.Errorf("%s: got %q (ok=%v), want %q", c.name, got, ok, c.want)
		}
	}
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Errorf("org id should be absent")
	}
}
