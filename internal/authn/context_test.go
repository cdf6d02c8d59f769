package authn

import (
	"context"
	"testing"
)

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := PrincipalFrom(ctx); ok {
		t.Fatal("empty context should carry no principal")
	}
	if ActorFrom(ctx) != SystemActor {
		t.Errorf("ActorFrom(empty) = %q, want %q", ActorFrom(ctx), SystemActor)
	}

	ctx = WithPrincipal(ctx, &Principal{Subject: "a@x.com", SessionID: "sid"})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.Subject != "a@x.com" {
		t.Fatalf("PrincipalFrom = %+v, %v", p, ok)
	}
	if ActorFrom(ctx) != "a@x.com" {
		t.Errorf("ActorFrom = %q, want principal subject", ActorFrom(ctx))
	}
	if ActorFrom(WithActor(ctx, "root@x.com")) != "root@x.com" {
		t.Error("explicit actor should win over the principal")
	}
	if _, ok := PrincipalFrom(WithPrincipal(context.Background(), nil)); ok {
		t.Error("nil principal should not be reported")
	}
}
