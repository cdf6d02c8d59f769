package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	accountdomain "libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/audit"
	"libmanage/backend/internal/authn"
)

type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(_ context.Context, token string) (*authn.Principal, error) {
	switch token {
	case "good":
		return &authn.Principal{Subject: "a@x.com", AccountID: "acc-1", SessionID: "sess-1", Roles: accountdomain.Roles{accountdomain.RoleUser}}, nil
	case "revoked":
		return nil, authn.ErrSessionRevoked
	case "broken":
		return nil, errors.New("store unavailable")
	}
	return nil, authn.ErrUnauthenticated
}

func withBearer(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		"authorization": "Bearer " + token,
		"x-real-ip":     "10.1.2.3",
	}))
}

func TestAuthUnary(t *testing.T) {
	public := map[string]bool{"/grpc.health.v1.Health/Check": true}
	interceptor := AuthUnary(fakeAuthenticator{}, public)

	tests := []struct {
		name     string
		ctx      context.Context
		method   string
		wantCode codes.Code
		wantSubj string
	}{
		{"public without token", context.Background(), "/grpc.health.v1.Health/Check", codes.OK, ""},
		{"public with bad token", withBearer("junk"), "/grpc.health.v1.Health/Check", codes.OK, ""},
		{"protected without token", context.Background(), "/svc/Get", codes.Unauthenticated, ""},
		{"protected with valid token", withBearer("good"), "/svc/Get", codes.OK, "a@x.com"},
		{"protected with revoked session", withBearer("revoked"), "/svc/Get", codes.Unauthenticated, ""},
		{"protected with store failure", withBearer("broken"), "/svc/Get", codes.Unavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubj string
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				if p, ok := authn.PrincipalFrom(ctx); ok {
					gotSubj = p.Subject
				}
				return "ok", nil
			}
			_, err := interceptor(tt.ctx, "req", &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			if status.Code(err) != tt.wantCode {
				t.Fatalf("code = %v, want %v (err=%v)", status.Code(err), tt.wantCode, err)
			}
			if gotSubj != tt.wantSubj {
				t.Errorf("subject = %q, want %q", gotSubj, tt.wantSubj)
			}
		})
	}
}

func TestAuthUnary_SetsActorAndClientIP(t *testing.T) {
	interceptor := AuthUnary(fakeAuthenticator{}, nil)
	var actor, ip string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		actor = authn.ActorFrom(ctx)
		ip = audit.ClientIPFrom(ctx)
		return nil, nil
	}
	if _, err := interceptor(withBearer("good"), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Get"}, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if actor != "a@x.com" {
		t.Errorf("actor = %q, want a@x.com", actor)
	}
	if ip != "10.1.2.3" {
		t.Errorf("client ip = %q, want 10.1.2.3", ip)
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer token123", "token123"},
		{"case insensitive", "bearer token123", "token123"},
		{"invalid prefix", "Basic token123", ""},
		{"whitespace", "  Bearer   token123  ", "token123"},
		{"too short", "Bear", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
				"authorization": tt.header,
			}))
			if got := extractBearer(ctx); got != tt.want {
				t.Errorf("extractBearer = %q, want %q", got, tt.want)
			}
		})
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("missing metadata: got %q, want empty", got)
	}
}
