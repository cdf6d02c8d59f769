package authn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	accountdomain "libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/security"
	sessiondomain "libmanage/backend/internal/session/domain"
)

// memSessions is an in-memory SessionFinder that records lookups.
type memSessions struct {
	m       map[string]*sessiondomain.Session
	lookups int
	err     error
}

func (s *memSessions) FindEnabled(ctx context.Context, id string) (*sessiondomain.Session, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	sess, ok := s.m[id]
	if !ok || !sess.Enabled {
		return nil, nil
	}
	return sess, nil
}

var userSubject = security.Subject{Email: "a@x.com", Roles: accountdomain.NewRoles(accountdomain.RoleUser)}

func setup(t *testing.T) (*Pipeline, *security.TokenCodec, *memSessions) {
	t.Helper()
	codec := security.NewTestTokenCodec()
	sessions := &memSessions{m: map[string]*sessiondomain.Session{
		"sid-1": {ID: "sid-1", AccountID: "acc-1", Enabled: true},
	}}
	return NewPipeline(codec, sessions), codec, sessions
}

func issue(t *testing.T, codec *security.TokenCodec, subject security.Subject, purpose security.Purpose, sid string) string {
	t.Helper()
	tok, err := codec.Issue(subject, purpose, sid)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok.Token
}

func TestPipeline_Valid(t *testing.T) {
	p, codec, _ := setup(t)
	principal, err := p.Authenticate(context.Background(), issue(t, codec, userSubject, security.PurposeAccess, "sid-1"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.Subject != "a@x.com" || principal.SessionID != "sid-1" || principal.AccountID != "acc-1" {
		t.Errorf("principal = %+v", principal)
	}
	if !principal.Roles.Has(accountdomain.RoleUser) || principal.IsAdmin() {
		t.Errorf("roles = %v", principal.Roles)
	}
	if principal.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should be set")
	}
}

func TestPipeline_Malformed(t *testing.T) {
	p, _, sessions := setup(t)
	_, err := p.Authenticate(context.Background(), "not.a.token")
	if !errors.Is(err, security.ErrMalformedToken) {
		t.Fatalf("want ErrMalformedToken, got %v", err)
	}
	if sessions.lookups != 0 {
		t.Error("session store should not be consulted after a parse failure")
	}
}

func TestPipeline_InvalidSignature(t *testing.T) {
	p, _, sessions := setup(t)
	other := security.NewTokenCodec([]byte(strings.Repeat("x", 64)), "NTL", security.TokenTTLs{Access: time.Hour})
	tok, err := other.Issue(userSubject, security.PurposeAccess, "sid-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Authenticate(context.Background(), tok.Token); !errors.Is(err, security.ErrInvalidSignature) {
		t.Fatalf("want ErrInvalidSignature, got %v", err)
	}
	if sessions.lookups != 0 {
		t.Error("session store should not be consulted after a signature failure")
	}
}

func TestPipeline_ExpiredStopsAtExpiry(t *testing.T) {
	p, codec, sessions := setup(t)
	codec.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	// A reset token for a revoked session fails three checks; expiry must be reported first.
	delete(sessions.m, "sid-1")
	tok := issue(t, codec, userSubject, security.PurposeResetPassword, "sid-1")
	codec.Now = time.Now

	_, err := p.Authenticate(context.Background(), tok)
	if !errors.Is(err, security.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
	if sessions.lookups != 0 {
		t.Error("session store should not be consulted for an expired token")
	}
}

func TestPipeline_WrongPurpose(t *testing.T) {
	p, codec, sessions := setup(t)
	for _, purpose := range []security.Purpose{security.PurposeRefresh, security.PurposeResetPassword} {
		_, err := p.Authenticate(context.Background(), issue(t, codec, userSubject, purpose, "sid-1"))
		if !errors.Is(err, ErrWrongTokenPurpose) {
			t.Errorf("%s: want ErrWrongTokenPurpose, got %v", purpose, err)
		}
	}
	if sessions.lookups != 0 {
		t.Error("session store should not be consulted for a non-access token")
	}
}

func TestPipeline_SessionRevoked(t *testing.T) {
	p, codec, sessions := setup(t)
	tok := issue(t, codec, userSubject, security.PurposeAccess, "sid-1")
	sessions.m["sid-1"].Enabled = false
	if _, err := p.Authenticate(context.Background(), tok); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("disabled: want ErrSessionRevoked, got %v", err)
	}
	tok = issue(t, codec, userSubject, security.PurposeAccess, "sid-unknown")
	if _, err := p.Authenticate(context.Background(), tok); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("unknown: want ErrSessionRevoked, got %v", err)
	}
}

func TestPipeline_StoreFailureIsNotAuthError(t *testing.T) {
	p, codec, sessions := setup(t)
	sessions.err = errors.New("db down")
	_, err := p.Authenticate(context.Background(), issue(t, codec, userSubject, security.PurposeAccess, "sid-1"))
	if err == nil || IsAuthError(err) {
		t.Fatalf("store failure should surface as an internal error, got %v", err)
	}
}

func TestPipeline_UnknownRoleInScope(t *testing.T) {
	p, codec, _ := setup(t)
	bad := security.Subject{Email: "a@x.com", Roles: accountdomain.Roles{"LIBRARIAN"}}
	if _, err := p.Authenticate(context.Background(), issue(t, codec, bad, security.PurposeAccess, "sid-1")); !errors.Is(err, security.ErrMalformedToken) {
		t.Fatalf("want ErrMalformedToken, got %v", err)
	}
}

func TestResult(t *testing.T) {
	cases := map[error]string{
		nil:                          "valid",
		security.ErrMalformedToken:   "malformed",
		security.ErrInvalidSignature: "invalid_signature",
		security.ErrTokenExpired:     "expired",
		ErrWrongTokenPurpose:         "wrong_purpose",
		ErrSessionRevoked:            "session_revoked",
		ErrUnauthenticated:           "unauthenticated",
		errors.New("x"):              "error",
	}
	for err, want := range cases {
		if got := Result(err); got != want {
			t.Errorf("Result(%v) = %q, want %q", err, got, want)
		}
	}
}
