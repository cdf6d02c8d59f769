package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	accountdomain "libmanage/backend/internal/account/domain"
	accounthandler "libmanage/backend/internal/account/handler"
	accountrepo "libmanage/backend/internal/account/repository"
	accountservice "libmanage/backend/internal/account/service"
	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/devotp"
	devotphandler "libmanage/backend/internal/devotp/handler"
	healthhandler "libmanage/backend/internal/health/handler"
	"libmanage/backend/internal/httpapi"
	identityhandler "libmanage/backend/internal/identity/handler"
	identityservice "libmanage/backend/internal/identity/service"
	maintenancehandler "libmanage/backend/internal/maintenance/handler"
	maintenancerepo "libmanage/backend/internal/maintenance/repository"
	maintenanceservice "libmanage/backend/internal/maintenance/service"
	"libmanage/backend/internal/notify"
	otprepo "libmanage/backend/internal/otp/repository"
	otpservice "libmanage/backend/internal/otp/service"
	"libmanage/backend/internal/security"
	sessionhandler "libmanage/backend/internal/session/handler"
	sessionrepo "libmanage/backend/internal/session/repository"
	sessionservice "libmanage/backend/internal/session/service"
)

const testPassword = "Secr3t!pw"

type nopLinks struct{}

func (nopLinks) SendResetLink(context.Context, string, string) error { return nil }

type routerFixture struct {
	router http.Handler
	hasher *security.Hasher
	repo   *accountrepo.MemoryRepository
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := accountrepo.NewMemoryRepository()
	registry := sessionservice.NewRegistry(sessionrepo.NewMemoryRepository())
	codec := security.NewTestTokenCodec()
	hasher := security.NewHasher(4)
	maintenance := maintenanceservice.NewService(maintenancerepo.NewMemoryStore(), nil, nil, nil)
	codes := devotp.NewMemoryStore()
	issuer := otpservice.NewIssuer(otpservice.NewStore(otprepo.NewMemoryRepository()), notify.NewDevSender(codes, 5*time.Minute), 5*time.Minute, nil)
	pipeline := authn.NewPipeline(codec, registry)
	cookies := httpapi.Cookies{}

	auth := identityservice.NewAuthService(accounts, registry, codec, hasher, maintenance, nil, nopLinks{}, nil)
	accountSvc := accountservice.NewService(accounts, hasher, issuer, registry, nil, nil)

	f := &routerFixture{hasher: hasher, repo: accounts}
	f.router = NewRouter(HTTPDeps{
		Auth:         pipeline,
		Gate:         maintenanceservice.NewGate(maintenance, nil, nil),
		Identity:     identityhandler.NewHandler(auth, cookies),
		Accounts:     accounthandler.NewHandler(accountSvc, cookies),
		Maintenance:  maintenancehandler.NewHandler(maintenance, nil),
		Sessions:     sessionhandler.NewHTTPHandler(sessionservice.NewLookup(registry, accounts)),
		Health:       healthhandler.NewHandler(nil, nil),
		DevOTP:       devotphandler.NewHandler(codes),
		LoginLimiter: httpapi.NewRateLimiter(1000),
	})
	f.addAccount(t, "acc-user", "a@x.com", accountdomain.RoleUser)
	f.addAccount(t, "acc-admin", "root@x.com", accountdomain.RoleAdmin, accountdomain.RoleUser)
	return f
}

func (f *routerFixture) addAccount(t *testing.T, id, email string, roles ...accountdomain.Role) {
	t.Helper()
	hash, err := f.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	now := time.Now().UTC()
	if err := f.repo.Create(context.Background(), &accountdomain.Account{
		ID: id, Email: email, PasswordHash: hash, Roles: accountdomain.NewRoles(roles...),
		EmailVerified: true, Status: accountdomain.StatusActive, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func (f *routerFixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *routerFixture) login(t *testing.T, email string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": testPassword})
	return w, w.Result().Cookies()
}

func accessCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == httpapi.AccessTokenCookie && c.Value != "" {
			return c
		}
	}
	return nil
}

type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return e
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if w := f.do(t, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestRouter_RegisterVerifyLogin(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodPost, "/account/register", map[string]string{"email": "B@x.com", "password": testPassword, "fullName": "Bea"})
	if w.Code != http.StatusOK {
		t.Fatalf("register = %d %s", w.Code, w.Body.String())
	}
	if w, _ := f.login(t, "b@x.com"); w.Code != httpapi.CodeUserNotVerified.Status {
		t.Fatalf("unverified login = %d, want %d", w.Code, httpapi.CodeUserNotVerified.Status)
	}

	w = f.do(t, http.MethodGet, "/dev/otp?contact=b@x.com&purpose=VERIFY_EMAIL", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dev otp = %d %s", w.Code, w.Body.String())
	}
	var otp struct {
		OTP string `json:"otp"`
	}
	if err := json.Unmarshal(decode(t, w).Result, &otp); err != nil || otp.OTP == "" {
		t.Fatalf("otp result: %v %q", err, otp.OTP)
	}

	w = f.do(t, http.MethodPost, "/account/verify-email", map[string]string{"email": "b@x.com", "otp": otp.OTP})
	if w.Code != http.StatusOK {
		t.Fatalf("verify = %d %s", w.Code, w.Body.String())
	}
	w, cookies := f.login(t, "b@x.com")
	if w.Code != http.StatusOK || accessCookie(cookies) == nil {
		t.Fatalf("login = %d, cookies %v", w.Code, cookies)
	}
	if bytes.Contains(w.Body.Bytes(), []byte(accessCookie(cookies).Value)) {
		t.Error("access token leaked into the response body")
	}

	w = f.do(t, http.MethodGet, "/auth/info", nil, accessCookie(cookies))
	if w.Code != http.StatusOK {
		t.Fatalf("info = %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_AuthGuards(t *testing.T) {
	f := newRouterFixture(t)
	_, userCookies := f.login(t, "a@x.com")

	tests := []struct {
		name    string
		method  string
		path    string
		cookies []*http.Cookie
		want    int
	}{
		{"info anonymous", http.MethodGet, "/auth/info", nil, http.StatusUnauthorized},
		{"session lookup anonymous", http.MethodGet, "/internal/sessions/x", nil, http.StatusUnauthorized},
		{"admin toggle as user", http.MethodPost, "/admin/config/maintenance/enable", userCookies, http.StatusForbidden},
		{"admin delete as user", http.MethodDelete, "/admin/accounts/acc-admin", userCookies, http.StatusForbidden},
		{"bad token", http.MethodGet, "/auth/info", []*http.Cookie{{Name: httpapi.AccessTokenCookie, Value: "not-a-jwt"}}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := f.do(t, tt.method, tt.path, nil, tt.cookies...); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouter_MaintenanceScenario(t *testing.T) {
	f := newRouterFixture(t)

	_, userCookies := f.login(t, "a@x.com")
	if accessCookie(userCookies) == nil {
		t.Fatal("user login before maintenance should succeed")
	}
	_, adminCookies := f.login(t, "root@x.com")

	w := f.do(t, http.MethodPost, "/admin/config/maintenance/enable", nil, accessCookie(adminCookies))
	if w.Code != http.StatusOK {
		t.Fatalf("enable = %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/config/maintenance/status", nil)
	var st maintenancehandler.StatusResponse
	if err := json.Unmarshal(decode(t, w).Result, &st); err != nil || !st.MaintenanceMode || st.UpdatedBy != "root@x.com" {
		t.Fatalf("status = %+v (%v)", st, err)
	}

	w, cookies := f.login(t, "a@x.com")
	if w.Code != http.StatusServiceUnavailable || decode(t, w).Code != httpapi.CodeMaintenance.Code {
		t.Fatalf("user login under maintenance = %d %s", w.Code, w.Body.String())
	}
	if accessCookie(cookies) != nil {
		t.Error("refused login must not set an access cookie")
	}

	w = f.do(t, http.MethodGet, "/internal/sessions/x", nil, accessCookie(userCookies))
	if w.Code != http.StatusServiceUnavailable || w.Header().Get("Retry-After") == "" {
		t.Errorf("gated request = %d, Retry-After %q", w.Code, w.Header().Get("Retry-After"))
	}

	w, cookies = f.login(t, "root@x.com")
	if w.Code != http.StatusOK || accessCookie(cookies) == nil {
		t.Fatalf("admin login under maintenance = %d %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("healthz under maintenance = %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/admin/config/maintenance/disable", nil, accessCookie(cookies))
	if w.Code != http.StatusOK {
		t.Fatalf("disable = %d", w.Code)
	}
	if w, _ := f.login(t, "a@x.com"); w.Code != http.StatusOK {
		t.Errorf("user login after maintenance = %d", w.Code)
	}
}
