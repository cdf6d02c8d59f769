package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	accounthandler "libmanage/backend/internal/account/handler"
	devotphandler "libmanage/backend/internal/devotp/handler"
	healthhandler "libmanage/backend/internal/health/handler"
	"libmanage/backend/internal/httpapi"
	identityhandler "libmanage/backend/internal/identity/handler"
	"libmanage/backend/internal/logger"
	maintenancehandler "libmanage/backend/internal/maintenance/handler"
	"libmanage/backend/internal/metrics"
	sessionhandler "libmanage/backend/internal/session/handler"
)

// HTTPDeps holds the handlers and middleware inputs for the HTTP surface.
type HTTPDeps struct {
	Logger *zap.Logger
	// Auth runs the access-token pipeline. Required.
	Auth httpapi.Authenticator
	// Gate admits or rejects requests during maintenance. Required.
	Gate httpapi.Admitter

	Identity    *identityhandler.Handler
	Accounts    *accounthandler.Handler
	Maintenance *maintenancehandler.Handler
	Sessions    *sessionhandler.HTTPHandler
	Health      *healthhandler.Handler
	// DevOTP is mounted only when non-nil (OTP_RETURN_TO_CLIENT outside production).
	DevOTP *devotphandler.Handler
	// LoginLimiter throttles POST /auth/login per client IP. Nil disables it.
	LoginLimiter *httpapi.RateLimiter
}

// NewRouter builds the gin engine. Operational endpoints sit outside the maintenance gate;
// everything else runs Authenticate then MaintenanceGate before its handler.
func NewRouter(deps HTTPDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(deps.Logger), metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.Health != nil {
		r.GET("/healthz", deps.Health.Healthz)
		r.GET("/readyz", deps.Health.Readyz)
	}

	api := r.Group("/", httpapi.Authenticate(deps.Auth), httpapi.MaintenanceGate(deps.Gate))
	requireAuth := httpapi.RequireAuth()
	requireAdmin := httpapi.RequireAdmin()

	if h := deps.Identity; h != nil {
		auth := api.Group("/auth")
		login := []gin.HandlerFunc{h.Login}
		if deps.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{deps.LoginLimiter.Middleware()}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/logout", h.Logout)
		auth.POST("/refresh", h.Refresh)
		auth.GET("/info", requireAuth, h.Info)

		api.POST("/password/forget", h.ForgetPassword)
		api.POST("/password/reset", h.ResetPassword)
	}

	if h := deps.Accounts; h != nil {
		account := api.Group("/account")
		account.POST("/register", h.Register)
		account.POST("/verify-email", h.VerifyEmail)
		account.POST("/verify-phone", h.VerifyPhone)
		account.POST("/resend-code", h.ResendCode)
		account.PUT("/email", requireAuth, h.RequestEmailChange)
		account.PUT("/email/confirm", requireAuth, h.ConfirmEmailChange)
		account.PUT("/phone", requireAuth, h.RequestPhoneChange)
		account.PUT("/phone/confirm", requireAuth, h.ConfirmPhoneChange)

		api.PUT("/password/change", requireAuth, h.ChangePassword)
		api.DELETE("/admin/accounts/:id", requireAdmin, h.DeleteAccount)
	}

	if h := deps.Maintenance; h != nil {
		api.GET("/config/maintenance/status", h.Status)
		api.POST("/admin/config/maintenance/:status", requireAdmin, h.Set)
	}

	if h := deps.Sessions; h != nil {
		api.GET("/internal/sessions/:id", requireAuth, h.Get)
	}

	if h := deps.DevOTP; h != nil {
		api.GET("/dev/otp", h.GetOTP)
	}
	return r
}

// WrapHTTP adds CORS with credentials for the given origins and OpenTelemetry tracing around h.
func WrapHTTP(h http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
	})
	return otelhttp.NewHandler(c.Handler(h), "libmanage.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
