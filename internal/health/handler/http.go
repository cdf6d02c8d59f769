package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultCheckTimeout = 2 * time.Second

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the gate policy engine can evaluate.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts an ordinary function to a named readiness check.
type CheckFunc func(ctx context.Context) error

// Handler serves liveness and readiness probes. Readiness results are mirrored into the
// gRPC health service so both transports report the same state.
type Handler struct {
	checks  map[string]CheckFunc
	grpc    *health.Server
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler returns a Handler with no checks. grpcHealth may be nil.
func NewHandler(grpcHealth *health.Server, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{checks: map[string]CheckFunc{}, grpc: grpcHealth, timeout: defaultCheckTimeout, logger: logger}
}

// WithPinger adds a database readiness check. A nil pinger is skipped.
func (h *Handler) WithPinger(name string, p Pinger) *Handler {
	if p != nil {
		h.checks[name] = p.PingContext
	}
	return h
}

// WithPolicy adds a policy engine readiness check. A nil checker is skipped.
func (h *Handler) WithPolicy(p PolicyChecker) *Handler {
	if p != nil {
		h.checks["policy"] = p.HealthCheck
	}
	return h
}

// WithCheck adds an arbitrary readiness check.
func (h *Handler) WithCheck(name string, fn CheckFunc) *Handler {
	if fn != nil {
		h.checks[name] = fn
	}
	return h
}

// Healthz handles GET /healthz. The process answering is the whole check.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz handles GET /readyz: 200 when every check passes, 503 otherwise.
func (h *Handler) Readyz(c *gin.Context) {
	results, ok := h.Check(c.Request.Context())
	code, state := http.StatusOK, "ok"
	if !ok {
		code, state = http.StatusServiceUnavailable, "unavailable"
	}
	c.JSON(code, gin.H{"status": state, "checks": results})
}

// Check runs all checks and updates the gRPC serving status.
func (h *Handler) Check(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	ok := true
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.checks[name](cctx)
		cancel()
		if err != nil {
			ok = false
			results[name] = err.Error()
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}
	if h.grpc != nil {
		st := healthpb.HealthCheckResponse_SERVING
		if !ok {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		h.grpc.SetServingStatus("", st)
	}
	return results, ok
}
