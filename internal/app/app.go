// Package app wires configuration into the services, handlers and servers of the auth backend.
// cmd/server runs the result; cmd/authctl reuses it for operator commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	accounthandler "libmanage/backend/internal/account/handler"
	accountrepo "libmanage/backend/internal/account/repository"
	accountservice "libmanage/backend/internal/account/service"
	"libmanage/backend/internal/audit"
	auditrepo "libmanage/backend/internal/audit/repository"
	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/config"
	"libmanage/backend/internal/db"
	"libmanage/backend/internal/db/migrate"
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
	settingsrepo "libmanage/backend/internal/platformsettings/repository"
	"libmanage/backend/internal/policy/engine"
	"libmanage/backend/internal/security"
	"libmanage/backend/internal/server"
	sessionhandler "libmanage/backend/internal/session/handler"
	sessionrepo "libmanage/backend/internal/session/repository"
	sessionservice "libmanage/backend/internal/session/service"
	telemetryotel "libmanage/backend/internal/telemetry/otel"
)

// App holds the wired services. Close releases connections and flushes telemetry.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB    *sqlx.DB
	Redis *redis.Client

	Accounts    accountrepo.Repository
	Hasher      *security.Hasher
	Codec       *security.TokenCodec
	Sessions    *sessionservice.Registry
	OTPStore    *otpservice.Store
	Audit       *audit.Logger
	Maintenance *maintenanceservice.Service
	Auth        *identityservice.AuthService
	Account     *accountservice.Service
	Pipeline    *authn.Pipeline
	Gate        *maintenanceservice.Gate
	Policy      *engine.OPAEvaluator
	DevOTP      *devotp.MemoryStore

	telemetry *telemetryotel.Providers
	closers   []func() error
}

// New builds the App from cfg. Postgres backs the repositories when DATABASE_URL is set;
// otherwise everything lives in memory, which suits local runs and demos.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}
	if err := a.build(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	key, err := security.LoadSigningKey(cfg.JWTSigningKey)
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	a.Codec = security.NewTokenCodec(key, cfg.JWTIssuer, security.TokenTTLs{
		Access:        cfg.AccessTTL(),
		Refresh:       cfg.RefreshTTL(),
		ResetPassword: cfg.ResetTTL(),
	})
	a.Hasher = security.NewHasher(cfg.BcryptCost)

	a.telemetry, err = telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Insecure:    cfg.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.telemetry.SetGlobal()
	sinks := []audit.Sink{telemetryotel.NewAuditSink(a.telemetry.LoggerProvider)}

	var (
		sessionRepo sessionrepo.Repository
		otpRepo     otprepo.Repository
	)
	if cfg.DatabaseURL != "" {
		if cfg.DBAutoMigrate {
			if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		a.DB, err = db.Open(ctx, cfg.DatabaseURL, db.Pool{})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, a.DB.Close)
		a.Accounts = accountrepo.NewPostgresRepository(a.DB)
		sessionRepo = sessionrepo.NewPostgresRepository(a.DB)
		otpRepo = otprepo.NewPostgresRepository(a.DB)
		sinks = append(sinks, auditrepo.NewPostgresRepository(a.DB))
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		a.Accounts = accountrepo.NewMemoryRepository()
		sessionRepo = sessionrepo.NewMemoryRepository()
		otpRepo = otprepo.NewMemoryRepository()
	}
	a.Audit = audit.NewLogger(logger, sinks...)

	flags, err := a.flagStore(ctx)
	if err != nil {
		return err
	}

	mailer := notify.Mailer(notify.LogMailer{Logger: logger})
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	var sender otpservice.Sender
	if cfg.OTPReturnToClient {
		a.DevOTP = devotp.NewMemoryStore()
		sender = notify.NewDevSender(a.DevOTP, cfg.OTPTTL())
		logger.Warn("OTP_RETURN_TO_CLIENT enabled; codes are readable at GET /dev/otp")
	} else {
		var sms notify.SMSSender
		if cfg.SMSLocalAPIKey != "" {
			sms = notify.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
		}
		sender = notify.NewOTPSender(mailer, sms, logger)
	}

	a.Maintenance = maintenanceservice.NewService(flags, a.Audit, notify.NewBroadcaster(mailer, a.Accounts, logger), logger)
	if err := a.Maintenance.Seed(ctx, cfg.MaintenanceMode); err != nil {
		return fmt.Errorf("seed maintenance flag: %w", err)
	}

	src, err := engine.LoadPolicyFile(cfg.GatePolicyFile)
	if err != nil {
		return err
	}
	a.Policy, err = engine.NewOPAEvaluator(ctx, src)
	if err != nil {
		return err
	}
	a.Gate = maintenanceservice.NewGate(a.Maintenance, a.Policy, logger)

	a.Sessions = sessionservice.NewRegistry(sessionRepo)
	a.Pipeline = authn.NewPipeline(a.Codec, a.Sessions)
	a.OTPStore = otpservice.NewStore(otpRepo)
	issuer := otpservice.NewIssuer(a.OTPStore, sender, cfg.OTPTTL(), logger)

	a.Auth = identityservice.NewAuthService(a.Accounts, a.Sessions, a.Codec, a.Hasher, a.Maintenance, a.Audit,
		notify.NewResetLinkSender(mailer, cfg.ResetPasswordURL), logger)
	a.Account = accountservice.NewService(a.Accounts, a.Hasher, issuer, a.Sessions, a.Audit, logger)
	return nil
}

// flagStore picks the maintenance flag backend named by MAINTENANCE_STORE.
func (a *App) flagStore(ctx context.Context) (maintenancerepo.FlagStore, error) {
	cfg := a.Config
	switch cfg.MaintenanceStore {
	case config.MaintenanceStoreRedis:
		client, err := db.OpenRedis(ctx, db.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		return maintenancerepo.NewRedisStore(client, ""), nil
	case config.MaintenanceStorePostgres:
		if a.DB == nil {
			return nil, errors.New("config: MAINTENANCE_STORE=postgres requires DATABASE_URL")
		}
		return maintenancerepo.NewPostgresStore(settingsrepo.NewPostgresRepository(a.DB)), nil
	default:
		if a.DB != nil || cfg.RedisAddr != "" {
			a.Logger.Warn("maintenance flag kept in memory; other instances will not see changes")
		}
		return maintenancerepo.NewMemoryStore(), nil
	}
}

// Servers builds the HTTP handler and the gRPC server over the wired services.
func (a *App) Servers() (http.Handler, *grpc.Server) {
	cookies := httpapi.Cookies{Secure: a.Config.CookieSecure, Domain: a.Config.CookieDomain}
	lookup := sessionservice.NewLookup(a.Sessions, a.Accounts)

	grpcServer, grpcHealth := server.NewGRPCServer(server.GRPCDeps{
		Auth:     a.Pipeline,
		Sessions: lookup,
		Logger:   a.Logger,
	})

	deps := server.HTTPDeps{
		Logger:      a.Logger,
		Auth:        a.Pipeline,
		Gate:        a.Gate,
		Identity:    identityhandler.NewHandler(a.Auth, cookies),
		Accounts:    accounthandler.NewHandler(a.Account, cookies),
		Maintenance: maintenancehandler.NewHandler(a.Maintenance, a.Logger),
		Sessions:    sessionhandler.NewHTTPHandler(lookup),
		Health:      a.health(grpcHealth),
	}
	if a.DevOTP != nil {
		deps.DevOTP = devotphandler.NewHandler(a.DevOTP)
	}
	if n := a.Config.LoginRatePerMinute; n > 0 {
		deps.LoginLimiter = httpapi.NewRateLimiter(n)
	}
	return server.WrapHTTP(server.NewRouter(deps), a.Config.CORSOrigins()), grpcServer
}

func (a *App) health(grpcHealth *health.Server) *healthhandler.Handler {
	h := healthhandler.NewHandler(grpcHealth, a.Logger).WithPolicy(a.Policy)
	if a.DB != nil {
		h.WithPinger("postgres", a.DB)
	}
	if a.Redis != nil {
		client := a.Redis
		h.WithCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
	}
	return h
}

// Close releases connections in reverse order and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Maintenance != nil {
		if err := a.Maintenance.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("maintenance notice: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		a.telemetry = nil
	}
	return errors.Join(errs...)
}
