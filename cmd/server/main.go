package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"libmanage/backend/internal/app"
	"libmanage/backend/internal/config"
	"libmanage/backend/internal/logger"
	otpservice "libmanage/backend/internal/otp/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	l, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal("startup failed", zap.Error(err))
	}
	httpHandler, grpcServer := a.Servers()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			l.Fatal("listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
		}
		g.Go(func() error {
			l.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
			return grpcServer.Serve(lis)
		})
	}
	g.Go(func() error {
		return otpservice.RunPurger(gctx, a.OTPStore, otpservice.DefaultPurgeInterval, l)
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		l.Error("server stopped with error", zap.Error(err))
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		l.Warn("close", zap.Error(err))
	}
	l.Info("stopped")
}
