package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/card/remote"
	"github.com/xtding233/gacha-scout/internal/card/sqlite"
	"github.com/xtding233/gacha-scout/internal/config"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/grpcapi"
	"github.com/xtding233/gacha-scout/internal/httpapi"
	"github.com/xtding233/gacha-scout/internal/rates"
	"github.com/xtding233/gacha-scout/internal/scout"
	"github.com/xtding233/gacha-scout/internal/session"
	"github.com/xtding233/gacha-scout/internal/telemetry"
	"github.com/xtding233/gacha-scout/internal/thumbnail"
)

const serviceName = "gacha-scout"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api := remote.NewClient(httpClient, cfg.CardAPIURL, logger)

	g, gctx := errgroup.WithContext(ctx)

	var pool card.Pool = api
	if cfg.PoolBackend == config.PoolSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return err
		}
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		pool = store
		if cfg.SyncInterval > 0 {
			syncer := card.NewSyncer(api, store, logger)
			g.Go(func() error {
				syncer.Run(gctx, cfg.SyncInterval)
				return nil
			})
		}
	}

	loader := rates.NewLoader(cfg.RatesDir)
	book, err := loader.LoadBook()
	if err != nil {
		return err
	}
	engine, err := gacha.NewEngine(book, pool, gacha.DefaultRNG(), gacha.WithLogger(logger))
	if err != nil {
		return err
	}
	if cfg.RatesDir != "" && cfg.RatesPoll > 0 {
		w := rates.WatchLoader(loader, cfg.RatesPoll, logger, func() {
			book, err := loader.LoadBook()
			if err == nil {
				err = engine.Reload(book)
			}
			if err != nil {
				logger.Error("rates reload rejected, keeping previous tables", "error", err)
			}
		})
		defer w.Stop()
	}

	thumbs, err := thumbnail.NewStore(cfg.CacheDir, httpClient, logger)
	if err != nil {
		return err
	}
	svc := scout.NewService(engine, thumbs,
		scout.WithLogger(logger),
		scout.WithParallelism(cfg.FetchParallelism),
	)

	sessions := session.NewMemoryStore(cfg.SessionTTL)
	g.Go(func() error {
		sessions.RunSweeper(gctx, time.Minute)
		return nil
	})

	if cfg.HTTPAddr != "" {
		e := httpapi.NewServer(httpapi.NewHandler(svc, engine, engine, sessions, logger), logger)
		g.Go(func() error {
			logger.Info("http listening", "addr", cfg.HTTPAddr)
			if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(sctx)
		})
	}

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		gs := grpcapi.NewGRPCServer(grpcapi.NewServer(svc, engine, logger), logger)
		g.Go(func() error {
			logger.Info("grpc listening", "addr", cfg.GRPCAddr)
			return gs.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	return g.Wait()
}
