package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/api"
	"github.com/luckyreel/rgs/internal/audit"
	"github.com/luckyreel/rgs/internal/catalog"
	"github.com/luckyreel/rgs/internal/config"
	"github.com/luckyreel/rgs/internal/control"
	"github.com/luckyreel/rgs/internal/database"
	"github.com/luckyreel/rgs/internal/engine"
	"github.com/luckyreel/rgs/internal/lease"
	"github.com/luckyreel/rgs/internal/limits"
	"github.com/luckyreel/rgs/internal/rng"
	"github.com/luckyreel/rgs/internal/session"
	"github.com/luckyreel/rgs/internal/state"
	"github.com/luckyreel/rgs/pkg/operator"
)

// operatorAuth adapts the platform client to the API's token exchange.
type operatorAuth struct {
	client *operator.Client
}

func (a operatorAuth) Authenticate(ctx context.Context, authToken, gameID string) (string, error) {
	res, err := a.client.Authenticate(ctx, authToken, gameID)
	if err != nil {
		return "", err
	}
	return res.UserID, nil
}

func main() {
	godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("RGS_LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	cfg := config.Load()
	ctx := context.Background()

	// Redis backs live state, leases and control switches. Without it the
	// server degrades to a single-node in-memory mode.
	var rdb redis.UniversalClient
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, running in-memory")
	} else {
		rdb = client
	}
	cancel()

	leaseOpts := lease.Options{
		TTL:       cfg.Lease.TTL,
		Attempts:  cfg.Lease.Attempts,
		RetryBase: cfg.Lease.RetryBase,
		RetryCap:  cfg.Lease.RetryCap,
	}
	var locker lease.Locker
	var repo state.Repository
	if rdb != nil {
		locker = lease.NewRedisLocker(rdb, leaseOpts)
		repo = state.NewRedisRepository(rdb, cfg.State.RecordTTL)
	} else {
		locker = lease.NewMemoryLocker(leaseOpts)
		repo = state.NewMemoryRepository()
	}

	// Balances settle either against the operator platform or the local
	// ledger database.
	var durable state.Durable
	var auditSvc *audit.Service
	var authn api.Authenticator
	if cfg.Operator.BaseURL != "" {
		opClient := operator.NewClient(&operator.ClientConfig{
			BaseURL:   cfg.Operator.BaseURL,
			APIKey:    cfg.Operator.APIKey,
			APISecret: cfg.Operator.APISecret,
			SiteCode:  cfg.Operator.SiteCode,
			Timeout:   cfg.Operator.Timeout,
		})
		durable = opClient
		authn = operatorAuth{client: opClient}
		auditSvc = audit.New(nil)
		log.WithField("operator", cfg.Operator.BaseURL).Info("settling against operator platform")
	} else {
		db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Fatal("database connection failed")
		}
		if err := db.Migrate(); err != nil {
			log.WithError(err).Fatal("database migration failed")
		}
		durable = db
		auditSvc = audit.New(db.DB)
	}

	store := state.NewStore(repo, locker, durable, cfg.State.IdleAfter, log)

	cat := catalog.New(log)
	if err := cat.LoadDir(cfg.Games.Dir); err != nil {
		log.WithError(err).Fatal("game catalog load failed")
	}
	log.WithField("games", len(cat.List())).Info("game catalog loaded")

	controlSvc := control.New(rdb, auditSvc)
	if err := controlSvc.LoadState(ctx); err != nil {
		log.WithError(err).Warn("control state load failed, starting enabled")
	}
	limitsSvc := limits.New(rdb, auditSvc)
	rngSvc := rng.New()

	registry := engine.NewRegistry(engine.Deps{
		RNG:   rngSvc,
		Store: store,
		Audit: auditSvc,
		Guard: limitsSvc,
		Log:   log,
	})
	dispatcher := engine.NewDispatcher(cat, registry, controlSvc, log)
	sessions := session.New(&cfg.Session)

	handler := api.New(api.Deps{
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Registry:   registry,
		Store:      store,
		Catalog:    cat,
		Control:    controlSvc,
		Limits:     limitsSvc,
		RNG:        rngSvc,
		Audit:      auditSvc,
		Authn:      authn,
		GamesDir:   cfg.Games.Dir,
		Log:        log,
	})

	// Idle sessions reconcile back to the durable store on a timer.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.State.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := store.Sweep(sweepCtx); err != nil {
					log.WithError(err).Warn("state sweep failed")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("rgs listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	// Settle whatever live state remains before exit.
	if err := store.Sweep(shutdownCtx); err != nil {
		log.WithError(err).Warn("final sweep failed")
	}
	log.Info("stopped")
}
