// Package core wires configuration, storage, the proposer client, and the
// planner into a runnable application.
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nextup/internal/config"
	"nextup/internal/eventbus"
	"nextup/internal/planner"
	"nextup/internal/proposer"
	"nextup/internal/runtime/supervisor"
	"nextup/internal/storage"
	logx "nextup/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store   storage.Store
	bus     eventbus.Bus
	planner *planner.Service

	mu      sync.Mutex
	cron    *cron.Cron
	replan  config.ReplanConfig
	sup     *supervisor.Supervisor
	started bool
}

func NewApp(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	mgr.SetLogger(log.With(logx.String("component", "config")))

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("component", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	prop, err := buildProposer(cfg, log)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	bus := eventbus.New()
	plan := planner.New(plannerConfig(cfg), store, prop, bus, log.With(logx.String("component", "planner")))

	return &App{
		cfgMgr:  mgr,
		logSvc:  logSvc,
		log:     log,
		store:   store,
		bus:     bus,
		planner: plan,
		replan:  cfg.Replan,
	}, nil
}

func buildProposer(cfg *config.Config, log logx.Logger) (proposer.Proposer, error) {
	if strings.TrimSpace(cfg.Proposer.Endpoint) == "" {
		log.Warn("proposer.endpoint not set; planning will rely on deterministic fallbacks")
		return proposer.Disabled(), nil
	}
	timeout, err := config.ParseDurationOrDefault("proposer.timeout", cfg.Proposer.Timeout, config.DefaultProposerTimeout)
	if err != nil {
		return nil, err
	}
	return proposer.NewHTTP(proposer.Config{
		Endpoint:   cfg.Proposer.Endpoint,
		Timeout:    timeout,
		RetryMax:   cfg.Proposer.RetryMax,
		RatePerSec: cfg.Proposer.RatePerSec,
	}, log.With(logx.String("component", "proposer")))
}

func plannerConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		Timezone:    cfg.Planner.Timezone,
		HorizonDays: cfg.Planner.HorizonDays,
		WakeHour:    cfg.Planner.WakeHour,
		SleepHour:   cfg.Planner.SleepHour,
		MinBlock:    time.Duration(cfg.Planner.MinBlockMinutes) * time.Minute,
		Profile:     cfg.Profile(),
		Locations:   cfg.SavedLocations(),
	}
}

// Planner exposes the planning service (used by the -once entrypoint).
func (a *App) Planner() *planner.Service { return a.planner }

// Bus exposes the event bus for observers.
func (a *App) Bus() eventbus.Bus { return a.bus }

// Start launches config watching and the periodic replan trigger.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	a.started = true

	a.sup = supervisor.New(ctx, a.log.With(logx.String("component", "supervisor")))
	updates := a.cfgMgr.Subscribe(1)
	a.sup.GoRestart("config-watch", a.cfgMgr.Watch)
	a.sup.Go("config-apply", func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-updates:
				a.applyConfig(cfg)
			}
		}
	})

	if err := a.startReplanLocked(); err != nil {
		return err
	}

	a.log.Info("started",
		logx.Bool("replan", a.replan.Enabled),
		logx.String("schedule", a.replan.Schedule))
	return nil
}

func (a *App) startReplanLocked() error {
	if !a.replan.Enabled {
		return nil
	}
	loc := a.planner.Location()
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(a.replan.Schedule, a.runPass); err != nil {
		return fmt.Errorf("replan.schedule: %w", err)
	}
	c.Start()
	a.cron = c
	return nil
}

func (a *App) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := a.planner.PlanOnce(ctx, planner.PassOptions{}); err != nil {
		a.log.Error("planning pass failed", logx.Err(err))
	}
}

// applyConfig pushes a hot-reloaded config into the running services.
func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	a.planner.Apply(plannerConfig(cfg))

	a.mu.Lock()
	if cfg.Replan != a.replan {
		a.replan = cfg.Replan
		if a.cron != nil {
			a.cron.Stop()
			a.cron = nil
		}
		if err := a.startReplanLocked(); err != nil {
			a.log.Error("replan reschedule failed", logx.Err(err))
		}
	}
	a.mu.Unlock()

	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigReloaded})
	a.log.Info("config applied")
}

// Stop shuts the app down; safe to call once after Start.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	sup := a.sup
	a.sup = nil
	a.mu.Unlock()

	if c != nil {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	if sup != nil {
		if err := sup.Stop(ctx); err != nil {
			a.log.Warn("background loops did not stop cleanly", logx.Err(err))
		}
	}

	err := a.store.Close()
	_ = a.logSvc.Close()
	return err
}
