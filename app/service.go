package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/kilianp07/unitcommit/config"
	"github.com/kilianp07/unitcommit/core/commitment"
	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
	"github.com/kilianp07/unitcommit/core/model"
	coremon "github.com/kilianp07/unitcommit/core/monitoring"
	coremqtt "github.com/kilianp07/unitcommit/core/mqtt"
	"github.com/kilianp07/unitcommit/core/solver"
	"github.com/kilianp07/unitcommit/infra/logger"
	"github.com/kilianp07/unitcommit/infra/metrics"
	"github.com/kilianp07/unitcommit/infra/monitoring"
	"github.com/kilianp07/unitcommit/infra/mqtt"
	"github.com/kilianp07/unitcommit/infra/runlog"
	_ "github.com/kilianp07/unitcommit/infra/solver/gurobi" // registers the gurobi backend
	"github.com/kilianp07/unitcommit/internal/eventbus"
)

// watchDebounce lets editors finish writing before the problem is re-read.
const watchDebounce = 250 * time.Millisecond

// Service wires a solve session to its configured backends and runs it once
// or on a schedule.
type Service struct {
	cfg     *config.Config
	deps    Deps
	sink    coremetrics.MetricsSink
	bus     *eventbus.Bus
	reports *eventbus.TypedBus[Report]
	log     logger.Logger
	trigger chan string

	collected <-chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	if cfg.Sentry.DSN != "" {
		mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		coremon.Init(mon)
	}
	slv, err := solver.New(cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("runlog: %w", err)
	}
	var pub coremqtt.SchedulePublisher = coremqtt.NopPublisher{}
	if cfg.MQTT.Enabled() {
		p, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
	}
	deps := Deps{
		Solver:    slv,
		Backend:   cfg.Solver.Type,
		Store:     store,
		Publisher: pub,
		Log:       log,
	}
	if cfg.Termination.IsEnabled() {
		tc := cfg.Termination.Monitor()
		deps.Termination = &tc
	}
	return newService(cfg, deps, sink), nil
}

func newService(cfg *config.Config, deps Deps, sink coremetrics.MetricsSink) *Service {
	bus := eventbus.New(eventbus.WithBuffer(128))
	deps.Bus = bus
	if deps.Log == nil {
		deps.Log = logger.NopLogger{}
	}
	return &Service{
		cfg:     cfg,
		deps:    deps,
		sink:    sink,
		bus:     bus,
		reports: eventbus.NewTyped[Report](),
		log:     deps.Log,
		trigger: make(chan string, 1),
	}
}

// Reports subscribes to the reports of successful solves.
func (s *Service) Reports() <-chan Report { return s.reports.Subscribe() }

// RunOnce loads the problem file and solves it.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	p, err := model.LoadProblem(s.cfg.Problem.Path)
	if err != nil {
		return Report{}, fmt.Errorf("load problem: %w", err)
	}
	style, err := commitment.ParseStyle(s.cfg.Problem.Style)
	if err != nil {
		return Report{}, err
	}
	rep, err := Solve(ctx, Request{Problem: p, Style: style}, s.deps)
	if err != nil {
		return rep, err
	}
	s.reports.Publish(rep)
	return rep, nil
}

// Trigger requests a solve. Requests arriving while one is pending are
// coalesced.
func (s *Service) Trigger(source string) {
	select {
	case s.trigger <- source:
	default:
		s.log.Debugf("solve already pending, dropping trigger from %s", source)
	}
}

// StartCollector forwards solve events to the metrics sink until ctx is
// canceled or the service is closed.
func (s *Service) StartCollector(ctx context.Context) <-chan struct{} {
	if s.collected == nil {
		s.collected = metrics.StartEventCollector(ctx, s.bus, s.sink)
	}
	return s.collected
}

// Run solves once at startup, then on every cron tick and problem file
// change, until ctx is canceled. Solves never overlap.
func (s *Service) Run(ctx context.Context) error {
	done := s.StartCollector(ctx)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if expr := s.cfg.Schedule.Cron; expr != "" {
		c := cron.New()
		if _, err := c.AddFunc(expr, func() { s.Trigger("cron") }); err != nil {
			return fmt.Errorf("schedule %q: %w", expr, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		s.log.Infof("solving on schedule %q", expr)
	}
	var wg sync.WaitGroup
	if s.cfg.Schedule.Watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if err := w.Add(filepath.Dir(s.cfg.Problem.Path)); err != nil {
			_ = w.Close()
			return fmt.Errorf("watch %s: %w", s.cfg.Problem.Path, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watch(ctx, w)
		}()
	}

	s.Trigger("startup")
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			<-done
			return nil
		case src := <-s.trigger:
			s.log.Infof("solve triggered by %s", src)
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Errorf("solve: %v", err)
			}
		}
	}
}

func (s *Service) watch(ctx context.Context, w *fsnotify.Watcher) {
	defer func() { _ = w.Close() }()
	target := filepath.Clean(s.cfg.Problem.Path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			s.log.Debugf("problem file changed: %s", ev)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() { s.Trigger("watch") })
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warnf("watch: %v", err)
		}
	}
}

// Close drains pending metric events, then releases the store, the
// publisher and the metrics backends.
func (s *Service) Close() error {
	s.bus.Close()
	if s.collected != nil {
		<-s.collected
	}
	var errs []error
	if s.deps.Store != nil {
		errs = append(errs, s.deps.Store.Close())
	}
	if s.deps.Publisher != nil {
		s.deps.Publisher.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.reports.Close()
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
