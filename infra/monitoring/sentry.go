// Package monitoring reports unexpected failures to Sentry.
package monitoring

import (
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/unitcommit/core/monitoring"
)

// Config defines settings for Sentry error monitoring.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	// Release defaults to the main module version of the binary.
	Release string `json:"release"`
	// BeforeSend lets callers inspect or drop events.
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event `json:"-"`
}

// NewSentryMonitor initializes Sentry and returns a Monitor backed by it.
// An empty DSN yields a no-op monitor.
func NewSentryMonitor(cfg Config) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	if cfg.Release == "" {
		cfg.Release = buildRelease()
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		BeforeSend:       cfg.BeforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

func buildRelease() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return ""
	}
	return "unitcommit@" + info.Main.Version
}

type sentryMonitor struct{}

// CaptureException sends err with tags. Failures of one solver backend are
// grouped together whatever the message, since it usually embeds run
// specific paths and numbers.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if backend := tags["backend"]; backend != "" {
			scope.SetFingerprint([]string{"solve", backend})
		}
		if run := tags["run_id"]; run != "" {
			scope.SetContext("solve", sentry.Context{"run_id": run})
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
