package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	connectAttempts = 3
	connectDelay    = 2 * time.Second
)

type (
	sourceOpener func(ctx context.Context) (Source, error)
	targetOpener func(ctx context.Context) (Target, error)
)

// ConnectionManager owns the source and target handles of one run.
type ConnectionManager struct {
	openSource sourceOpener
	openTarget targetOpener
	log        *slog.Logger
	delay      time.Duration

	source Source
	target Target
}

func NewConnectionManager(openSource sourceOpener, openTarget targetOpener, log *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		openSource: openSource,
		openTarget: openTarget,
		log:        log,
		delay:      connectDelay,
	}
}

// connectionManagerFromConfig wires the real MySQL/SQLite and PostgreSQL openers.
func connectionManagerFromConfig(cfg *Config, log *slog.Logger) *ConnectionManager {
	return NewConnectionManager(
		func(ctx context.Context) (Source, error) {
			return openSource(cfg.Source)
		},
		func(ctx context.Context) (Target, error) {
			return openTarget(ctx, cfg.targetDSN(), cfg.Target.Schema, log)
		},
		log,
	)
}

// connect opens and pings both sides. On any failure everything opened so far
// is closed and a *ConnectionError is returned.
func (m *ConnectionManager) connect(ctx context.Context) (Source, Target, error) {
	src, err := m.connectSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	dst, err := m.connectTarget(ctx)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// connectSource opens only the source, for schema generation.
func (m *ConnectionManager) connectSource(ctx context.Context) (Source, error) {
	err := m.retry(ctx, "source", func() error {
		src, err := m.openSource(ctx)
		if err != nil {
			return err
		}
		if err := src.Ping(ctx); err != nil {
			src.Close()
			return err
		}
		m.source = src
		return nil
	})
	if err != nil {
		m.disconnect()
		return nil, &ConnectionError{Side: "source", Err: err}
	}
	return m.source, nil
}

// connectTarget opens only the target.
func (m *ConnectionManager) connectTarget(ctx context.Context) (Target, error) {
	err := m.retry(ctx, "target", func() error {
		dst, err := m.openTarget(ctx)
		if err != nil {
			return err
		}
		if err := dst.Ping(ctx); err != nil {
			dst.Close()
			return err
		}
		m.target = dst
		return nil
	})
	if err != nil {
		m.disconnect()
		return nil, &ConnectionError{Side: "target", Err: err}
	}
	return m.target, nil
}

func (m *ConnectionManager) retry(ctx context.Context, side string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(m.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			m.log.Warn("connection attempt failed",
				slog.String("side", side),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err))
		}),
	)
}

// disconnect closes whatever is open. Safe to call any number of times.
func (m *ConnectionManager) disconnect() error {
	var errs []error
	if m.source != nil {
		if err := m.source.Close(); err != nil {
			errs = append(errs, err)
		}
		m.source = nil
	}
	if m.target != nil {
		m.target.Close()
		m.target = nil
	}
	return errors.Join(errs...)
}
