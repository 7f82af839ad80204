// Package lockout throttles password guessing. Failed logins are counted
// per email and client IP in a sliding window; reaching the limit locks
// that pair out for a fixed period.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dossier/internal/audit"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/requestcontext"
)

type Store interface {
	// LockedUntil returns the lock expiry when key is locked at now.
	LockedUntil(ctx context.Context, key string, now time.Time) (time.Time, bool, error)
	// RecordFailure adds a failure at now and returns the failures inside window.
	RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)
	Lock(ctx context.Context, key string, now, until time.Time) error
	Clear(ctx context.Context, key string) error
}

type Config struct {
	Attempts     int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultConfig() Config {
	return Config{Attempts: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}
}

type Service struct {
	store   Store
	cfg     Config
	auditor *audit.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithAuditor(p *audit.Publisher) Option { return func(s *Service) { s.auditor = p } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.logger = l } }

func New(store Store, cfg Config, opts ...Option) *Service {
	defaults := DefaultConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaults.Attempts
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = defaults.LockDuration
	}
	s := &Service{store: store, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(ctx context.Context, email string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + requestcontext.ClientIP(ctx)
}

// Check rejects the attempt with CodeRateLimited while the pair is locked.
func (s *Service) Check(ctx context.Context, email string) error {
	now := requestcontext.Now(ctx)
	until, locked, err := s.store.LockedUntil(ctx, key(ctx, email), now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if locked {
		retry := max(int(until.Sub(now).Seconds()), 1)
		return dErrors.New(dErrors.CodeRateLimited,
			fmt.Sprintf("too many failed login attempts, retry in %d seconds", retry))
	}
	return nil
}

// RecordFailure counts a failed attempt and locks once the window fills.
func (s *Service) RecordFailure(ctx context.Context, email string) error {
	now := requestcontext.Now(ctx)
	k := key(ctx, email)
	count, err := s.store.RecordFailure(ctx, k, now, s.cfg.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if count < s.cfg.Attempts {
		return nil
	}
	until := now.Add(s.cfg.LockDuration)
	if err := s.store.Lock(ctx, k, now, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock login")
	}
	s.logger.WarnContext(ctx, "login locked", "failures", count, "locked_until", until)
	s.auditor.Emit(ctx, audit.Event{
		Action: audit.ActionLoginLocked,
		Email:  email,
		Reason: fmt.Sprintf("%d failures within %s", count, s.cfg.Window),
	})
	return nil
}

// Clear forgets failures after a successful login.
func (s *Service) Clear(ctx context.Context, email string) error {
	if err := s.store.Clear(ctx, key(ctx, email)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}
