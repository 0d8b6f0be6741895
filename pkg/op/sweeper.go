package op

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// SweepStorage is the part of the Storage the Sweeper cleans up.
type SweepStorage interface {
	GrantStorage
	TokenStorage
	AuthRequestStorage
}

// Sweeper periodically deletes expired grants, tokens and auth requests.
// Grants are kept for the retention after their expiry, and a redeemed
// grant is kept as long as a token minted from it is active, so a late
// reuse of its code still revokes those tokens.
type Sweeper struct {
	storage   SweepStorage
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type SweeperOption func(*Sweeper)

func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func WithSweeperMetrics(metrics *Metrics) SweeperOption {
	return func(s *Sweeper) {
		s.metrics = metrics
	}
}

func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

func NewSweeper(storage SweepStorage, interval, retention time.Duration, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s := &Sweeper{
		storage:   storage,
		interval:  interval,
		retention: retention,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.InfoContext(ctx, "sweeper started", "interval", s.interval, "retention", s.retention)
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep", "error", err)
			}
		}
	}
}

// Sweep runs a single cleanup. A grant which is still issued is only
// deleted after it was moved to expired, so it can not be redeemed
// while it is deleted.
func (s *Sweeper) Sweep(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Sweep")
	defer span.End()

	now := s.now()
	grants, err := s.sweepGrants(ctx, now)
	s.metrics.swept("grant", grants)

	tokens, tokenErr := s.storage.DeleteExpiredTokens(ctx, now)
	if tokenErr != nil {
		tokenErr = fmt.Errorf("delete expired tokens: %w", tokenErr)
	}
	s.metrics.swept("token", tokens)

	authRequests, authReqErr := s.storage.DeleteExpiredAuthRequests(ctx, now)
	if authReqErr != nil {
		authReqErr = fmt.Errorf("delete expired auth requests: %w", authReqErr)
	}
	s.metrics.swept("auth_request", authRequests)

	if grants+tokens+authRequests > 0 {
		s.logger.DebugContext(ctx, "swept expired records",
			"grants", grants,
			"tokens", tokens,
			"auth_requests", authRequests,
		)
	}
	return errors.Join(err, tokenErr, authReqErr)
}

func (s *Sweeper) sweepGrants(ctx context.Context, now time.Time) (int, error) {
	grants, err := s.storage.ExpiredGrants(ctx, now.Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("expired grants: %w", err)
	}
	var deleted int
	for _, grant := range grants {
		switch grant.State {
		case GrantStateRedeemed, GrantStateRevoked:
			active, err := s.storage.HasActiveTokens(ctx, grant.ID, now)
			if err != nil {
				return deleted, fmt.Errorf("tokens of grant %s: %w", grant.ID, err)
			}
			if active {
				continue
			}
		case GrantStateIssued:
			ok, err := s.storage.UpdateGrantState(ctx, grant.Code, GrantStateIssued, GrantStateExpired)
			if err != nil {
				return deleted, fmt.Errorf("expire grant %s: %w", grant.ID, err)
			}
			if !ok {
				// redeemed in the meantime, left for the next sweep
				continue
			}
		}
		if err = s.storage.DeleteGrant(ctx, grant.Code); err != nil && !errors.Is(err, ErrNotFound) {
			return deleted, fmt.Errorf("delete grant %s: %w", grant.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
