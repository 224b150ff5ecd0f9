package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	cacheKeyPrefix = "insights:summary:"
	lowStockLimit  = 10
)

// Service builds dashboard summaries. Results are cached in Redis and a
// singleflight group collapses concurrent rebuilds of the same day.
type Service struct {
	repo     RepositoryPort
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
	group    singleflight.Group
	printer  *message.Printer
	now      func() time.Time
}

// NewService builds Service. cache may be nil, which disables caching.
func NewService(repo RepositoryPort, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		printer:  message.NewPrinter(language.English),
		now:      time.Now,
	}
}

// Summary returns the dashboard snapshot for today.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	day := s.now().UTC().Format("2006-01-02")
	key := cacheKeyPrefix + day

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	resultChan := s.group.DoChan(key, func() (any, error) {
		summary, err := s.build(context.WithoutCancel(ctx), day)
		if err != nil {
			return Summary{}, err
		}
		s.toCache(context.WithoutCancel(ctx), key, summary)
		return summary, nil
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// Invalidate drops today's cached summary. Called after writes that change
// the numbers.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	key := cacheKeyPrefix + s.now().UTC().Format("2006-01-02")
	if err := s.cache.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		if s.logger != nil {
			s.logger.Warn("invalidate summary cache", slog.Any("error", err))
		}
	}
}

func (s *Service) build(ctx context.Context, day string) (Summary, error) {
	from, err := time.Parse("2006-01-02", day)
	if err != nil {
		return Summary{}, fmt.Errorf("parse day: %w", err)
	}
	to := from.Add(24 * time.Hour)

	revenue, units, err := s.repo.RevenueAndUnits(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	byStatus, err := s.repo.SalesByStatus(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	lowStock, err := s.repo.LowStock(ctx, lowStockLimit)
	if err != nil {
		return Summary{}, err
	}
	onDuty, err := s.repo.OnDutyCount(ctx)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Date:             day,
		RevenueToday:     revenue,
		RevenueDisplay:   s.printer.Sprintf("%.2f", revenue),
		SalesByStatus:    byStatus,
		UnitsSoldToday:   units,
		LowStockProducts: lowStock,
		OnDutyCount:      onDuty,
		GeneratedAt:      s.now().UTC(),
	}, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Summary, bool) {
	if s.cache == nil {
		return Summary{}, false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("read summary cache", slog.Any("error", err))
		}
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

func (s *Service) toCache(ctx context.Context, key string, summary Summary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("write summary cache", slog.Any("error", err))
	}
}
