package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "server_status"

// Fetcher is the upstream slice the service needs; Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (Status, error)
}

// Service serves the player count from a Redis cache, falling back to the
// upstream API on a miss. Concurrent misses collapse into one upstream
// call.
type Service struct {
	fetcher Fetcher
	cache   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService constructs a Service.
func NewService(fetcher Fetcher, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, cache: cache, ttl: ttl, logger: logger}
}

// Current returns the cached status, refreshing it on a miss. Upstream
// failure degrades to an offline status rather than an error; the widget
// never breaks the page.
func (s *Service) Current(ctx context.Context) Status {
	if cached, ok := s.fromCache(ctx); ok {
		return cached
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		st, err := s.fetcher.Fetch(ctx)
		if err != nil {
			return Status{}, err
		}
		s.store(ctx, st)
		return st, nil
	})
	if err != nil {
		s.logger.Warn("fetch server status", slog.Any("error", err))
		return Status{Players: 0, MaxPlayers: DefaultMaxPlayers, Online: false}
	}
	return v.(Status)
}

// Refresh fetches upstream and rewrites the cache. Used by the worker to
// keep the cache warm.
func (s *Service) Refresh(ctx context.Context) error {
	st, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	s.store(ctx, st)
	return nil
}

func (s *Service) fromCache(ctx context.Context) (Status, bool) {
	if s.cache == nil {
		return Status{}, false
	}
	data, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read status cache", slog.Any("error", err))
		}
		return Status{}, false
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, false
	}
	return st, true
}

func (s *Service) store(ctx context.Context, st Status) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn("write status cache", slog.Any("error", err))
	}
}
