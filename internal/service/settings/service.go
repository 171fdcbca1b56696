package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/citamed/scheduling-api/internal/repository"
)

// Service reads named configuration values through a TTL cache. It is
// injected as a dependency so tests can supply deterministic values,
// and Invalidate lets admin updates take effect before the TTL lapses.
type Service struct {
	repo  repository.SettingRepository
	cache *cache.Cache
}

func NewService(repo repository.SettingRepository, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Invalidate drops every cached value. Called after a setting is
// written.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

func (s *Service) value(ctx context.Context, key string) (string, bool) {
	if cached, found := s.cache.Get(key); found {
		return cached.(string), true
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false
	}

	s.cache.Set(key, setting.Value, cache.DefaultExpiration)
	return setting.Value, true
}

// Bool reads a toggle; missing or unparseable values fall back to def.
func (s *Service) Bool(ctx context.Context, key string, def bool) bool {
	raw, ok := s.value(ctx, key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "si", "sí":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

// Int reads a numeric value; missing or unparseable values fall back
// to def.
func (s *Service) Int(ctx context.Context, key string, def int) int {
	raw, ok := s.value(ctx, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

// String reads a text value; missing values fall back to def.
func (s *Service) String(ctx context.Context, key string, def string) string {
	raw, ok := s.value(ctx, key)
	if !ok || raw == "" {
		return def
	}
	return raw
}
