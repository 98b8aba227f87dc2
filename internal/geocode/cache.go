package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
)

// Cache stores resolved locations by key.
type Cache interface {
	// Get returns the cached location and whether it was present.
	Get(ctx context.Context, key string) (domain.Location, bool, error)
	Set(ctx context.Context, key string, loc domain.Location, ttl time.Duration) error
}

// CachingGeocoder is a read-through cache in front of another Geocoder.
// Cache errors are logged and never fail a lookup.
type CachingGeocoder struct {
	next   Geocoder
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Geocoder = (*CachingGeocoder)(nil)

// NewCachingGeocoder wraps next with cache.
func NewCachingGeocoder(next Geocoder, cache Cache, ttl time.Duration, log *slog.Logger) *CachingGeocoder {
	if log == nil {
		log = slog.Default()
	}
	return &CachingGeocoder{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.With(slog.String("component", "geocode_cache")),
	}
}

// CacheKey returns the cache key for address. Addresses that differ only in
// case or surrounding and repeated whitespace share a key.
func CacheKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Geocode implements Geocoder.
func (g *CachingGeocoder) Geocode(ctx context.Context, address string) (domain.Location, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)
	key := CacheKey(address)

	loc, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		log.Warn("geocode cache read failed", slog.String("error", err.Error()))
	} else if ok {
		log.Debug("geocode cache hit")
		return loc, nil
	}

	loc, err = g.next.Geocode(ctx, address)
	if err != nil {
		return domain.Location{}, err
	}

	if err := g.cache.Set(ctx, key, loc, g.ttl); err != nil {
		log.Warn("geocode cache write failed", slog.String("error", err.Error()))
	}
	return loc, nil
}
