package maps

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vtc/internal/modules/pricing"
)

// CachedRouter memoizes routes in Redis. Cache failures fall through to the provider.
type CachedRouter struct {
	next pricing.RouteProvider
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

func NewCachedRouter(next pricing.RouteProvider, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedRouter {
	if log == nil {
		log = slog.Default()
	}
	return &CachedRouter{next: next, rdb: rdb, ttl: ttl, log: log}
}

func routeKey(origin, destination string) string {
	norm := strings.ToLower(strings.TrimSpace(origin)) + "|" + strings.ToLower(strings.TrimSpace(destination))
	sum := sha1.Sum([]byte(norm))
	return "route:" + hex.EncodeToString(sum[:])
}

func (c *CachedRouter) Route(ctx context.Context, origin, destination string) (pricing.Route, error) {
	key := routeKey(origin, destination)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var r pricing.Route
		if jerr := json.Unmarshal(raw, &r); jerr == nil {
			return r, nil
		}
		c.log.Warn("discarding malformed cached route", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("route cache read failed", "error", err)
	}

	r, err := c.next.Route(ctx, origin, destination)
	if err != nil {
		return pricing.Route{}, err
	}
	if payload, jerr := json.Marshal(r); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warn("route cache write failed", "error", serr)
		}
	}
	return r, nil
}
