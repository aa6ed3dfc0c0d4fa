// Package cache fronts the district lookup with a Redis read-through cache.
//
// Districts change rarely and every scope check on a district entry resolves one, so
// approvals with many district scopes hit Redis instead of Postgres. Cache failures
// degrade to the backing lookup; they never fail the caller.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
)

const keyPrefix = "memberpanel:district:"

// DistrictLookup is the uncached source.
type DistrictLookup interface {
	FindDistrict(ctx context.Context, districtID id.DistrictID) (*models.District, error)
}

// DistrictCache implements DistrictLookup over Redis.
type DistrictCache struct {
	client *redis.Client
	next   DistrictLookup
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*DistrictCache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *DistrictCache) {
		c.logger = logger
	}
}

func NewDistrictCache(client *redis.Client, next DistrictLookup, ttl time.Duration, opts ...Option) *DistrictCache {
	c := &DistrictCache{client: client, next: next, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cachedDistrict struct {
	ProvinceID string `json:"province_id"`
	Name       string `json:"name"`
}

func (c *DistrictCache) FindDistrict(ctx context.Context, districtID id.DistrictID) (*models.District, error) {
	key := keyPrefix + districtID.String()

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if d, decodeErr := decode(districtID, raw); decodeErr == nil {
			return d, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt district cache entry", "district_id", districtID.String())
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "district cache read failed", "error", err)
	}

	d, err := c.next.FindDistrict(ctx, districtID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedDistrict{ProvinceID: d.ProvinceID.String(), Name: d.Name})
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "district cache write failed", "error", setErr)
		}
	}
	return d, nil
}

// Invalidate drops a cached district, e.g. after it moves to another province.
func (c *DistrictCache) Invalidate(ctx context.Context, districtID id.DistrictID) error {
	return c.client.Del(ctx, keyPrefix+districtID.String()).Err()
}

func decode(districtID id.DistrictID, raw []byte) (*models.District, error) {
	var cd cachedDistrict
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, err
	}
	provinceID, err := id.ParseProvinceID(cd.ProvinceID)
	if err != nil {
		return nil, err
	}
	return &models.District{ID: districtID, ProvinceID: provinceID, Name: cd.Name}, nil
}
