package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
)

// EntitlementCache shares entitlement lookups across API instances so the
// pro-feature gate does not hit Postgres on every request.
type EntitlementCache interface {
	Get(ctx context.Context, userID uuid.UUID) (pro bool, found bool, err error)
	Set(ctx context.Context, userID uuid.UUID, pro bool) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type entitlementCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewEntitlementCache(log *logger.Logger) (EntitlementCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &entitlementCache{
		log: log.With("service", "RedisEntitlementCache"),
		rdb: rdb,
		ttl: 5 * time.Minute,
	}, nil
}

func key(userID uuid.UUID) string {
	return "entitlement:pro:" + userID.String()
}

func (c *entitlementCache) Get(ctx context.Context, userID uuid.UUID) (bool, bool, error) {
	val, err := c.rdb.Get(ctx, key(userID)).Result()
	if err == goredis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("entitlement get: %w", err)
	}
	return val == "1", true, nil
}

func (c *entitlementCache) Set(ctx context.Context, userID uuid.UUID, pro bool) error {
	val := "0"
	if pro {
		val = "1"
	}
	if err := c.rdb.Set(ctx, key(userID), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("entitlement set: %w", err)
	}
	return nil
}

func (c *entitlementCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("entitlement invalidate: %w", err)
	}
	return nil
}

func (c *entitlementCache) Close() error {
	return c.rdb.Close()
}
