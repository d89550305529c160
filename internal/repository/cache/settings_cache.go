package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"settingsapi/internal/model"
	"settingsapi/internal/repository"
)

const (
	keyPrefix   = "settings:"
	leasePrefix = "settings-fill:"

	// leaseTTL expires fill leases left behind by readers that never finished.
	leaseTTL = 10 * time.Second
)

// fillScript stores the entry only while the caller still holds the fill lease. Writers
// delete the lease together with the entry, so a read that raced a write never caches the
// value it loaded before that write.
var fillScript = redis.NewScript(`
if redis.call("GET", KEYS[2]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	redis.call("DEL", KEYS[2])
	return 1
end
return 0
`)

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	redis.Scripter
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SettingsCache is a read-through Redis cache in front of another SettingsRepository.
// Writes go to the inner repository first, then invalidate the key and any in-flight fill
// lease. Cache failures are logged and never fail the request.
type SettingsCache struct {
	inner  repository.SettingsRepository
	client redisClient
	ttl    time.Duration
	log    log.FieldLogger
}

// NewSettingsCache wraps inner with a cache stored in client.
func NewSettingsCache(inner repository.SettingsRepository, client redisClient, ttl time.Duration, logger log.FieldLogger) *SettingsCache {
	return &SettingsCache{inner: inner, client: client, ttl: ttl, log: logger.WithField("component", "settings_cache")}
}

var _ repository.SettingsRepository = (*SettingsCache)(nil)

func (c *SettingsCache) FindByUserID(ctx context.Context, userID string) (*model.Settings, error) {
	key := keyPrefix + userID
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s model.Settings
		if jsonErr := json.Unmarshal(raw, &s); jsonErr == nil {
			return &s, nil
		}
		c.log.WithField("key", key).Warn("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	lease := leasePrefix + userID
	token := c.acquire(ctx, lease)

	s, err := c.inner.FindByUserID(ctx, userID)
	if err != nil {
		if token != "" {
			_ = c.client.Del(ctx, lease).Err()
		}
		return nil, err
	}
	if token != "" {
		c.fill(ctx, key, lease, token, s)
	}
	return s, nil
}

func (c *SettingsCache) Save(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	out, err := c.inner.Save(ctx, s)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, s.UserID)
	return out, nil
}

func (c *SettingsCache) Delete(ctx context.Context, userID string) error {
	if err := c.inner.Delete(ctx, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

// acquire takes the fill lease for a miss. An empty token means the entry will not be filled.
func (c *SettingsCache) acquire(ctx context.Context, lease string) string {
	token := uuid.NewString()
	if err := c.client.Set(ctx, lease, token, leaseTTL).Err(); err != nil {
		c.log.WithError(err).WithField("key", lease).Warn("cache write failed")
		return ""
	}
	return token
}

func (c *SettingsCache) fill(ctx context.Context, key, lease, token string, s *model.Settings) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	stored, err := fillScript.Run(ctx, c.client, []string{key, lease}, token, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
		return
	}
	if stored == 0 {
		c.log.WithField("key", key).Debug("cache fill skipped after concurrent write")
	}
}

func (c *SettingsCache) invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyPrefix+userID, leasePrefix+userID).Err(); err != nil {
		c.log.WithError(err).WithField("user_id", userID).Warn("cache invalidation failed")
	}
}
