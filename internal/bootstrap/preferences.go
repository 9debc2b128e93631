package bootstrap

import (
	"context"
	"time"

	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/internal/service"
	"convohealth-be/pkg/preferences"

	"github.com/redis/go-redis/v9"
)

// PreferenceCacheTTL bounds how long a cached preference can lag behind the
// database after a write made by another process.
const PreferenceCacheTTL = 5 * time.Minute

// ConnectRedis returns nil when Redis is not configured or does not answer.
func ConnectRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Redis unavailable, running single-instance", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// NewPreferenceBackend is the one place the preference store is chosen. The
// preferences table is always the system of record; Redis, when present, is
// a read-through cache in front of it. The server and the maintenance
// commands must both build their backend here.
func NewPreferenceBackend(uowFactory unitofwork.RepositoryFactory, rdb *redis.Client) preferences.Backend {
	source := service.NewPreferenceBackend(uowFactory)
	if rdb == nil {
		return source
	}
	return preferences.NewReadThroughBackend(
		preferences.NewRedisBackend(rdb).WithTTL(PreferenceCacheTTL),
		source,
	)
}
