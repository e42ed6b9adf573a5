// File: database/repository/availability/cache.go
package availabilityRepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bloomify-scheduler/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ScheduleCachePrefix prefixes the Redis keys holding serialized schedules.
const ScheduleCachePrefix = "schedule:"

// scheduleGenerationPrefix prefixes the per-provider counters bumped on every
// eviction. A fill only lands if the counter did not move while it read.
const scheduleGenerationPrefix = "schedule-gen:"

var errStaleFill = errors.New("schedule changed while it was being cached")

// cachedAvailabilityRepo is a read-through Redis cache in front of another
// AvailabilityRepository. Every write goes to the inner repository first and
// then evicts the cached schedule.
type cachedAvailabilityRepo struct {
	inner  AvailabilityRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAvailabilityRepo wraps inner with a Redis schedule cache.
func NewCachedAvailabilityRepo(inner AvailabilityRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) AvailabilityRepository {
	return &cachedAvailabilityRepo{inner: inner, client: client, ttl: ttl, logger: logger}
}

func scheduleKey(providerID string) string {
	return ScheduleCachePrefix + providerID
}

func generationKey(providerID string) string {
	return scheduleGenerationPrefix + providerID
}

func (r *cachedAvailabilityRepo) GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error) {
	raw, err := r.client.Get(ctx, scheduleKey(providerID)).Bytes()
	switch {
	case err == nil:
		var schedule models.ProviderSchedule
		if jsonErr := json.Unmarshal(raw, &schedule); jsonErr == nil {
			return &schedule, nil
		}
		r.logger.Warn("discarding unreadable cached schedule", zap.String("providerID", providerID))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("schedule cache read failed", zap.String("providerID", providerID), zap.Error(err))
	}

	gen, genErr := r.generation(ctx, providerID)
	schedule, err := r.inner.GetSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return schedule, nil
	}
	if data, err := json.Marshal(schedule); err == nil {
		switch err := r.fill(ctx, providerID, gen, data); {
		case err == nil:
		case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
			r.logger.Debug("skipping stale schedule cache fill", zap.String("providerID", providerID))
		default:
			r.logger.Warn("schedule cache write failed", zap.String("providerID", providerID), zap.Error(err))
		}
	}
	return schedule, nil
}

func (r *cachedAvailabilityRepo) generation(ctx context.Context, providerID string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(providerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill stores data only while the provider's generation still equals gen.
func (r *cachedAvailabilityRepo) fill(ctx context.Context, providerID string, gen int64, data []byte) error {
	key := generationKey(providerID)
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, scheduleKey(providerID), data, r.ttl)
			return nil
		})
		return err
	}, key)
}

func (r *cachedAvailabilityRepo) ReplaceSchedule(ctx context.Context, schedule *models.ProviderSchedule) error {
	if err := r.inner.ReplaceSchedule(ctx, schedule); err != nil {
		return err
	}
	r.evict(ctx, schedule.ProviderID)
	return nil
}

func (r *cachedAvailabilityRepo) UpsertOverride(ctx context.Context, override *models.Override) error {
	if err := r.inner.UpsertOverride(ctx, override); err != nil {
		return err
	}
	r.evict(ctx, override.ProviderID)
	return nil
}

func (r *cachedAvailabilityRepo) DeleteOverride(ctx context.Context, providerID, date string) error {
	if err := r.inner.DeleteOverride(ctx, providerID, date); err != nil {
		return err
	}
	r.evict(ctx, providerID)
	return nil
}

func (r *cachedAvailabilityRepo) evict(ctx context.Context, providerID string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(providerID))
		pipe.Del(ctx, scheduleKey(providerID))
		return nil
	})
	if err != nil {
		r.logger.Error("schedule cache eviction failed", zap.String("providerID", providerID), zap.Error(err))
	}
}
