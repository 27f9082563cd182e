package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/pkg/cache"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/shared/redis"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// SnapshotCache stores full message snapshots keyed by the id of their newest message.
// A snapshot for version v holds exactly the messages with id <= v, so entries never go stale.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, version uint64) ([]models.Message, bool)
	SetSnapshot(ctx context.Context, version uint64, messages []models.Message)
}

// CachedMessageRepository serves ListAll from a snapshot cache. Appends go straight through.
type CachedMessageRepository struct {
	MessageRepository
	cache SnapshotCache
	group singleflight.Group
	log   *logger.Logger
}

func NewCachedMessageRepository(next MessageRepository, snapshots SnapshotCache, log *logger.Logger) *CachedMessageRepository {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CachedMessageRepository{
		MessageRepository: next,
		cache:             snapshots,
		log:               log.WithComponent("message-cache"),
	}
}

func (r *CachedMessageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	version, err := r.MessageRepository.LastID(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return make([]models.Message, 0), nil
	}

	if cached, ok := r.cache.GetSnapshot(ctx, version); ok {
		return slices.Clone(cached), nil
	}

	// Concurrent pollers asking for the same version share one store read.
	// The read outlives any single caller so one disconnect cannot fail the rest.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(strconv.FormatUint(version, 10), func() (any, error) {
		all, err := r.MessageRepository.ListAll(shared)
		if err != nil {
			return nil, err
		}
		// Appends that landed after LastID belong to a later version.
		snapshot := lo.Filter(all, func(m models.Message, _ int) bool {
			return m.ID <= version
		})
		r.cache.SetSnapshot(shared, version, snapshot)
		return snapshot, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]models.Message)), nil
	}
}

func snapshotKey(namespace string, version uint64) string {
	key := "messages:snapshot:" + strconv.FormatUint(version, 10)
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

// MemorySnapshotCache keeps snapshots in the in-process cache.
type MemorySnapshotCache struct {
	cache *cache.Cache
}

func NewMemorySnapshotCache(c *cache.Cache) *MemorySnapshotCache {
	return &MemorySnapshotCache{cache: c}
}

func (m *MemorySnapshotCache) GetSnapshot(_ context.Context, version uint64) ([]models.Message, bool) {
	v, ok := m.cache.Get(snapshotKey("", version))
	if !ok {
		return nil, false
	}
	messages, ok := v.([]models.Message)
	return messages, ok
}

func (m *MemorySnapshotCache) SetSnapshot(_ context.Context, version uint64, messages []models.Message) {
	m.cache.Set(snapshotKey("", version), slices.Clone(messages))
}

// RedisSnapshotCache shares snapshots between replicas through redis.
// Keys are prefixed with the store namespace so stores sharing one redis never
// read each other's snapshots. Redis failures degrade to cache misses.
type RedisSnapshotCache struct {
	client    *redis.RedisClient
	namespace string
	ttl       time.Duration
	log       *logger.Logger
}

func NewRedisSnapshotCache(client *redis.RedisClient, namespace string, ttl time.Duration, log *logger.Logger) *RedisSnapshotCache {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &RedisSnapshotCache{client: client, namespace: namespace, ttl: ttl, log: log}
}

func (r *RedisSnapshotCache) key(version uint64) string {
	return snapshotKey(r.namespace, version)
}

func (r *RedisSnapshotCache) GetSnapshot(ctx context.Context, version uint64) ([]models.Message, bool) {
	raw, err := r.client.Get(ctx, r.key(version))
	if err != nil {
		if !redis.IsNil(err) {
			r.log.Warn("Snapshot cache read failed", "version", version, "error", err.Error())
		}
		return nil, false
	}

	var messages []models.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		r.log.Warn("Snapshot cache entry is corrupt", "version", version, "error", err.Error())
		return nil, false
	}
	return messages, true
}

func (r *RedisSnapshotCache) SetSnapshot(ctx context.Context, version uint64, messages []models.Message) {
	data, err := json.Marshal(messages)
	if err != nil {
		r.log.Warn("Snapshot encoding failed", "version", version, "error", err.Error())
		return
	}
	if err := r.client.Set(ctx, r.key(version), data, r.ttl); err != nil {
		r.log.Warn("Snapshot cache write failed", "version", version, "error", fmt.Sprint(err))
	}
}
