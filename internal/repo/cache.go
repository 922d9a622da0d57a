package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

const (
	// DefaultFlowCacheTTL — время жизни flow в кэше по умолчанию.
	DefaultFlowCacheTTL = 5 * time.Minute

	flowCacheKeyPrefix = "toolflow:flow:"
)

// FlowCache — read-through кэш flow в Redis поверх FlowStore.
//
// Ошибки Redis не прерывают чтение: flow берётся из источника.
// Save пишет в источник и сбрасывает ключ.
type FlowCache struct {
	source FlowStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// FlowCacheConfig — конфигурация FlowCache.
type FlowCacheConfig struct {
	Source FlowStore
	Client *redis.Client
	TTL    time.Duration
	Logger *slog.Logger
}

// NewFlowCache создаёт FlowCache.
func NewFlowCache(cfg FlowCacheConfig) *FlowCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultFlowCacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowCache{
		source: cfg.Source,
		client: cfg.Client,
		ttl:    ttl,
		logger: logger,
	}
}

// NewRedisClient создаёт клиент Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func flowCacheKey(id string) string {
	return flowCacheKeyPrefix + id
}

// GetFlow возвращает flow из кэша или из источника.
func (c *FlowCache) GetFlow(ctx context.Context, id string) (*domain.Flow, error) {
	data, err := c.client.Get(ctx, flowCacheKey(id)).Bytes()
	switch {
	case err == nil:
		var flow domain.Flow
		if err := xjson.Unmarshal(data, &flow); err == nil {
			return &flow, nil
		}
		c.logger.Warn("corrupted flow cache entry", "flow_id", id)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("flow cache read failed", "flow_id", id, "error", err)
	}

	flow, err := c.source.GetFlow(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := xjson.Marshal(flow); err == nil {
		if err := c.client.Set(ctx, flowCacheKey(id), data, c.ttl).Err(); err != nil {
			c.logger.Warn("flow cache write failed", "flow_id", id, "error", err)
		}
	}
	return flow, nil
}

// List читает источник напрямую.
func (c *FlowCache) List(ctx context.Context) ([]domain.Flow, error) {
	return c.source.List(ctx)
}

// Save сохраняет flow в источник и сбрасывает кэш.
func (c *FlowCache) Save(ctx context.Context, flow *domain.Flow) error {
	if err := c.source.Save(ctx, flow); err != nil {
		return err
	}
	// Несброшенный ключ устареет через ttl.
	_ = c.Invalidate(ctx, flow.ID)
	return nil
}

// Invalidate удаляет flow из кэша.
func (c *FlowCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, flowCacheKey(id)).Err(); err != nil {
		c.logger.Warn("flow cache invalidate failed", "flow_id", id, "error", err)
		return err
	}
	return nil
}
