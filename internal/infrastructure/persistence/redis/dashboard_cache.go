package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/internal/domain/prediction"
)

const (
	dashboardKey  = "agristock:dashboard"
	statisticsKey = "agristock:statistics"
)

// DashboardCache 预测看板缓存(Cache-Aside)
// 看板数据是时点分析,轻微过期可以接受,TTL内直接命中缓存;
// 未命中返回(nil, nil),由调用方回源重算
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDashboardCache 创建看板缓存
func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardCache{client: client, ttl: ttl}
}

// GetDashboard 读取看板缓存,未命中返回(nil, nil)
func (c *DashboardCache) GetDashboard(ctx context.Context) (*prediction.Dashboard, error) {
	val, err := c.client.Get(ctx, dashboardKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取看板缓存失败: %w", err)
	}
	var dash prediction.Dashboard
	if err := json.Unmarshal([]byte(val), &dash); err != nil {
		return nil, fmt.Errorf("反序列化看板缓存失败: %w", err)
	}
	return &dash, nil
}

// SetDashboard 写入看板缓存
func (c *DashboardCache) SetDashboard(ctx context.Context, dash *prediction.Dashboard) error {
	val, err := json.Marshal(dash)
	if err != nil {
		return fmt.Errorf("序列化看板失败: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKey, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入看板缓存失败: %w", err)
	}
	return nil
}

// GetStatistics 读取统计快照,未命中返回(nil, nil)
func (c *DashboardCache) GetStatistics(ctx context.Context) (*inventory.Statistics, error) {
	val, err := c.client.Get(ctx, statisticsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取统计缓存失败: %w", err)
	}
	var stats inventory.Statistics
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		return nil, fmt.Errorf("反序列化统计缓存失败: %w", err)
	}
	return &stats, nil
}

// SetStatistics 写入统计快照
func (c *DashboardCache) SetStatistics(ctx context.Context, stats *inventory.Statistics) error {
	val, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("序列化统计失败: %w", err)
	}
	if err := c.client.Set(ctx, statisticsKey, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入统计缓存失败: %w", err)
	}
	return nil
}

// Invalidate 库存发生变更后失效缓存
func (c *DashboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, dashboardKey, statisticsKey).Err(); err != nil {
		return fmt.Errorf("失效看板缓存失败: %w", err)
	}
	return nil
}
