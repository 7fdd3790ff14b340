package inventory

import "context"

// EventPublisher 事件发布端口
// pkg/mq的Publisher满足该接口;为nil时用例静默跳过发布,
// 本地开发不依赖RabbitMQ
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// CacheInvalidator 看板缓存失效端口
// 任何库存变更落库后失效看板与统计缓存,下一次读取回源重算
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
