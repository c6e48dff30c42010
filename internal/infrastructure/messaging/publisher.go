package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/pkg/circuitbreaker"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// EventPublisher 应用层依赖的发布接口
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

// Broker 底层消息通道（*mq.Publisher实现）
type Broker interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Close() error
}

// publishTimeout 单次发布的超时时间
const publishTimeout = 3 * time.Second

// Publisher 带熔断的事件发布者
type Publisher struct {
	broker  Broker
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewPublisher 用已有的Broker创建发布者
func NewPublisher(broker Broker, breaker *circuitbreaker.CircuitBreaker) *Publisher {
	return &Publisher{broker: broker, breaker: breaker, timeout: publishTimeout}
}

// Publish 发布事件
// 请求的ctx可能在响应写完后被取消，所以发布使用独立的超时（保留trace等值）
func (p *Publisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err := p.breaker.ExecuteContext(pubCtx, func(ctx context.Context) error {
		return p.broker.Publish(ctx, routingKey, event)
	})
	if err != nil {
		return fmt.Errorf("发布事件%s失败: %w", routingKey, err)
	}
	return nil
}

// Close 关闭底层连接
func (p *Publisher) Close() error {
	return p.broker.Close()
}

// NoopPublisher 关闭消息队列时使用，丢弃所有事件
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// NewEventPublisher 按配置创建发布者，返回的cleanup用于关闭连接
func NewEventPublisher(cfg *config.Config) (EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return NoopPublisher{}, func() {}, nil
	}

	broker, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType)
	if err != nil {
		return nil, nil, err
	}

	breaker := circuitbreaker.NewCircuitBreaker("mq-publisher", circuitbreaker.Config{
		Timeout:     10 * time.Second,
		ReadyToTrip: circuitbreaker.ConsecutiveFailures(3),
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.FromContext(context.Background()).Warn("circuit breaker state changed",
			"name", name, "from", from.String(), "to", to.String())
	})

	p := NewPublisher(broker, breaker)
	cleanup := func() {
		if err := p.Close(); err != nil {
			logger.FromContext(context.Background()).Warn("关闭消息连接失败", "error", err)
		}
	}
	return p, cleanup, nil
}

// PublishAfterCommit 发布事件，失败只记日志（业务数据已经提交）
func PublishAfterCommit(ctx context.Context, publisher EventPublisher, routingKey string, event interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, event); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "domain event dropped", "routing_key", routingKey, "error", err)
	}
}
