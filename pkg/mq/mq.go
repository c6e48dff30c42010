// Package mq RabbitMQ发布/订阅封装（topic exchange）
//
// 设计说明：
// 1. Publisher负责声明Exchange并发布JSON消息，消息持久化、带MessageId和时间戳
// 2. Consumer声明持久化Queue并按routing key绑定，手动Ack：处理失败Nack重新入队
// 3. 消息体统一是JSON，Body的结构由发布方（领域事件）决定
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// ExchangeTopic 默认Exchange类型，routing key支持 relation.* / book.# 之类的通配
const ExchangeTopic = "topic"

// ErrChannelClosed 服务端关闭了投递通道（连接断开等）
var ErrChannelClosed = errors.New("mq: delivery channel closed")

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher 连接RabbitMQ并声明Exchange
func NewPublisher(url, exchange, exchangeType string) (*Publisher, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	slog.Info("mq publisher ready", "exchange", exchange, "type", exchangeType)
	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish 发布一条JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	msg, err := NewPublishing(routingKey, message)
	if err != nil {
		return err
	}

	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	metrics.IncMessagePublished(p.exchange, routingKey)
	slog.DebugContext(ctx, "mq message published", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

// NewPublishing 把消息序列化为持久化的amqp.Publishing
func NewPublishing(routingKey string, message interface{}) (amqp.Publishing, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("消息序列化失败: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

// Close 关闭Channel和连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// Handler 消息处理函数，返回error时消息重新入队
type Handler func(ctx context.Context, d amqp.Delivery) error

// NewConsumer 声明Exchange、Queue并绑定routing key
// queue为空时声明一个独占的临时队列（命令行观察事件时使用）
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string) (*Consumer, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	durable, exclusive := true, false
	if queue == "" {
		durable, exclusive = false, true
	}

	q, err := channel.QueueDeclare(queue, durable, !durable, exclusive, false, nil)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败(%s): %w", key, err)
		}
	}

	slog.Info("mq consumer ready", "queue", q.Name, "routing_keys", routingKeys)
	return &Consumer{conn: conn, channel: channel, queue: q.Name}, nil
}

// Queue 实际的队列名（临时队列由服务端命名）
func (c *Consumer) Queue() string { return c.queue }

// Consume 阻塞消费直到ctx取消或通道关闭
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	// 一次只取一条，处理完再取下一条
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	return Dispatch(ctx, c.queue, deliveries, handler)
}

// Dispatch 逐条调用handler并Ack/Nack，ctx取消时返回nil
func Dispatch(ctx context.Context, queue string, deliveries <-chan amqp.Delivery, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return ErrChannelClosed
			}

			start := time.Now()
			if err := handler(ctx, d); err != nil {
				slog.WarnContext(ctx, "mq message requeued",
					"queue", queue, "routing_key", d.RoutingKey, "message_id", d.MessageId, "error", err)
				metrics.ObserveMessageConsumed(queue, "failure", time.Since(start).Seconds())
				if nackErr := d.Nack(false, true); nackErr != nil {
					return fmt.Errorf("nack失败: %w", nackErr)
				}
				continue
			}

			metrics.ObserveMessageConsumed(queue, "success", time.Since(start).Seconds())
			if ackErr := d.Ack(false); ackErr != nil {
				return fmt.Errorf("ack失败: %w", ackErr)
			}
		}
	}
}

// Close 关闭Channel和连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

func open(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	var errs []error
	if channel != nil {
		if err := channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
