package main

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "领域事件",
	}
	cmd.AddCommand(newEventsWatchCmd(a))
	return cmd
}

// newEventsWatchCmd 订阅领域事件并逐行打印，Ctrl+C退出
// 不指定--queue时使用独占的临时队列，退出后队列自动删除
func newEventsWatchCmd(a *app) *cobra.Command {
	var queue string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "打印发布到消息队列的领域事件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.MQ.Enabled {
				return errors.New("消息队列未启用（mq.enabled=false）")
			}

			consumer, err := mq.NewConsumer(a.cfg.MQ.URL, a.cfg.MQ.Exchange, a.cfg.MQ.ExchangeType,
				queue, messaging.RoutingKeys)
			if err != nil {
				return err
			}
			defer func() { _ = consumer.Close() }()

			out := cmd.OutOrStdout()
			a.log.Info("开始接收事件", "queue", consumer.Queue())
			return consumer.Consume(cmd.Context(), func(_ context.Context, d amqp.Delivery) error {
				_, err := fmt.Fprintln(out, formatDelivery(d))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "持久化队列名（默认使用临时队列）")
	return cmd
}

// formatDelivery 一行一条：时间 routing_key 消息体
func formatDelivery(d amqp.Delivery) string {
	return fmt.Sprintf("%s %s %s", d.Timestamp.Format("2006-01-02T15:04:05Z07:00"), d.RoutingKey, d.Body)
}
