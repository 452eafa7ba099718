package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/metrics"
	"github.com/FrotaLink/FrotaLink/internal/common/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher 把车辆更新发布到 RabbitMQ topic exchange，
// 供下游系统（报表、围栏、第三方集成）按路由键订阅。
// 发布经过熔断器：broker 故障时快速失败，不拖慢上报主路径。
type EventPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	breaker  *middleware.CircuitBreaker
	log      logger.Logger
}

// NewEventPublisher 建连并声明 topic exchange。
func NewEventPublisher(cfg config.RabbitMQConfig, log logger.Logger) (*EventPublisher, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &EventPublisher{
		conn:     conn,
		ch:       ch,
		exchange: cfg.Exchange,
		breaker:  middleware.NewCircuitBreaker("rabbitmq-publish", 5, 30*time.Second),
		log:      log,
	}, nil
}

// Publish 路由键 vehicle.update.{vehicleID}；失败只记日志计数。
func (p *EventPublisher) Publish(ctx context.Context, u VehicleUpdate) {
	if p == nil || p.ch == nil {
		return
	}
	body, err := json.Marshal(u)
	if err != nil {
		return
	}
	key := "vehicle.update." + u.VehicleID
	err = p.breaker.Call(ctx, func() error {
		return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		})
	})
	if err != nil {
		metrics.BroadcastDrops.WithLabelValues("amqp").Inc()
		if p.log != nil {
			p.log.Warnf("amqp publish failed key=%s err=%v", key, err)
		}
	}
}

// Close 关闭通道与连接。
func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
