// Package outbox 发件箱模式：解析结果和事件同事务落库，由中继异步投递到 RabbitMQ
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/storage/models"
	"github.com/Saking-tech/Resume-parser/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPollingInterval = 5 * time.Second // 默认轮询 outbox 表的间隔
	defaultBatchSize       = 10              // 每次轮询处理的消息批量大小
)

// Store 锁定并处理一批待发布消息，由 storage.MySQL 实现
type Store interface {
	ProcessOutbox(ctx context.Context, batchSize int, publish func(context.Context, *models.OutboxMessage) error) (int, error)
}

// Publisher 投递已序列化的消息体，由 storage.RabbitMQ 实现
type Publisher interface {
	PublishRaw(ctx context.Context, exchangeName, routingKey string, body []byte, persistent bool) error
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理
type MessageRelay struct {
	store           Store
	publisher       Publisher
	logger          zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	tracer          trace.Tracer

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// Option 中继选项
type Option func(*MessageRelay)

// WithPollingInterval d<=0 时忽略
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize n<=0 时忽略
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(r *MessageRelay) {
		r.logger = l
	}
}

// NewMessageRelay 创建一个新的 MessageRelay 实例
func NewMessageRelay(store Store, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		store:           store,
		publisher:       publisher,
		logger:          zerolog.Nop(),
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		tracer:          otel.Tracer("outbox-relay"),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 在后台按间隔轮询，直到 Stop 或 ctx 结束
func (r *MessageRelay) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.pollingInterval).Int("batch_size", r.batchSize).Msg("MessageRelay starting")
	ticker := time.NewTicker(r.pollingInterval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Info().Msg("MessageRelay stopped")
				return
			case <-ctx.Done():
				r.logger.Info().Msg("MessageRelay stopped")
				return
			case <-ticker.C:
				if _, err := r.ProcessOnce(ctx); err != nil {
					r.logger.Error().Err(err).Msg("处理待发布消息失败")
				}
			}
		}
	}()
}

// Stop 停止轮询并等待当前批次结束，可重复调用
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	r.wg.Wait()
}

// ProcessOnce 处理一批消息，返回本批处理的条数（含发布失败的）
func (r *MessageRelay) ProcessOnce(ctx context.Context) (int, error) {
	n, err := r.store.ProcessOutbox(ctx, r.batchSize, r.publish)
	if n > 0 {
		r.logger.Debug().Int("count", n).Msg("outbox 批次处理完成")
	}
	return n, err
}

func (r *MessageRelay) publish(ctx context.Context, msg *models.OutboxMessage) error {
	ctx, span := r.tracer.Start(ctx, "outbox.Publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", msg.TargetExchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", msg.TargetRoutingKey),
			attribute.String("messaging.message.id", msg.AggregateID),
			attribute.Int("outbox.retry_count", msg.RetryCount),
		),
	)
	defer span.End()

	err := r.publisher.PublishRaw(ctx, msg.TargetExchange, msg.TargetRoutingKey, msg.Payload, true)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		r.logger.Warn().Err(err).
			Uint64("id", msg.ID).
			Str("aggregate_id", msg.AggregateID).
			Int("retries", msg.RetryCount+1).
			Msg("发布 outbox 消息失败")
	}
	return err
}
