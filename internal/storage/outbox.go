package storage

import (
	"context"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/storage/models"
)

// ResumeEventOutbox 把解析结果和 resume.parsed 事件写进同一个 MySQL 事务，
// 事件随后由 outbox.MessageRelay 投递到 RabbitMQ
type ResumeEventOutbox struct {
	mysql      *MySQL
	exchange   string
	routingKey string
}

// NewResumeEventOutbox 事件投递目标取自 RabbitMQ 配置
func NewResumeEventOutbox(m *MySQL, cfg *config.RabbitMQConfig) *ResumeEventOutbox {
	return &ResumeEventOutbox{mysql: m, exchange: cfg.ResumeEventsExchange, routingKey: cfg.ParsedRoutingKey}
}

// SaveParsedResumeWithEvent 写入解析结果并登记待发布事件
func (o *ResumeEventOutbox) SaveParsedResumeWithEvent(ctx context.Context, row *models.ParsedResume, msg ResumeParsedMessage) error {
	om, err := o.Message(msg)
	if err != nil {
		return err
	}
	return o.mysql.SaveParsedResumeWithEvent(ctx, row, om)
}

// Message 构建发件箱消息
func (o *ResumeEventOutbox) Message(msg ResumeParsedMessage) (*models.OutboxMessage, error) {
	return models.NewOutboxMessage(msg.SubmissionUUID, EventTypeResumeParsed, o.exchange, o.routingKey, msg)
}
