package models

import (
	"fmt"
	"time"

	"github.com/Saking-tech/Resume-parser/pkg/utils"
	"gorm.io/datatypes"
)

// 发件箱消息状态
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMaxRetries 发布失败达到该次数后标记为 FAILED，不再投递
const OutboxMaxRetries = 5

// OutboxMessage 与解析结果同事务写入的待发布事件
type OutboxMessage struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement"`
	AggregateID      string         `gorm:"type:char(36);index:idx_outbox_aggregate"` // submission_uuid
	EventType        string         `gorm:"type:varchar(64)"`
	Payload          datatypes.JSON `gorm:"type:json"`
	TargetExchange   string         `gorm:"type:varchar(255)"`
	TargetRoutingKey string         `gorm:"type:varchar(255)"`
	Status           string         `gorm:"type:varchar(16);index:idx_outbox_status_created,priority:1;default:PENDING"`
	RetryCount       int
	ErrorMessage     string     `gorm:"type:text"`
	CreatedAt        time.Time  `gorm:"type:datetime(6);index:idx_outbox_status_created,priority:2"`
	ProcessedAt      *time.Time `gorm:"type:datetime(6)"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// NewOutboxMessage payload 序列化为 JSON，状态为 PENDING
func NewOutboxMessage(aggregateID, eventType, exchange, routingKey string, payload any) (*OutboxMessage, error) {
	body, err := utils.ToJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload %s: %w", aggregateID, err)
	}
	return &OutboxMessage{
		AggregateID:      aggregateID,
		EventType:        eventType,
		Payload:          body,
		TargetExchange:   exchange,
		TargetRoutingKey: routingKey,
		Status:           OutboxStatusPending,
	}, nil
}

// MarkSent 发布成功
func (m *OutboxMessage) MarkSent(now time.Time) {
	m.Status = OutboxStatusSent
	m.ProcessedAt = &now
	m.ErrorMessage = ""
}

// MarkAttemptFailed 记录一次失败，达到上限后标记为 FAILED
func (m *OutboxMessage) MarkAttemptFailed(err error) {
	m.RetryCount++
	m.ErrorMessage = err.Error()
	if m.RetryCount >= OutboxMaxRetries {
		m.Status = OutboxStatusFailed
	}
}
