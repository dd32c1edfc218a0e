package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxMessage(t *testing.T) {
	msg, err := NewOutboxMessage("uuid-1", "resume.parsed", "resume.events.exchange", "resume.parsed",
		map[string]int{"skill_count": 2})
	require.NoError(t, err)

	assert.Equal(t, OutboxStatusPending, msg.Status)
	assert.Equal(t, "uuid-1", msg.AggregateID)
	assert.JSONEq(t, `{"skill_count":2}`, string(msg.Payload))

	_, err = NewOutboxMessage("uuid-2", "resume.parsed", "x", "y", make(chan int))
	assert.Error(t, err)
}

func TestOutboxMessageTransitions(t *testing.T) {
	msg := &OutboxMessage{Status: OutboxStatusPending}
	for i := 1; i < OutboxMaxRetries; i++ {
		msg.MarkAttemptFailed(errors.New("amqp down"))
		assert.Equal(t, OutboxStatusPending, msg.Status, "第 %d 次失败后仍待重试", i)
	}
	msg.MarkAttemptFailed(errors.New("amqp down"))
	assert.Equal(t, OutboxStatusFailed, msg.Status)
	assert.Equal(t, OutboxMaxRetries, msg.RetryCount)
	assert.Equal(t, "amqp down", msg.ErrorMessage)

	now := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	msg.MarkSent(now)
	assert.Equal(t, OutboxStatusSent, msg.Status)
	assert.Empty(t, msg.ErrorMessage)
	require.NotNil(t, msg.ProcessedAt)
	assert.Equal(t, now, *msg.ProcessedAt)
}
