package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/storage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore 内存版 outbox 表，状态流转与 MySQL 实现一致
type memoryStore struct {
	mu       sync.Mutex
	messages []*models.OutboxMessage
}

func (s *memoryStore) ProcessOutbox(ctx context.Context, batchSize int, publish func(context.Context, *models.OutboxMessage) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, msg := range s.messages {
		if n >= batchSize {
			break
		}
		if msg.Status != models.OutboxStatusPending {
			continue
		}
		if err := publish(ctx, msg); err != nil {
			msg.MarkAttemptFailed(err)
		} else {
			msg.MarkSent(time.Now())
		}
		n++
	}
	return n, nil
}

func (s *memoryStore) statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Status
	}
	return out
}

type published struct {
	exchange, routingKey, body string
}

type recordingPublisher struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (p *recordingPublisher) PublishRaw(ctx context.Context, exchangeName, routingKey string, body []byte, persistent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{exchangeName, routingKey, string(body)})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func pending(t *testing.T, id string) *models.OutboxMessage {
	t.Helper()
	msg, err := models.NewOutboxMessage(id, "resume.parsed", "resume.events.exchange", "resume.parsed",
		map[string]string{"submission_uuid": id})
	require.NoError(t, err)
	return msg
}

func TestProcessOnceHonorsBatchSize(t *testing.T) {
	store := &memoryStore{messages: []*models.OutboxMessage{pending(t, "a"), pending(t, "b"), pending(t, "c")}}
	pub := &recordingPublisher{}
	relay := NewMessageRelay(store, pub, WithBatchSize(2))

	n, err := relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{models.OutboxStatusSent, models.OutboxStatusSent, models.OutboxStatusPending}, store.statuses())

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "resume.events.exchange", pub.sent[0].exchange)
	assert.Equal(t, "resume.parsed", pub.sent[0].routingKey)
	assert.JSONEq(t, `{"submission_uuid":"a"}`, pub.sent[0].body)

	n, err = relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessOnceRetriesThenFails(t *testing.T) {
	store := &memoryStore{messages: []*models.OutboxMessage{pending(t, "a")}}
	relay := NewMessageRelay(store, &recordingPublisher{err: errors.New("channel closed")})

	for i := 0; i < models.OutboxMaxRetries; i++ {
		_, err := relay.ProcessOnce(context.Background())
		require.NoError(t, err)
	}
	msg := store.messages[0]
	assert.Equal(t, models.OutboxStatusFailed, msg.Status)
	assert.Equal(t, models.OutboxMaxRetries, msg.RetryCount)
	assert.Equal(t, "channel closed", msg.ErrorMessage)

	n, err := relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "FAILED 消息不再投递")
}

func TestStartPollsUntilStopped(t *testing.T) {
	store := &memoryStore{messages: []*models.OutboxMessage{pending(t, "a")}}
	pub := &recordingPublisher{}
	relay := NewMessageRelay(store, pub, WithPollingInterval(5*time.Millisecond))

	relay.Start(context.Background())
	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)

	relay.Stop()
	relay.Stop()
}

func TestStartStopsWithContext(t *testing.T) {
	relay := NewMessageRelay(&memoryStore{}, &recordingPublisher{}, WithPollingInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	relay.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		relay.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ctx 取消后中继没有退出")
	}
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	relay := NewMessageRelay(&memoryStore{}, &recordingPublisher{}, WithBatchSize(0), WithPollingInterval(-1))
	assert.Equal(t, defaultBatchSize, relay.batchSize)
	assert.Equal(t, defaultPollingInterval, relay.pollingInterval)
}
