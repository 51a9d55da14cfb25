package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishUpdateSaved(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: DefaultExchange, logger: zaptest.NewLogger(t)}

	event := UpdateSaved{
		ID: "u-1", UserID: "U1", TeamName: "Frontend Platform", OrgName: "Acme Corp",
		WeekDate: "2025-05-12", Created: true, SavedAt: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishUpdateSaved(context.Background(), event))

	assert.Equal(t, "events", ch.exchange)
	assert.Equal(t, "weekly_update.saved", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "u-1", decoded["id"])
	assert.Equal(t, "U1", decoded["userId"])
	assert.Equal(t, "2025-05-12", decoded["weekDate"])
	assert.Equal(t, true, decoded["created"])

	p.Close()
	assert.True(t, ch.closed)
}

func TestPublishWrapsChannelError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &AMQPPublisher{channel: ch, exchange: DefaultExchange, logger: zaptest.NewLogger(t)}

	err := p.PublishUpdateSaved(context.Background(), UpdateSaved{ID: "u-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly_update.saved")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	require.NoError(t, p.PublishUpdateSaved(context.Background(), UpdateSaved{}))
	p.Close()
}
