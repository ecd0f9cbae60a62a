package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/shared/event"
	"github.com/shandysiswandi/gosignup/internal/signup/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	destination string
	msg         messaging.OutgoingMessage
	err         error
}

func (c *capturePublisher) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	c.destination = destination
	c.msg = msg
	return messaging.PublishResult{MessageID: "1", Topic: destination}, c.err
}

func TestMessaging_PublishUserRegistered(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in := usecase.UserRegisteredEvent{UserID: 42, Username: "alice", Email: "a@x.com"}

	t.Run("publishes the event with the correlation id", func(t *testing.T) {
		// Arrange
		pub := &capturePublisher{}
		m := NewMessaging(pub, clock.NewManual(now), instrument.NewNoop())
		ctx := instrument.SetCorrelationID(context.Background(), "cid-1")

		// Act
		err := m.PublishUserRegistered(ctx, in)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, event.UserRegisteredDestination, pub.destination)
		assert.Equal(t, "cid-1", pub.msg.Headers[keyOfCorrelationID])

		var body event.UserRegisteredMessage
		require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
		assert.Equal(t, event.UserRegisteredMessage{UserID: 42, Username: "alice", Email: "a@x.com", RegisteredAt: now}, body)
		assert.Contains(t, string(pub.msg.Body), `"user_id":"42"`)
	})

	t.Run("returns broker errors", func(t *testing.T) {
		// Arrange
		pub := &capturePublisher{err: errors.New("broker down")}
		m := NewMessaging(pub, clock.NewManual(now), instrument.NewNoop())

		// Act
		err := m.PublishUserRegistered(context.Background(), in)

		// Assert
		assert.EqualError(t, err, "broker down")
	})
}
