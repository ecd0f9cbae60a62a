package inbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gosignup/internal/notification/usecase"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/goroutine"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeUsecase struct {
	mu   sync.Mutex
	ins  []usecase.ConsumeUserRegisteredInput
	cIDs []string
	err  error
}

func (f *fakeUsecase) ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ins = append(f.ins, in)
	f.cIDs = append(f.cIDs, instrument.GetCorrelationID(ctx))
	return f.err
}

func (f *fakeUsecase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ins)
}

type fakeMessage struct {
	body    []byte
	headers map[string]string
}

func (m fakeMessage) Body() []byte               { return m.body }
func (m fakeMessage) Header(key string) string   { return m.headers[key] }
func (m fakeMessage) ID() string                 { return "msg-1" }
func (m fakeMessage) Topic() string              { return event.UserRegisteredDestination }
func (m fakeMessage) Timestamp() time.Time       { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error  { return nil }
func (m fakeMessage) Nack(context.Context) error { return nil }

func TestMQHandler_UserRegisteredWelcome(t *testing.T) {
	t.Run("decodes payload and keeps correlation id", func(t *testing.T) {
		// Arrange
		uc := &fakeUsecase{}
		h := &MQHandler{uc: uc, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		// Act
		err := h.UserRegisteredWelcome(context.Background(), fakeMessage{
			body:    []byte(`{"user_id":"42","username":"alice","email":"alice@example.com","registered_at":"2026-01-01T10:00:00Z"}`),
			headers: map[string]string{"cID": "cid-9"},
		})

		// Assert
		require.NoError(t, err)
		require.Len(t, uc.ins, 1)
		assert.Equal(t, usecase.ConsumeUserRegisteredInput{UserID: 42, Username: "alice", Email: "alice@example.com"}, uc.ins[0])
		assert.Equal(t, "cid-9", uc.cIDs[0])
	})

	t.Run("generates correlation id when header is absent", func(t *testing.T) {
		uc := &fakeUsecase{}
		h := &MQHandler{uc: uc, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.UserRegisteredWelcome(context.Background(), fakeMessage{
			body: []byte(`{"user_id":"1","username":"bob","email":"bob@example.com"}`),
		}))

		assert.Equal(t, []string{"generated"}, uc.cIDs)
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		uc := &fakeUsecase{}
		h := &MQHandler{uc: uc, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.UserRegisteredWelcome(context.Background(), fakeMessage{body: []byte(`{`)}))
		assert.Zero(t, uc.calls())
	})

	t.Run("usecase error is returned", func(t *testing.T) {
		errSend := errors.New("send failed")
		h := &MQHandler{uc: &fakeUsecase{err: errSend}, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		err := h.UserRegisteredWelcome(context.Background(), fakeMessage{
			body: []byte(`{"user_id":"1","username":"bob","email":"bob@example.com"}`),
		})

		assert.ErrorIs(t, err, errSend)
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    consumer_names: [user_registered_welcome]
    consumer_concurrency: 2
`))
	require.NoError(t, err)

	bus := messaging.NewLocal()
	t.Cleanup(func() { _ = bus.Close() })

	routine := goroutine.NewManager(4)
	ctx, cancel := context.WithCancel(context.Background())
	uc := &fakeUsecase{}

	// Act
	RegisterMQConsumer(ctx, cfg, routine, bus, fixedID("generated"), uc, instrument.NewNoop())

	// Assert
	require.Eventually(t, func() bool {
		_, err := bus.Publish(ctx, event.UserRegisteredDestination, messaging.OutgoingMessage{
			Body:    []byte(`{"user_id":"42","username":"alice","email":"alice@example.com"}`),
			Headers: map[string]string{"cID": "cid-1"},
		})
		return err == nil && uc.calls() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	_ = routine.Wait()
}

func TestRegisterMQConsumer_Disabled(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    consumer_names: []
`))
	require.NoError(t, err)

	routine := goroutine.NewManager(4)
	RegisterMQConsumer(context.Background(), cfg, routine, messaging.NewLocal(), fixedID("g"), &fakeUsecase{}, instrument.NewNoop())

	assert.NoError(t, routine.Wait())
}
