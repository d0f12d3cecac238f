package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
)

func newTestEventService() interfaces.EventService {
	return NewService(arbor.NewLogger())
}

func TestSubscribe_NilHandler(t *testing.T) {
	svc := newTestEventService()
	assert.Error(t, svc.Subscribe(interfaces.EventTaskSubmitted, nil))
}

func TestPublish_NoSubscribers(t *testing.T) {
	svc := newTestEventService()
	err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventTaskSubmitted})
	assert.NoError(t, err)
}

func TestPublish_DeliversToSubscribers(t *testing.T) {
	svc := newTestEventService()

	var delivered int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}
	require.NoError(t, svc.Subscribe(interfaces.EventTaskCompleted, handler))
	require.NoError(t, svc.Subscribe(interfaces.EventTaskCompleted, handler))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventTaskCompleted}))

	// Async delivery
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&delivered) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&delivered))
}

func TestPublish_OnlyMatchingEventType(t *testing.T) {
	svc := newTestEventService()

	var delivered int32
	require.NoError(t, svc.Subscribe(interfaces.EventTaskFailed, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventTaskSubmitted}))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&delivered))
}

func TestPublishSync_WaitsForHandlers(t *testing.T) {
	svc := newTestEventService()

	var mu sync.Mutex
	var order []string
	require.NoError(t, svc.Subscribe(interfaces.EventTaskCompleted, func(ctx context.Context, event interfaces.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return nil
	}))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventTaskCompleted}))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"handler"}, order)
}

func TestPublishSync_AggregatesHandlerErrors(t *testing.T) {
	svc := newTestEventService()

	require.NoError(t, svc.Subscribe(interfaces.EventTaskFailed, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("delivery failed")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventTaskFailed, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventTaskFailed})
	assert.Error(t, err)
}

func TestClose_DropsSubscribers(t *testing.T) {
	svc := newTestEventService()

	var delivered int32
	require.NoError(t, svc.Subscribe(interfaces.EventTaskCompleted, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}))
	require.NoError(t, svc.Close())

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventTaskCompleted}))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&delivered))
}

func TestNotifier_SubscribesToTaskEvents(t *testing.T) {
	svc := newTestEventService()

	notifier, err := NewNotifier(svc, arbor.NewLogger())
	require.NoError(t, err)
	require.NotNil(t, notifier)

	// Payloads the notifier does not recognize are tolerated
	err = svc.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventTaskCompleted,
		Payload: "not a task payload",
	})
	assert.NoError(t, err)
}
