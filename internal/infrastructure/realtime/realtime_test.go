package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryBroker_DeliversToRecipientOnly(t *testing.T) {
	broker := NewInMemoryBroker(4, zap.NewNop())
	defer broker.Close()

	alice, bob := uuid.New(), uuid.New()
	aliceCh, cancelAlice := broker.Subscribe(alice)
	defer cancelAlice()
	bobCh, cancelBob := broker.Subscribe(bob)
	defer cancelBob()

	n := messaging.Notification{RecipientID: alice, MessageID: uuid.New(), Body: "hi"}
	require.NoError(t, broker.Publish(context.Background(), n))

	select {
	case got := <-aliceCh:
		assert.Equal(t, n.MessageID, got.MessageID)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the notification")
	}

	select {
	case <-bobCh:
		t.Fatal("bob should not receive alice's notification")
	default:
	}
}

func TestInMemoryBroker_MultipleTabs(t *testing.T) {
	broker := NewInMemoryBroker(4, nil)
	defer broker.Close()

	user := uuid.New()
	first, cancelFirst := broker.Subscribe(user)
	second, cancelSecond := broker.Subscribe(user)
	defer cancelSecond()
	assert.Equal(t, 2, broker.ListenerCount())

	require.NoError(t, broker.Publish(context.Background(), messaging.Notification{RecipientID: user}))
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)

	cancelFirst()
	cancelFirst()
	assert.Equal(t, 1, broker.ListenerCount())
	<-first
	_, open := <-first
	assert.False(t, open)
}

func TestInMemoryBroker_SlowClientDoesNotBlock(t *testing.T) {
	broker := NewInMemoryBroker(1, nil)
	defer broker.Close()

	user := uuid.New()
	ch, cancel := broker.Subscribe(user)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, broker.Publish(context.Background(), messaging.Notification{RecipientID: user}))
	}
	assert.Len(t, ch, 1)
}

func TestInMemoryBroker_CloseDisconnectsListeners(t *testing.T) {
	broker := NewInMemoryBroker(1, nil)
	ch, cancel := broker.Subscribe(uuid.New())

	require.NoError(t, broker.Close())
	_, open := <-ch
	assert.False(t, open)
	cancel()
	assert.Zero(t, broker.ListenerCount())
}

func TestNewBroker_FallsBackWithoutRedis(t *testing.T) {
	b, err := NewBroker(context.Background(), nil, config.RealtimeConfig{ClientBuffer: 8}, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &InMemoryBroker{}, b)
}

func TestNewRedisBroker_Options(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	b := NewRedisBroker(client, 0, WithChannel("custom"), WithChannel(""))
	assert.Equal(t, "custom", b.Channel())
	assert.Equal(t, defaultClientBuffer, b.hub.buffer)
	assert.NoError(t, b.Close())
}
