package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-notifier/internal/models"
)

// newTestClient returns a client that is never attached to a real
// connection; Publish only interacts with the send channel.
func newTestClient(buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		send: make(chan []byte, buffer),
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == want
	}, time.Second, 5*time.Millisecond)
}

func TestPublishDeliversToAllRegisteredClients(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	c1 := newTestClient(1)
	c2 := newTestClient(1)
	hub.register <- c1
	hub.register <- c2
	waitForClients(t, hub, 2)

	event := &models.Event{Type: models.EventPaymentSucceeded, ID: "in_123", Amount: 500, Currency: "usd"}
	hub.Publish(event)

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got models.Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, *event, got)
		default:
			t.Fatalf("client %s received nothing", c.id)
		}
	}
}

func TestPublishAfterUnregisterDeliversNothing(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	c := newTestClient(1)
	hub.register <- c
	waitForClients(t, hub, 1)
	hub.unregister <- c
	waitForClients(t, hub, 0)

	// Publish must not error or panic with an empty registry.
	hub.Publish(&models.Event{Type: models.EventRefundIssued, ID: "ch_1", Amount: 100, Currency: "usd"})

	_, open := <-c.send
	assert.False(t, open, "send channel should be closed after unregister")
}

func TestPublishDropsClientWithFullBuffer(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	stuck := newTestClient(1)
	stuck.send <- []byte("occupied")
	healthy := newTestClient(1)
	hub.register <- stuck
	hub.register <- healthy
	waitForClients(t, hub, 2)

	hub.Publish(&models.Event{Type: models.EventPaymentSucceeded, ID: "in_9", Amount: 42, Currency: "eur"})

	// The stuck client is removed, the healthy one still gets the event.
	assert.Equal(t, 1, hub.ClientCount())
	select {
	case data := <-healthy.send:
		var got models.Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "in_9", got.ID)
	default:
		t.Fatal("healthy client received nothing")
	}
}

func TestRegisterIsIdempotentPerClient(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	c := newTestClient(1)
	hub.register <- c
	hub.register <- c
	waitForClients(t, hub, 1)

	assert.Equal(t, 1, hub.ClientCount())
}

func TestRemoveClientTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	c := newTestClient(1)
	hub.addClient(c)
	hub.removeClient(c)

	assert.NotPanics(t, func() { hub.removeClient(c) })
	assert.Equal(t, 0, hub.ClientCount())
}

func TestCloseDropsAllClients(t *testing.T) {
	hub := NewHub()

	c1 := newTestClient(1)
	c2 := newTestClient(1)
	hub.register <- c1
	hub.register <- c2
	waitForClients(t, hub, 2)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c1.send
	assert.False(t, open)
	_, open = <-c2.send
	assert.False(t, open)
}
