package inbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("k")
	defer cancel()

	hub.Publish("k", MessageRecord{ID: "1"})

	select {
	case rec := <-ch:
		assert.Equal(t, "1", rec.ID)
	case <-time.After(time.Second):
		t.Fatal("timeout esperando evento")
	}
}

func TestHubKeysAreIsolated(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("a")
	defer cancel()

	hub.Publish("b", MessageRecord{ID: "1"})

	select {
	case rec := <-ch:
		t.Fatalf("evento de outra chave entregue: %v", rec)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("k")

	require.Equal(t, 1, hub.Subscribers("k"))
	cancel()
	require.Equal(t, 0, hub.Subscribers("k"))

	_, open := <-ch
	assert.False(t, open)

	// Publicar depois do cancelamento não pode entrar em pânico.
	hub.Publish("k", MessageRecord{ID: "2"})
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("k")
	defer cancel()

	// Canal tem buffer 16; estourar não pode bloquear o publicador.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish("k", MessageRecord{ID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish bloqueou com assinante lento")
	}
}
