package events

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.DiscardHandler))
}

func testSubscriber() *subscriber {
	return &subscriber{send: make(chan []byte, sendBuffer)}
}

func TestBroadcastDelivers(t *testing.T) {
	h := testHub()
	wfID := uuid.New()

	sub := testSubscriber()
	h.add(wfID, sub)

	h.Broadcast(wfID, []byte(`{"type":"run_started"}`))
	h.Broadcast(uuid.New(), []byte("other workflow"))

	select {
	case payload := <-sub.send:
		if string(payload) != `{"type":"run_started"}` {
			t.Errorf("payload = %s, want run_started event", payload)
		}
	default:
		t.Fatal("no payload delivered")
	}

	// Сообщение чужого workflow не попало в очередь
	select {
	case payload := <-sub.send:
		t.Errorf("unexpected payload %s", payload)
	default:
	}
}

func TestBroadcastDropsSlowSubscriber(t *testing.T) {
	h := testHub()
	wfID := uuid.New()

	sub := testSubscriber()
	h.add(wfID, sub)

	for i := 0; i < sendBuffer; i++ {
		h.Broadcast(wfID, []byte("event"))
	}
	if got := h.SubscriberCount(wfID); got != 1 {
		t.Fatalf("subscribers = %d, want 1 while buffer fills", got)
	}

	// Буфер полон: следующая рассылка исключает подписчика из реестра
	h.Broadcast(wfID, []byte("overflow"))
	if got := h.SubscriberCount(wfID); got != 0 {
		t.Fatalf("subscribers = %d, want 0 after drop", got)
	}

	// Отключённый подписчик не получает последующих рассылок
	h.Broadcast(wfID, []byte("after drop"))

	drained := 0
	for range sub.send {
		drained++
	}
	if drained != sendBuffer {
		t.Errorf("drained = %d, want %d buffered events and a closed queue", drained, sendBuffer)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	h := testHub()
	wfID := uuid.New()

	sub := testSubscriber()
	h.add(wfID, sub)

	h.unsubscribe(wfID, sub)
	h.unsubscribe(wfID, sub)

	if got := h.SubscriberCount(wfID); got != 0 {
		t.Errorf("subscribers = %d, want 0", got)
	}
	if _, ok := <-sub.send; ok {
		t.Error("send queue still open after unsubscribe")
	}
}
