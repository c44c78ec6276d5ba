package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait — таймаут записи одного сообщения в websocket.
	writeWait = 10 * time.Second

	// sendBuffer — буфер исходящих сообщений на подписчика.
	// Отстающий подписчик отключается, очередь не растёт.
	sendBuffer = 64
)

// Hub — реестр websocket-подписок на события workflow.
//
// Подписчики группируются по ID workflow; Broadcast доставляет
// сообщение всем подписчикам одного workflow. Потокобезопасен.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]map[*subscriber]struct{}
}

// subscriber — одна подписка с очередью исходящих сообщений.
//
// Канал send закрывается только под h.mu; отправка идёт только под
// h.mu и только подписчикам, состоящим в реестре. Поэтому отправка
// в закрытый канал исключена.
type subscriber struct {
	send chan []byte
	once sync.Once
}

// NewHub создаёт пустой hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

// Subscribe регистрирует соединение на события workflow
// и пишет в него до закрытия. Блокирует до отключения клиента.
func (h *Hub) Subscribe(workflowID uuid.UUID, conn *websocket.Conn) {
	sub := &subscriber{
		send: make(chan []byte, sendBuffer),
	}
	count := h.add(workflowID, sub)

	h.logger.Debug("websocket subscribed",
		"workflow_id", workflowID,
		"subscribers", count,
	)

	defer conn.Close()
	defer h.unsubscribe(workflowID, sub)

	// Читающая горутина: замечает закрытие со стороны клиента.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case payload, ok := <-sub.send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

// Broadcast доставляет сообщение всем подписчикам workflow.
// Подписчик с переполненной очередью исключается из реестра.
func (h *Hub) Broadcast(workflowID uuid.UUID, payload []byte) {
	var slow []*subscriber

	h.mu.RLock()
	for sub := range h.subs[workflowID] {
		select {
		case sub.send <- payload:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Warn("slow websocket subscriber dropped", "workflow_id", workflowID)
		h.unsubscribe(workflowID, sub)
	}
}

// SubscriberCount возвращает число подписчиков workflow.
func (h *Hub) SubscriberCount(workflowID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[workflowID])
}

// add регистрирует подписчика и возвращает размер группы workflow.
func (h *Hub) add(workflowID uuid.UUID, sub *subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[workflowID] == nil {
		h.subs[workflowID] = make(map[*subscriber]struct{})
	}
	h.subs[workflowID][sub] = struct{}{}
	return len(h.subs[workflowID])
}

// unsubscribe удаляет подписчика и закрывает его очередь. Закрытие
// происходит под h.mu, чтобы не пересечься с отправкой из Broadcast.
// Идемпотентен: Broadcast и Subscribe могут отключать один и тот же
// подписчик одновременно.
func (h *Hub) unsubscribe(workflowID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[workflowID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, workflowID)
		}
	}
	sub.close()
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}
