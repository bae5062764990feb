package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/metrics"
	"sabacc_bot/internal/service"
)

const (
	MessageTable  = "table"
	MessageClosed = "closed"
)

// Message - то, что получает зритель
type Message struct {
	Type  string              `json:"type"`
	Table *service.PublicView `json:"table,omitempty"`
}

// Hub раздает публичные снимки столов подписанным зрителям
type Hub struct {
	Rooms map[string]*Room
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{Rooms: make(map[string]*Room)}
}

// Join сажает клиента в комнату стола и сразу отдает последний снимок
func (h *Hub) Join(c *Client, initial []byte) {
	h.mu.Lock()
	room, ok := h.Rooms[c.Key]
	if !ok {
		room = NewRoom(c.Key)
		h.Rooms[c.Key] = room
	}
	h.mu.Unlock()

	last := room.add(c)
	if initial == nil {
		initial = last
	}
	if initial != nil {
		select {
		case c.Send <- initial:
		default:
		}
	}
	metrics.SpectatorClients.Inc()
	logger.Debug("spectator joined", "session_key", c.Key, "room_size", room.size())
}

// OnDisconnect убирает клиента; пустая комната удаляется
func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.Rooms[c.Key]
	if !ok {
		return
	}
	left, present := room.remove(c)
	if !present {
		return
	}
	if left == 0 {
		delete(h.Rooms, c.Key)
	}
	metrics.SpectatorClients.Dec()
}

// Publish - наблюдатель GameService: рассылает новый снимок стола
func (h *Hub) Publish(ctx context.Context, key string, s *game.Session) {
	msg := Message{Type: MessageClosed}
	if s != nil {
		view := service.NewPublicView(key, s)
		msg = Message{Type: MessageTable, Table: &view}
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		logger.FromContext(ctx).Error("marshal spectator message", "error", err)
		return
	}
	h.Broadcast(key, raw)
}

// Broadcast отправляет сырое сообщение всем зрителям стола
func (h *Hub) Broadcast(key string, msg []byte) {
	h.mu.RLock()
	room, ok := h.Rooms[key]
	h.mu.RUnlock()
	if !ok {
		return
	}
	for _, c := range room.broadcast(msg) {
		logger.Warn("spectator too slow, dropping", "session_key", key)
		metrics.SpectatorClients.Dec()
		c.close()
	}
}

// Count - число зрителей стола
func (h *Hub) Count(key string) int {
	h.mu.RLock()
	room, ok := h.Rooms[key]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	return room.size()
}

// StartCleanup периодически убирает пустые комнаты
func (h *Hub) StartCleanup(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.cleanupEmptyRooms(every)
			}
		}
	}()
}

func (h *Hub) cleanupEmptyRooms(idle time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	for key, room := range h.Rooms {
		if room.size() == 0 && now.Sub(room.idleSince()) > idle {
			delete(h.Rooms, key)
			logger.Debug("removed idle spectator room", "session_key", key)
		}
	}
}
