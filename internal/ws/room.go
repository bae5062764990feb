package ws

import (
	"sync"
	"time"
)

// Room - зрители одного стола и последний разосланный снимок
type Room struct {
	Key     string
	Clients map[*Client]struct{}

	mu        sync.RWMutex
	last      []byte
	createdAt time.Time
	touchedAt time.Time
}

func NewRoom(key string) *Room {
	now := time.Now()
	return &Room{
		Key:       key,
		Clients:   make(map[*Client]struct{}),
		createdAt: now,
		touchedAt: now,
	}
}

// add регистрирует клиента и возвращает снимок, который ему надо отправить первым
func (r *Room) add(c *Client) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Clients[c] = struct{}{}
	r.touchedAt = time.Now()
	return r.last
}

// remove возвращает число оставшихся и был ли клиент в комнате
func (r *Room) remove(c *Client) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Clients[c]
	delete(r.Clients, c)
	r.touchedAt = time.Now()
	return len(r.Clients), ok
}

// broadcast рассылает сообщение всем; медленные клиенты отключаются
func (r *Room) broadcast(msg []byte) (dropped []*Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = msg
	r.touchedAt = time.Now()
	for c := range r.Clients {
		select {
		case c.Send <- msg:
		default:
			delete(r.Clients, c)
			dropped = append(dropped, c)
		}
	}
	return dropped
}

func (r *Room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}

func (r *Room) idleSince() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.touchedAt
}
