package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sabacc_bot/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 16
)

// Client - одно соединение зрителя
type Client struct {
	Key  string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	closeOnce sync.Once
}

func NewClient(key string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Key:  key,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		Hub:  hub,
	}
}

// Run регистрирует клиента и держит соединение до разрыва
func (c *Client) Run(initial []byte) {
	c.Hub.Join(c, initial)
	go c.writePump()
	c.readPump()
}

// зрители ничего не присылают; чтение нужно только для pong и закрытия
func (c *Client) readPump() {
	defer func() {
		c.Hub.OnDisconnect(c)
		c.close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("spectator read error", "session_key", c.Key, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("spectator write error", "session_key", c.Key, "error", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close закрывает канал отправки; writePump после этого закрывает соединение
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}
