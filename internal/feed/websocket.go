package feed

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	subBuffer      = 64
	maxReadMessage = 512
)

// Handler streams every value broadcast on the hub to websocket clients
// as one JSON message per value.
func Handler[T any](hub *Hub[T], log *zap.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		sub := hub.Subscribe(subBuffer)

		go func() {
			defer func() {
				hub.Unsubscribe(sub)
				_ = conn.Close()
			}()
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case v, ok := <-sub.C():
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteJSON(v); err != nil {
						return
					}
				case <-ticker.C:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		// Drain the read side so close frames and pongs are processed.
		conn.SetReadLimit(maxReadMessage)
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.Unsubscribe(sub)
					return
				}
			}
		}()
	}
}
