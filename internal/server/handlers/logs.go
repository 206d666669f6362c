package handlers

import (
	"github.com/gofiber/websocket/v2"
)

// LogsSocket streams a session's log to a websocket client: buffered entries
// first, then live events until the client goes away or the session is
// evicted. Reads are drained only to detect disconnects.
func LogsSocket(c *websocket.Conn) {
	sessionID := c.Params("sessionId")
	replay, live, cancel := Hub.Subscribe(sessionID)
	defer cancel()
	defer c.Close()

	for _, e := range replay {
		if err := c.WriteJSON(e); err != nil {
			return
		}
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-live:
			if !ok {
				return
			}
			if err := c.WriteJSON(e); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
