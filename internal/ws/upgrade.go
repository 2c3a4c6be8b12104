package ws

import (
	"net/http"
	"time"

	"tablero/config"
	"tablero/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

// UpgradeFeed authenticates via the token query parameter and streams
// notification lifecycle events until the client disconnects.
func UpgradeFeed(cfg *config.JWTConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.ParseAccessToken(cfg, c.Query("token"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: claims.UserID, Send: make(chan []byte, 16)}
		hub.Register(client)
		defer hub.Unregister(client)

		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies hub events to the connection until the client is
// unregistered or the write fails.
func writePump(c *Client, conn *websocket.Conn) {
	defer conn.Close()
	for msg := range c.Send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection; its only job is to detect the close.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
