package handler

import (
	"net/http"

	"veilmatch/backend/internal/config"
	"veilmatch/backend/internal/engine"
	"veilmatch/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket
func (h *Handler) ServeWebSocket(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}
	tokenString := authHeader[7:]

	if _, err := h.validateAndGetUserID(tokenString); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	// Ідентичність прив'язується окремою подією announce-identity: клієнт
	// може перепідключитись і принести збережений match_id.
	client := &engine.WebSocketClient{
		ConnID: uuid.New().String(),
		Conn:   conn,
		Engine: h.Engine,
		Send:   make(chan models.ServerEvent, config.SendBufferSize),
		Log:    h.Log,
	}

	h.Engine.Register(client)
	client.Run()

	h.Log.Debug("websocket connected", zap.String("conn_id", client.ConnID))
}
