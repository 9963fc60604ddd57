package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kirana-agent/internal/agent/model"
	logx "kirana-agent/pkg/logger"
)

func (srv *HTTPServer) mapHandlers() {
	srv.gin.Use(gin.Recovery())

	srv.registerSystemRoutes()

	v1 := srv.gin.Group("/v1")
	v1.POST("/chat", srv.handleChat)
}

func (srv *HTTPServer) registerSystemRoutes() {
	srv.gin.GET("/health", srv.healthCheck)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// handleChat processes one user turn. A missing session_id starts a new
// session with a generated id, returned so the client can continue it.
func (srv *HTTPServer) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := srv.runner.ProcessTurn(c.Request.Context(), model.TurnInput{
		SessionID: req.SessionID,
		Utterance: req.Message,
	})
	if err != nil {
		logx.Error().Str("sessionID", req.SessionID).Err(err).Msg("turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}
