package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// ChatHandler implements chat API endpoints
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

// GetApiV1Chat returns the conversation and the available agents
func (h *ChatHandler) GetApiV1Chat(c *gin.Context) {
	agents := make([]api.Agent, 0, len(service.Agents))
	for _, a := range service.Agents {
		agents = append(agents, api.Agent{ID: a.ID, Name: a.Name})
	}
	c.JSON(http.StatusOK, api.ChatHistoryResponse{
		Messages: h.chat.History(),
		Agents:   agents,
	})
}

// PostApiV1Chat sends a message and returns the reply
func (h *ChatHandler) PostApiV1Chat(c *gin.Context) {
	var req api.ChatRequest
	if !bindJSON(c, h.logger, "ChatRequest", &req) {
		return
	}

	reply, err := h.chat.Send(c.Request.Context(),
		req.Message,
		model.AgentType(derefString(req.AgentType)),
		model.ResponseStyle(derefString(req.ResponseStyle)),
	)
	if err != nil {
		respondError(c, "Sorry, I couldn't get a response. Please try again.", err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// DeleteApiV1Chat starts a new conversation
func (h *ChatHandler) DeleteApiV1Chat(c *gin.Context) {
	h.chat.Reset()
	c.Status(http.StatusNoContent)
}
