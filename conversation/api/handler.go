package api

import (
	"net/http"
	"strings"

	"chat-sentiment/backend/conversation/service"
	"chat-sentiment/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(service *service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// CreateMessageRequest is the POST /messages body. A client-supplied sentiment is never read.
type CreateMessageRequest struct {
	AuthorID string `json:"authorId"`
	// UserID is the field name older clients send.
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.FromBindError(err))
		return
	}

	authorID := req.AuthorID
	if strings.TrimSpace(authorID) == "" {
		authorID = req.UserID
	}

	message, err := h.service.Submit(c.Request.Context(), authorID, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	messages, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
