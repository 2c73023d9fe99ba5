package delivery

import (
	"net/http"

	authdelivery "ticktask-backend/internal/auth/delivery"
	"ticktask-backend/internal/chat/usecase"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler serves conversations and messages
type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
	logger      *zap.Logger
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatUsecase: chatUsecase, logger: logger.Named("http.chat")}
}

// ListConversations
// GET /api/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	convs, err := h.chatUsecase.List(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// ListGroups
// GET /api/conversations/groups
func (h *ChatHandler) ListGroups(c *gin.Context) {
	convs, err := h.chatUsecase.ListGroups(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// GetOrCreate returns 201 when a conversation was created and 200 when an
// existing private conversation matched.
// POST /api/conversations/get_or_create
func (h *ChatHandler) GetOrCreate(c *gin.Context) {
	var req usecase.GetOrCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	conv, created, err := h.chatUsecase.GetOrCreate(c.Request.Context(), authdelivery.CurrentUser(c), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, conv)
}

// Messages
// GET /api/chat/:id/messages
func (h *ChatHandler) Messages(c *gin.Context) {
	msgs, err := h.chatUsecase.Messages(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// Send
// POST /api/chat/:id/send
func (h *ChatHandler) Send(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	msg, err := h.chatUsecase.Send(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), req.Text)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkSeen
// POST /api/chat/:id/seen
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	if err := h.chatUsecase.MarkSeen(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id")); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Unread
// GET /api/chat/:id/unread
func (h *ChatHandler) Unread(c *gin.Context) {
	n, err := h.chatUsecase.Unread(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
