package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talentscout/backend/internal/api/middleware"
	"github.com/talentscout/backend/internal/domain/chat"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/utils"
)

// chatMessage is the message body of a chat request. The web client sends
// {"id","content"}; a bare string is accepted too.
type chatMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func (m *chatMessage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		m.Content = s
		return nil
	}
	type plain chatMessage
	return json.Unmarshal(b, (*plain)(m))
}

type sendChatRequest struct {
	Message chatMessage `json:"message"`
}

// SendChat runs the recruiter on a new user message. Chunks reach the
// caller over the websocket; the response carries the full reply text once
// the run ends.
func (h *Handlers) SendChat(c *gin.Context) {
	jobID, ok := validJobID(c)
	if !ok {
		return
	}
	var req sendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := utils.ValidateMessage(req.Message.Content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateID(req.Message.ID, "message id", false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.chat.Send(c.Request.Context(), chat.SendRequest{
		UserID:    middleware.UserID(c),
		JobID:     jobID,
		MessageID: req.Message.ID,
		Content:   req.Message.Content,
	})
	if err != nil {
		h.chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job found", "data": reply.Text})
}

type toolCallResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Args      any       `json:"args"`
	Result    any       `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

type chatMessageResponse struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
	ToolCalls []toolCallResponse `json:"toolCalls,omitempty"`
}

func newChatMessageResponse(m dao.ChatMessage) chatMessageResponse {
	out := chatMessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, toolCallResponse{
			ID:        tc.ID,
			Name:      tc.Name,
			Args:      tc.Args,
			Result:    tc.Result,
			CreatedAt: tc.CreatedAt,
		})
	}
	return out
}

// ChatHistory returns the stored conversation for a job.
func (h *Handlers) ChatHistory(c *gin.Context) {
	jobID, ok := validJobID(c)
	if !ok {
		return
	}
	msgs, err := h.chat.Messages(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		h.chatError(c, err)
		return
	}

	data := make([]chatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		data = append(data, newChatMessageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// DeleteChat removes a job's chat.
func (h *Handlers) DeleteChat(c *gin.Context) {
	jobID, ok := validJobID(c)
	if !ok {
		return
	}
	if err := h.chat.Delete(c.Request.Context(), middleware.UserID(c), jobID); err != nil {
		h.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted"})
}

func (h *Handlers) chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
	default:
		h.internalError(c, "chat request failed", err)
	}
}
