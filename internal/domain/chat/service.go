package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/domain/agent"
	"github.com/talentscout/backend/internal/realtime"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/id"
)

var (
	ErrJobNotFound  = errors.New("job post not found")
	ErrForbidden    = errors.New("job post belongs to another user")
	ErrEmptyMessage = errors.New("message content is empty")
)

// Message type suffixes; the full type is "<jobId>.<suffix>".
const (
	EventMessageStarted  = "messageStarted"
	EventMessageChunk    = "messageChunk"
	EventMessageComplete = "messageComplete"
)

const (
	// DefaultRunTimeout bounds an agent run once detached from the request.
	DefaultRunTimeout = 10 * time.Minute
	persistTimeout    = 15 * time.Second
)

// Broadcaster delivers realtime messages to users.
type Broadcaster interface {
	BroadcastToUsers(ctx context.Context, userIDs []string, msg realtime.Message) int
}

// Agent streams a recruiter run for a job.
type Agent interface {
	Stream(ctx context.Context, job dao.JobPost, history []agent.Message) (<-chan agent.Chunk, error)
}

// SendRequest is one user turn.
type SendRequest struct {
	UserID string
	JobID  string
	// MessageID is the client-chosen id of the assistant reply; generated
	// when empty.
	MessageID string
	Content   string
}

// Reply is the finished assistant turn.
type Reply struct {
	MessageID    string
	Text         string
	FinishReason string
}

// Service bridges agent runs to persisted chats and realtime subscribers.
type Service struct {
	jobs        dao.JobDAO
	chats       dao.ChatDAO
	agent       Agent
	broadcaster Broadcaster

	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRunTimeout bounds each agent run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a chat service.
func NewService(jobs dao.JobDAO, chats dao.ChatDAO, a Agent, b Broadcaster, opts ...Option) *Service {
	s := &Service{
		jobs:        jobs,
		chats:       chats,
		agent:       a,
		broadcaster: b,
		timeout:     DefaultRunTimeout,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send runs the recruiter agent on the job's conversation plus req.Content,
// streams every chunk to the user's sockets and persists both turns. It
// returns once the stream is drained.
func (s *Service) Send(ctx context.Context, req SendRequest) (Reply, error) {
	if strings.TrimSpace(req.Content) == "" {
		return Reply{}, ErrEmptyMessage
	}

	job, err := s.ownedJob(ctx, req.UserID, req.JobID, true)
	if err != nil {
		return Reply{}, err
	}

	chat := job.Chat
	if chat == nil {
		chat = &dao.Chat{
			JobPostID: job.ID,
			Title:     "Chat for " + job.Title,
			CreatedAt: s.now(),
			UpdatedAt: s.now(),
		}
		if err := s.chats.Create(ctx, chat); err != nil {
			return Reply{}, fmt.Errorf("create chat: %w", err)
		}
	}

	history := History(chat.Messages)
	history = append(history, agent.Message{Role: agent.RoleUser, Content: req.Content})

	if err := s.chats.InsertMessage(ctx, &dao.ChatMessage{
		ChatID:    chat.ID,
		Role:      dao.RoleUser,
		Content:   req.Content,
		CreatedAt: s.now(),
	}); err != nil {
		return Reply{}, fmt.Errorf("store user message: %w", err)
	}

	messageID := req.MessageID
	if messageID == "" {
		messageID = string(id.NewMessageID())
	}

	// The run outlives the HTTP request so the transcript is always stored.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	chunks, err := s.agent.Stream(runCtx, job, history)
	if err != nil {
		return Reply{}, fmt.Errorf("start agent: %w", err)
	}

	log := s.logger.With(zap.String("job_id", job.ID), zap.String("message_id", messageID))
	recipients := []string{req.UserID}
	payload := map[string]any{"jobId": job.ID, "messageId": messageID}
	topic := func(event string) string { return job.ID + "." + event }

	s.broadcaster.BroadcastToUsers(runCtx, recipients, realtime.Message{
		MessageType: topic(EventMessageStarted),
		Data:        map[string]any{"appPayload": payload},
	})

	var (
		text   strings.Builder
		calls  []dao.ToolCall
		index  = map[string]int{}
		reason string
	)
	for chunk := range chunks {
		s.broadcaster.BroadcastToUsers(runCtx, recipients, realtime.Message{
			MessageType: topic(EventMessageChunk),
			Data:        map[string]any{"chunk": chunk, "appPayload": payload},
		})

		switch chunk.Type {
		case agent.ChunkTextDelta:
			text.WriteString(chunk.TextDelta)
		case agent.ChunkToolCall:
			index[chunk.ToolCallID] = len(calls)
			calls = append(calls, dao.ToolCall{
				ID:        chunk.ToolCallID,
				Name:      chunk.ToolName,
				Args:      chunk.Args,
				CreatedAt: s.now(),
			})
		case agent.ChunkToolResult:
			if i, ok := index[chunk.ToolCallID]; ok {
				calls[i].Result = chunk.Result
			}
		case agent.ChunkError:
			log.Error("agent stream error", zap.String("error", chunk.Error))
		case agent.ChunkFinish:
			reason = chunk.FinishReason
		}
	}

	// Provider call ids are only unique per run; rows get their own ids.
	for i := range calls {
		calls[i].ID = ""
	}

	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancelPersist()
	if err := s.chats.InsertMessage(persistCtx, &dao.ChatMessage{
		ID:        messageID,
		ChatID:    chat.ID,
		Role:      dao.RoleAssistant,
		Content:   text.String(),
		CreatedAt: s.now(),
		ToolCalls: calls,
	}); err != nil {
		log.Error("failed to store assistant message", zap.Error(err))
		return Reply{}, fmt.Errorf("store assistant message: %w", err)
	}

	s.broadcaster.BroadcastToUsers(persistCtx, recipients, realtime.Message{
		MessageType: topic(EventMessageComplete),
		Data:        map[string]any{"appPayload": payload},
	})

	log.Info("agent reply stored",
		zap.Int("length", text.Len()),
		zap.Int("tool_calls", len(calls)),
		zap.String("finish_reason", reason))
	return Reply{MessageID: messageID, Text: text.String(), FinishReason: reason}, nil
}

// Messages returns the job's stored conversation.
func (s *Service) Messages(ctx context.Context, userID, jobID string) ([]dao.ChatMessage, error) {
	job, err := s.ownedJob(ctx, userID, jobID, true)
	if err != nil {
		return nil, err
	}
	if job.Chat == nil {
		return []dao.ChatMessage{}, nil
	}
	return job.Chat.Messages, nil
}

// Delete removes the job's chat and its messages.
func (s *Service) Delete(ctx context.Context, userID, jobID string) error {
	if _, err := s.ownedJob(ctx, userID, jobID, false); err != nil {
		return err
	}
	n, err := s.chats.DeleteByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	s.logger.Info("chat deleted", zap.String("job_id", jobID), zap.Int64("rows", n))
	return nil
}

func (s *Service) ownedJob(ctx context.Context, userID, jobID string, withChat bool) (dao.JobPost, error) {
	var (
		job dao.JobPost
		err error
	)
	if withChat {
		job, err = s.jobs.FindWithChat(ctx, jobID)
	} else {
		job, err = s.jobs.FindByID(ctx, jobID)
	}
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.JobPost{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return dao.JobPost{}, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Owner() != userID {
		return dao.JobPost{}, ErrForbidden
	}
	return job, nil
}

// History converts stored messages to agent history. Assistant turns with
// no text, such as tool-only steps, are skipped.
func History(msgs []dao.ChatMessage) []agent.Message {
	out := make([]agent.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		if m.Role == dao.RoleAssistant && strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := agent.RoleUser
		if m.Role == dao.RoleAssistant {
			role = agent.RoleAssistant
		}
		out = append(out, agent.Message{Role: role, Content: m.Content})
	}
	return out
}
