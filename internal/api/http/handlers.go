package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/api/middleware"
	"github.com/talentscout/backend/internal/domain/candidate"
	"github.com/talentscout/backend/internal/domain/chat"
	"github.com/talentscout/backend/internal/domain/job"
	"github.com/talentscout/backend/internal/realtime"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/id"
	"github.com/talentscout/backend/internal/shared/utils"
)

//go:generate mockgen -source=handlers.go -destination=mocks/services.go -package=mocks

// ChatService runs and manages job chats.
type ChatService interface {
	Send(ctx context.Context, req chat.SendRequest) (chat.Reply, error)
	Messages(ctx context.Context, userID, jobID string) ([]dao.ChatMessage, error)
	Delete(ctx context.Context, userID, jobID string) error
}

// CandidateService searches profiles and manages candidates.
type CandidateService interface {
	Search(ctx context.Context, query string, k int) ([]candidate.Match, error)
	Add(ctx context.Context, req candidate.AddRequest) (dao.Candidate, bool, error)
	List(ctx context.Context, jobID string) ([]dao.Candidate, error)
	Scan(ctx context.Context, query string) (candidate.ScanResult, error)
}

// JobService creates, edits and lists job posts.
type JobService interface {
	Create(ctx context.Context, userID string, d job.Draft) (dao.JobPost, error)
	Update(ctx context.Context, userID, jobID, title, description string) (dao.JobPost, error)
	List(ctx context.Context, userID string) ([]dao.JobPost, error)
}

// ConnectionRegistry is the part of the realtime registry exposed over HTTP.
type ConnectionRegistry interface {
	Tag(connID id.ConnectionID, userID string) error
	ConnectionInfo(userID string) []realtime.ConnectionInfo
	Count() int
}

// JobFinder loads job posts for ownership checks.
type JobFinder interface {
	FindByID(ctx context.Context, id string) (dao.JobPost, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	chat       ChatService
	candidates CandidateService
	posts      JobService
	jobs       JobFinder
	registry   ConnectionRegistry
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	chatService ChatService,
	candidates CandidateService,
	posts JobService,
	jobs JobFinder,
	registry ConnectionRegistry,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		chat:       chatService,
		candidates: candidates,
		posts:      posts,
		jobs:       jobs,
		registry:   registry,
		logger:     logger,
	}
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "talentscout",
		"connections": h.registry.Count(),
	})
}

// ownJob checks that the caller owns jobID and writes the error response
// when they don't.
func (h *Handlers) ownJob(c *gin.Context, jobID string) bool {
	job, err := h.jobs.FindByID(c.Request.Context(), jobID)
	switch {
	case errors.Is(err, dao.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return false
	case err != nil:
		h.internalError(c, "failed to load job", err)
		return false
	case job.Owner() != middleware.UserID(c):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return false
	}
	return true
}

// validJobID rejects malformed job ids before they reach the database.
func validJobID(c *gin.Context) (string, bool) {
	jobID := c.Param("jobId")
	if err := utils.ValidateID(jobID, "jobId", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return jobID, true
}

func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg,
		zap.String("path", c.FullPath()),
		zap.String("user_id", middleware.UserID(c)),
		zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
