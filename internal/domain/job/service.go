// Package job creates, edits and lists job posts. Posts are embedded on
// write so candidate search can rank against them.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/providers/embedding"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/types"
)

// ListLimit is the number of posts shown on the dashboard.
const ListLimit = 10

// StatusDraft is the status of a post created without one.
const StatusDraft = "draft"

var (
	ErrNotFound  = errors.New("job post not found")
	ErrForbidden = errors.New("job post belongs to another user")
	ErrInvalid   = errors.New("job post needs a title and a description")
)

// Draft is the caller-supplied content of a new post.
type Draft struct {
	Title            string
	Description      string
	Department       string
	Location         string
	Type             string
	Status           string
	Priority         string
	RemotePolicy     string
	Salary           *types.Salary
	Responsibilities []string
	Requirements     []string
	Benefits         []string
	TechStack        []string
}

// Service owns job posts.
type Service struct {
	jobs     dao.JobDAO
	embedder embedding.Embedder
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a job service.
func NewService(jobs dao.JobDAO, embedder embedding.Embedder, opts ...Option) *Service {
	s := &Service{
		jobs:     jobs,
		embedder: embedder,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create embeds "title description" and stores a post owned by userID.
func (s *Service) Create(ctx context.Context, userID string, d Draft) (dao.JobPost, error) {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Description) == "" {
		return dao.JobPost{}, ErrInvalid
	}

	vec, err := s.embedder.Embed(ctx, embeddingInput(d.Title, d.Description))
	if err != nil {
		return dao.JobPost{}, fmt.Errorf("embed job post: %w", err)
	}

	status := d.Status
	if status == "" {
		status = StatusDraft
	}
	now := s.now()
	job := dao.JobPost{
		OwnerID:          userID,
		UserID:           userID,
		Title:            d.Title,
		Description:      d.Description,
		Department:       d.Department,
		Location:         d.Location,
		Type:             d.Type,
		Status:           status,
		Priority:         d.Priority,
		RemotePolicy:     d.RemotePolicy,
		Salary:           d.Salary,
		Responsibilities: d.Responsibilities,
		Requirements:     d.Requirements,
		Benefits:         d.Benefits,
		TechStack:        d.TechStack,
		Vector:           dao.Vector(vec),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.jobs.Create(ctx, &job); err != nil {
		return dao.JobPost{}, fmt.Errorf("insert job post: %w", err)
	}

	s.logger.Info("job post created",
		zap.String("job_id", job.ID),
		zap.String("user_id", userID))
	return job, nil
}

// Update changes the title and description of userID's post and refreshes
// its embedding.
func (s *Service) Update(ctx context.Context, userID, jobID, title, description string) (dao.JobPost, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return dao.JobPost{}, ErrInvalid
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	switch {
	case errors.Is(err, dao.ErrNotFound):
		return dao.JobPost{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	case err != nil:
		return dao.JobPost{}, fmt.Errorf("load job %s: %w", jobID, err)
	case job.Owner() != userID:
		return dao.JobPost{}, ErrForbidden
	}

	vec, err := s.embedder.Embed(ctx, embeddingInput(title, description))
	if err != nil {
		return dao.JobPost{}, fmt.Errorf("embed job post: %w", err)
	}

	u := dao.JobUpdate{
		Title:       title,
		Description: description,
		Vector:      dao.Vector(vec),
		UpdatedAt:   s.now(),
	}
	if err := s.jobs.Update(ctx, jobID, userID, u); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.JobPost{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return dao.JobPost{}, fmt.Errorf("update job %s: %w", jobID, err)
	}

	job.Title, job.Description, job.UpdatedAt = title, description, u.UpdatedAt
	s.logger.Info("job post updated", zap.String("job_id", jobID))
	return job, nil
}

// List returns userID's most recent posts.
func (s *Service) List(ctx context.Context, userID string) ([]dao.JobPost, error) {
	jobs, err := s.jobs.ListByOwner(ctx, userID, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if jobs == nil {
		jobs = []dao.JobPost{}
	}
	return jobs, nil
}

func embeddingInput(title, description string) string {
	return title + " " + description
}
