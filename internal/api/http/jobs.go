package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talentscout/backend/internal/api/middleware"
	"github.com/talentscout/backend/internal/domain/job"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/types"
	"github.com/talentscout/backend/internal/shared/utils"
)

type createJobRequest struct {
	Title            string        `json:"title" binding:"required"`
	Description      string        `json:"description" binding:"required"`
	Department       string        `json:"department"`
	Location         string        `json:"location"`
	Type             string        `json:"type"`
	Status           string        `json:"status"`
	Priority         string        `json:"priority"`
	RemotePolicy     string        `json:"remote_policy"`
	Salary           *types.Salary `json:"salary"`
	Responsibilities []string      `json:"responsibilities"`
	Requirements     []string      `json:"requirements"`
	Benefits         []string      `json:"benefits"`
	TechStack        []string      `json:"tech_stack"`
}

type updateJobRequest struct {
	ID          string `json:"id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type jobResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Department       string        `json:"department,omitempty"`
	Location         string        `json:"location,omitempty"`
	Type             string        `json:"type,omitempty"`
	Status           string        `json:"status,omitempty"`
	Priority         string        `json:"priority,omitempty"`
	RemotePolicy     string        `json:"remote_policy,omitempty"`
	Salary           *types.Salary `json:"salary,omitempty"`
	Responsibilities []string      `json:"responsibilities,omitempty"`
	Requirements     []string      `json:"requirements,omitempty"`
	Benefits         []string      `json:"benefits,omitempty"`
	TechStack        []string      `json:"tech_stack,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func newJobResponse(j dao.JobPost) jobResponse {
	return jobResponse{
		ID:               j.ID,
		Title:            j.Title,
		Description:      j.Description,
		Department:       j.Department,
		Location:         j.Location,
		Type:             j.Type,
		Status:           j.Status,
		Priority:         j.Priority,
		RemotePolicy:     j.RemotePolicy,
		Salary:           j.Salary,
		Responsibilities: j.Responsibilities,
		Requirements:     j.Requirements,
		Benefits:         j.Benefits,
		TechStack:        j.TechStack,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

// CreateJob stores a job post written by the caller.
func (h *Handlers) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and description are required"})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.UserID(c), job.Draft{
		Title:            req.Title,
		Description:      req.Description,
		Department:       req.Department,
		Location:         req.Location,
		Type:             req.Type,
		Status:           req.Status,
		Priority:         req.Priority,
		RemotePolicy:     req.RemotePolicy,
		Salary:           req.Salary,
		Responsibilities: req.Responsibilities,
		Requirements:     req.Requirements,
		Benefits:         req.Benefits,
		TechStack:        req.TechStack,
	})
	if err != nil {
		if errors.Is(err, job.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and description are required"})
			return
		}
		h.internalError(c, "failed to create job", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Job created", "data": newJobResponse(post)})
}

// UpdateJob edits the title and description of one of the caller's posts.
func (h *Handlers) UpdateJob(c *gin.Context) {
	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, title and description are required"})
		return
	}
	if err := utils.ValidateID(req.ID, "id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), middleware.UserID(c), req.ID, req.Title, req.Description)
	switch {
	case errors.Is(err, job.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and description are required"})
		return
	case errors.Is(err, job.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	case errors.Is(err, job.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	case err != nil:
		h.internalError(c, "failed to update job", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job updated", "data": newJobResponse(post)})
}

// ListJobs returns the caller's most recent posts.
func (h *Handlers) ListJobs(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internalError(c, "failed to list jobs", err)
		return
	}

	data := make([]jobResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, newJobResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
