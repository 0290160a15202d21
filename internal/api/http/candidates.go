package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talentscout/backend/internal/domain/candidate"
	"github.com/talentscout/backend/internal/providers/linkedin"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/types"
	"github.com/talentscout/backend/internal/shared/utils"
)

// pageSearchK is the number of matches returned to the search page.
const pageSearchK = 2

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

// SearchCandidates ranks stored profiles against a free-text query.
func (h *Handlers) SearchCandidates(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	if err := utils.ValidateQuery(req.Query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.candidates.Search(c.Request.Context(), req.Query, pageSearchK)
	if err != nil {
		if errors.Is(err, candidate.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
			return
		}
		h.internalError(c, "candidate search failed", err)
		return
	}
	if matches == nil {
		matches = []candidate.Match{}
	}
	c.JSON(http.StatusOK, gin.H{"data": matches})
}

type addCandidateRequest struct {
	Handle     string `json:"handle" binding:"required"`
	JobID      string `json:"jobId" binding:"required"`
	MatchScore *int   `json:"matchScore"`
	Reasoning  string `json:"reasoning"`
}

type candidateResponse struct {
	ID           string        `json:"id"`
	JobPostID    string        `json:"jobPostId"`
	ProfileID    string        `json:"linkedInProfileId"`
	Handle       string        `json:"handle,omitempty"`
	Profile      *types.Person `json:"profile,omitempty"`
	MatchScore   *int          `json:"matchScore"`
	Reasoning    string        `json:"reasoning"`
	EagerlyAdded bool          `json:"eagerlyAdded"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func newCandidateResponse(cand dao.Candidate) candidateResponse {
	out := candidateResponse{
		ID:           cand.ID,
		JobPostID:    cand.JobPostID,
		ProfileID:    cand.LinkedInProfileID,
		MatchScore:   cand.MatchScore,
		Reasoning:    cand.Reasoning,
		EagerlyAdded: cand.EagerlyAdded,
		CreatedAt:    cand.CreatedAt,
	}
	if p := cand.LinkedInProfile; p != nil {
		out.Handle = p.Handle
		data := p.Data
		out.Profile = &data
	}
	return out
}

// AddCandidate adds a profile to a job by hand.
func (h *Handlers) AddCandidate(c *gin.Context) {
	var req addCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle and jobId are required"})
		return
	}
	if err := utils.ValidateHandle(req.Handle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateID(req.JobID, "jobId", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.ownJob(c, req.JobID) {
		return
	}

	cand, created, err := h.candidates.Add(c.Request.Context(), candidate.AddRequest{
		JobID:        req.JobID,
		Handle:       req.Handle,
		MatchScore:   req.MatchScore,
		Reasoning:    req.Reasoning,
		EagerlyAdded: true,
	})
	switch {
	case errors.Is(err, linkedin.ErrInvalidHandle):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid LinkedIn handle"})
		return
	case errors.Is(err, candidate.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "LinkedIn profile not found"})
		return
	case errors.Is(err, candidate.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	case err != nil:
		h.internalError(c, "failed to add candidate", err)
		return
	}

	status, msg := http.StatusCreated, "Candidate added"
	if !created {
		status, msg = http.StatusOK, "Candidate already added"
	}
	c.JSON(status, gin.H{"message": msg, "data": newCandidateResponse(cand)})
}

// ListCandidates returns a job's candidates, best match first.
func (h *Handlers) ListCandidates(c *gin.Context) {
	jobID, ok := validJobID(c)
	if !ok || !h.ownJob(c, jobID) {
		return
	}

	cands, err := h.candidates.List(c.Request.Context(), jobID)
	if err != nil {
		h.internalError(c, "failed to list candidates", err)
		return
	}

	data := make([]candidateResponse, 0, len(cands))
	for _, cand := range cands {
		data = append(data, newCandidateResponse(cand))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

type scanResponse struct {
	Handles  []string           `json:"handles"`
	Profiles []candidateProfile `json:"profiles"`
	Failed   []string           `json:"failed"`
}

type candidateProfile struct {
	ID     string       `json:"id"`
	Handle string       `json:"handle"`
	Data   types.Person `json:"data"`
}

// ScanCandidates searches the web for LinkedIn profiles matching a query
// and stores every profile found.
func (h *Handlers) ScanCandidates(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	if err := utils.ValidateQuery(req.Query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.candidates.Scan(c.Request.Context(), req.Query)
	switch {
	case errors.Is(err, candidate.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	case errors.Is(err, candidate.ErrScanUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Web search is not configured"})
		return
	case err != nil:
		h.internalError(c, "candidate scan failed", err)
		return
	}

	out := scanResponse{
		Handles:  res.Handles,
		Profiles: make([]candidateProfile, 0, len(res.Profiles)),
		Failed:   res.Failed,
	}
	if out.Handles == nil {
		out.Handles = []string{}
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}
	for _, p := range res.Profiles {
		out.Profiles = append(out.Profiles, candidateProfile{ID: p.ID, Handle: p.Handle, Data: p.Data})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
