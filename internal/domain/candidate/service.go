package candidate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/talentscout/backend/internal/domain/format"
	"github.com/talentscout/backend/internal/providers/embedding"
	"github.com/talentscout/backend/internal/providers/linkedin"
	"github.com/talentscout/backend/internal/providers/search"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/types"
)

const (
	// DefaultK is the result count used when a caller passes k <= 0.
	DefaultK = 10
	// MaxK bounds a single similarity search.
	MaxK = 100
	// DefaultProfileTTL is how long a fetched profile stays fresh.
	DefaultProfileTTL = 30 * 24 * time.Hour
)

var (
	ErrJobNotFound     = errors.New("job post not found")
	ErrProfileNotFound = errors.New("linkedin profile not found")
	ErrEmptyQuery      = errors.New("search query is empty")
)

// Match is a stored profile ranked against a query.
type Match struct {
	ProfileID  string       `json:"id"`
	Handle     string       `json:"handle"`
	Data       types.Person `json:"data"`
	Similarity float64      `json:"similarity"`
}

// AddRequest adds a profile to a job's candidate list.
type AddRequest struct {
	JobID        string
	Handle       string
	MatchScore   *int
	Reasoning    string
	EagerlyAdded bool
}

// Service owns stored profiles and per-job candidates.
type Service struct {
	jobs       dao.JobDAO
	profiles   dao.ProfileDAO
	candidates dao.CandidateDAO
	embedder   embedding.Embedder
	scraper    linkedin.Scraper
	searcher   search.Searcher

	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
	fetch  singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithProfileTTL sets how long fetched profiles are served from the table.
func WithProfileTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService creates a candidate service.
func NewService(
	jobs dao.JobDAO,
	profiles dao.ProfileDAO,
	candidates dao.CandidateDAO,
	embedder embedding.Embedder,
	scraper linkedin.Scraper,
	opts ...Option,
) *Service {
	s := &Service{
		jobs:       jobs,
		profiles:   profiles,
		candidates: candidates,
		embedder:   embedder,
		scraper:    scraper,
		ttl:        DefaultProfileTTL,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds query and returns up to k stored profiles with positive
// cosine similarity, most similar first.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	switch {
	case k <= 0:
		k = DefaultK
	case k > MaxK:
		k = MaxK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.profiles.SearchSimilar(ctx, dao.Vector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, Match{
			ProfileID:  r.ID,
			Handle:     r.Handle,
			Data:       r.Data,
			Similarity: r.Similarity,
		})
	}
	s.logger.Debug("profile search",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(matches)))
	return matches, nil
}

// SearchFormatted is Search rendered as <linkedInProfile> blocks.
func (s *Service) SearchFormatted(ctx context.Context, query string, k int) ([]string, error) {
	matches, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, format.Profile(m.Data))
	}
	return out, nil
}

// Profile returns the stored profile for handle, fetching, embedding and
// storing it when missing or expired. A stale row is served when the
// refresh fails.
func (s *Service) Profile(ctx context.Context, handle string) (dao.LinkedInProfile, error) {
	handle, err := linkedin.NormalizeHandle(handle)
	if err != nil {
		return dao.LinkedInProfile{}, err
	}

	cached, err := s.profiles.FindByHandle(ctx, handle)
	switch {
	case err == nil && !cached.Expired(s.now()):
		return cached, nil
	case err != nil && !errors.Is(err, dao.ErrNotFound):
		return dao.LinkedInProfile{}, fmt.Errorf("load profile %s: %w", handle, err)
	}
	stale := err == nil

	v, err, _ := s.fetch.Do(handle, func() (any, error) {
		return s.refresh(ctx, handle)
	})
	if err != nil {
		if stale {
			s.logger.Warn("profile refresh failed, serving stale copy",
				zap.String("handle", handle), zap.Error(err))
			return cached, nil
		}
		if errors.Is(err, linkedin.ErrProfileNotFound) {
			return dao.LinkedInProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, handle)
		}
		return dao.LinkedInProfile{}, err
	}
	return v.(dao.LinkedInProfile), nil
}

func (s *Service) refresh(ctx context.Context, handle string) (dao.LinkedInProfile, error) {
	s.logger.Info("fetching linkedin profile", zap.String("handle", handle))

	person, err := s.scraper.Person(ctx, handle)
	if err != nil {
		return dao.LinkedInProfile{}, err
	}

	var (
		vec     []float32
		picture string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vec, err = s.embedder.Embed(gctx, format.Profile(*person))
		if err != nil {
			return fmt.Errorf("embed profile %s: %w", handle, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if picture, err = s.scraper.Picture(gctx, person.ProfilePicURL); err != nil {
			s.logger.Warn("profile picture unavailable",
				zap.String("handle", handle), zap.Error(err))
			picture = ""
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return dao.LinkedInProfile{}, err
	}

	now := s.now()
	row := dao.LinkedInProfile{
		Handle:          handle,
		Data:            *person,
		ProfileImageB64: picture,
		Vector:          dao.Vector(vec),
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}
	if err := s.profiles.Upsert(ctx, &row); err != nil {
		return dao.LinkedInProfile{}, fmt.Errorf("store profile %s: %w", handle, err)
	}
	return row, nil
}

// Add attaches the profile for req.Handle to req.JobID. An existing
// candidate for the same pair is returned unchanged with created false.
func (s *Service) Add(ctx context.Context, req AddRequest) (dao.Candidate, bool, error) {
	if _, err := s.jobs.FindByID(ctx, req.JobID); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Candidate{}, false, fmt.Errorf("%w: %s", ErrJobNotFound, req.JobID)
		}
		return dao.Candidate{}, false, fmt.Errorf("load job %s: %w", req.JobID, err)
	}

	profile, err := s.Profile(ctx, req.Handle)
	if err != nil {
		return dao.Candidate{}, false, err
	}

	existing, err := s.candidates.Find(ctx, req.JobID, profile.ID)
	switch {
	case err == nil:
		existing.LinkedInProfile = &profile
		return existing, false, nil
	case !errors.Is(err, dao.ErrNotFound):
		return dao.Candidate{}, false, fmt.Errorf("load candidate: %w", err)
	}

	now := s.now()
	c := dao.Candidate{
		JobPostID:         req.JobID,
		LinkedInProfileID: profile.ID,
		Reasoning:         req.Reasoning,
		EagerlyAdded:      req.EagerlyAdded,
		MatchScore:        req.MatchScore,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.candidates.Insert(ctx, &c); err != nil {
		return dao.Candidate{}, false, fmt.Errorf("insert candidate: %w", err)
	}
	c.LinkedInProfile = &profile

	s.logger.Info("candidate added",
		zap.String("job_id", req.JobID),
		zap.String("handle", profile.Handle),
		zap.String("candidate_id", c.ID),
		zap.Bool("eager", req.EagerlyAdded))
	return c, true, nil
}

// List returns the job's candidates, best match first.
func (s *Service) List(ctx context.Context, jobID string) ([]dao.Candidate, error) {
	return s.candidates.ListByJob(ctx, jobID)
}
