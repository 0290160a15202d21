package candidate

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentscout/backend/internal/providers/search"
	"github.com/talentscout/backend/internal/repository/dao"
)

const (
	// MaxScanProfiles bounds the profiles fetched by one scan.
	MaxScanProfiles = 100
	scanConcurrency = 4
)

// ErrScanUnavailable is returned by Scan when no web search is configured.
var ErrScanUnavailable = errors.New("candidate scan needs web search")

var profileLink = regexp.MustCompile(`linkedin\.com/in/([a-zA-Z0-9-]+)`)

// ScanResult lists the profiles a scan found. Failed holds handles whose
// profile could not be fetched.
type ScanResult struct {
	Handles  []string              `json:"handles"`
	Profiles []dao.LinkedInProfile `json:"profiles"`
	Failed   []string              `json:"failed"`
}

// WithSearcher enables Scan.
func WithSearcher(searcher search.Searcher) Option {
	return func(s *Service) { s.searcher = searcher }
}

// Scan searches the web for LinkedIn profiles matching query and fetches
// every profile found into the profile table.
func (s *Service) Scan(ctx context.Context, query string) (ScanResult, error) {
	if query == "" {
		return ScanResult{}, ErrEmptyQuery
	}
	if s.searcher == nil {
		return ScanResult{}, ErrScanUnavailable
	}

	results, err := s.searcher.Search(ctx, query+" linkedin")
	if err != nil {
		return ScanResult{}, fmt.Errorf("web search: %w", err)
	}
	handles := ProfileHandles(results.Items)
	if len(handles) > MaxScanProfiles {
		handles = handles[:MaxScanProfiles]
	}

	// Each goroutine writes only its own index.
	fetched := make([]*dao.LinkedInProfile, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, handle := range handles {
		g.Go(func() error {
			p, err := s.Profile(gctx, handle)
			if err != nil {
				s.logger.Warn("scan profile fetch failed",
					zap.String("handle", handle), zap.Error(err))
				return nil
			}
			fetched[i] = &p
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}

	out := ScanResult{
		Handles:  handles,
		Profiles: make([]dao.LinkedInProfile, 0, len(handles)),
		Failed:   []string{},
	}
	for i, p := range fetched {
		if p == nil {
			out.Failed = append(out.Failed, handles[i])
			continue
		}
		out.Profiles = append(out.Profiles, *p)
	}

	s.logger.Info("candidate scan finished",
		zap.String("query", query),
		zap.Int("found", len(handles)),
		zap.Int("fetched", len(out.Profiles)),
		zap.Int("failed", len(out.Failed)))
	return out, nil
}

// ProfileHandles extracts the unique LinkedIn handles linked from search
// results, in result order.
func ProfileHandles(items []search.Item) []string {
	seen := make(map[string]struct{})
	handles := []string{}
	for _, item := range items {
		m := profileLink.FindStringSubmatch(item.Link)
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		handles = append(handles, m[1])
	}
	return handles
}
