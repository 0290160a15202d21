package tools

import (
	"github.com/talentscout/backend/internal/domain/agent"
	"github.com/talentscout/backend/internal/providers/search"
	"github.com/talentscout/backend/internal/repository/dao"
)

// Deps are the services the tools call. Search and Browser are optional;
// their tools are left out when nil.
type Deps struct {
	Profiles   ProfileSearcher
	Candidates CandidateAdder
	Search     search.Searcher
	Browser    PageFetcher
}

// Factory returns a toolset factory for the recruiter.
func (d Deps) Factory() agent.ToolsetFactory {
	return func(job dao.JobPost) (*agent.Toolset, error) {
		set, err := agent.NewToolset(
			SearchLinkedIn(d.Profiles),
			AddCandidate(d.Candidates, job.ID),
		)
		if err != nil {
			return nil, err
		}
		if d.Search != nil {
			if err := set.Register(SearchInternet(d.Search)); err != nil {
				return nil, err
			}
		}
		if d.Browser != nil {
			if err := set.Register(GoToURL(d.Browser)); err != nil {
				return nil, err
			}
		}
		return set, nil
	}
}
