package tools

import (
	"context"
	"encoding/json"
	"math"

	"github.com/talentscout/backend/internal/domain/agent"
	"github.com/talentscout/backend/internal/domain/candidate"
	"github.com/talentscout/backend/internal/repository/dao"
)

// CandidateAdder adds profiles to jobs.
type CandidateAdder interface {
	Add(ctx context.Context, req candidate.AddRequest) (dao.Candidate, bool, error)
}

type addCandidateArgs struct {
	Handle     string  `json:"handle"`
	MatchScore float64 `json:"match_score"`
	Reasoning  string  `json:"reasoning"`
}

// AddCandidateResult is what the model sees after an add.
type AddCandidateResult struct {
	CandidateID     string `json:"candidate_id,omitempty"`
	CandidateHandle string `json:"candidate_handle,omitempty"`
	Message         string `json:"message"`
}

// AddCandidate returns the "add-candidate" tool bound to jobID. Failures are
// reported in the result message so the model can carry on.
func AddCandidate(adder CandidateAdder, jobID string) agent.Tool {
	return agent.ToolFunc{
		Def: agent.ToolDefinition{
			Name:        "add-candidate",
			Description: "Adds a potential candidate (from LinkedIn) to a specific job post.",
			Parameters: agent.Object(map[string]any{
				"handle":      agent.Prop("string", "The candidate's LinkedIn profile handle. For example: makkadotgg"),
				"match_score": agent.Prop("number", "The match score of the candidate to the job post."),
				"reasoning":   agent.Prop("string", "The reasoning why this candidate is a potential match for the job."),
			}),
		},
		Fn: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args addCandidateArgs
			if err := agent.DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if jobID == "" {
				return AddCandidateResult{Message: "No Job Post Found"}, nil
			}

			score := int(math.Round(args.MatchScore))
			c, _, err := adder.Add(ctx, candidate.AddRequest{
				JobID:      jobID,
				Handle:     args.Handle,
				MatchScore: &score,
				Reasoning:  args.Reasoning,
			})
			if err != nil {
				return AddCandidateResult{Message: "Failed to add candidate: " + err.Error()}, nil
			}
			return AddCandidateResult{
				CandidateID:     c.ID,
				CandidateHandle: args.Handle,
				Message:         "Successfully added candidate to job post.",
			}, nil
		},
	}
}
