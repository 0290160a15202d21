package tools

import (
	"context"
	"encoding/json"

	"github.com/talentscout/backend/internal/domain/agent"
)

// DefaultSearchK is used when the model omits k.
const DefaultSearchK = 50

// ProfileSearcher runs vector search over stored profiles.
type ProfileSearcher interface {
	SearchFormatted(ctx context.Context, query string, k int) ([]string, error)
}

type searchLinkedInArgs struct {
	Query string  `json:"query"`
	K     float64 `json:"k"`
}

// SearchLinkedIn returns the "search-linkedin" tool.
func SearchLinkedIn(profiles ProfileSearcher) agent.Tool {
	return agent.ToolFunc{
		Def: agent.ToolDefinition{
			Name:        "search-linkedin",
			Description: "Search for candidates on LinkedIn. Don't include company name in the query. Only other descriptive information.",
			Parameters: agent.Object(map[string]any{
				"query": agent.Prop("string", "Search query. Used for vector search on linkedin profiles. All data is embedded and stored in the database."),
				"k":     agent.Prop("number", "Number of results to return. Default this to 50 so you can get a good sample."),
			}),
		},
		Fn: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args searchLinkedInArgs
			if err := agent.DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			k := int(args.K)
			if k <= 0 {
				k = DefaultSearchK
			}
			results, err := profiles.SearchFormatted(ctx, args.Query, k)
			if err != nil {
				return nil, err
			}
			if results == nil {
				results = []string{}
			}
			return map[string]any{"results": results}, nil
		},
	}
}
