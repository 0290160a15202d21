package tools

import (
	"context"
	"encoding/json"

	"github.com/talentscout/backend/internal/domain/agent"
	"github.com/talentscout/backend/internal/providers/search"
)

// SearchInternet returns the "searchInternet" tool.
func SearchInternet(searcher search.Searcher) agent.Tool {
	return agent.ToolFunc{
		Def: agent.ToolDefinition{
			Name:        "searchInternet",
			Description: "Searches the internet using Google and returns the processed content of the search results page. Useful for finding general information, news, or resources online.",
			Parameters: agent.Object(map[string]any{
				"query": agent.Prop("string", "The search query to use for Google."),
			}),
		},
		Fn: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := agent.DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return searcher.Search(ctx, args.Query)
		},
	}
}
