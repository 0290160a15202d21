package tools

import (
	"context"
	"encoding/json"

	"github.com/talentscout/backend/internal/domain/agent"
	"github.com/talentscout/backend/internal/providers/browser"
)

// PageFetcher reads web pages.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*browser.Page, error)
}

// GoToURL returns the "goToUrl" tool. LinkedIn URLs are refused by the
// fetcher; profiles go through add-candidate instead.
func GoToURL(fetcher PageFetcher) agent.Tool {
	return agent.ToolFunc{
		Def: agent.ToolDefinition{
			Name:        "goToUrl",
			Description: "Navigates to a URL and returns the readable content of the page as markdown. Never use this for linkedin.com URLs; use search-linkedin and add-candidate for profiles.",
			Parameters: agent.Object(map[string]any{
				"url": agent.Prop("string", "The absolute http(s) URL to open."),
			}),
		},
		Fn: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				URL string `json:"url"`
			}
			if err := agent.DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			page, err := fetcher.Fetch(ctx, args.URL)
			if err != nil {
				return nil, err
			}
			if page.Text == "" {
				page.Text = "No markdown content extracted."
			}
			return page, nil
		},
	}
}
