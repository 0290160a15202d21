package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/talentscout/backend/internal/providers/httpclient"
)

var ErrEmptyEmbedding = errors.New("embedding: provider returned no vector")

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client calls an OpenAI-compatible /embeddings endpoint.
type Client struct {
	http       *httpclient.Client
	model      string
	dimensions int
}

var _ Embedder = (*Client)(nil)

// New creates an embeddings client. The http client must carry the API base
// URL and bearer token.
func New(hc *httpclient.Client, model string, dimensions int) *Client {
	return &Client{http: hc, model: model, dimensions: dimensions}
}

type request struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type response struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding of text. Newlines are flattened to spaces
// before the call so stored vectors and query vectors see the same input.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	input := strings.ReplaceAll(text, "\n", " ")

	var out response
	_, err := c.http.Post(ctx, "embeddings", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").
			SetBody(request{Input: []string{input}, Model: c.model, Dimensions: c.dimensions}).
			SetResult(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	for _, d := range out.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			if c.dimensions > 0 && len(d.Embedding) != c.dimensions {
				return nil, fmt.Errorf("embed: got %d dimensions, want %d", len(d.Embedding), c.dimensions)
			}
			return d.Embedding, nil
		}
	}
	return nil, ErrEmptyEmbedding
}
