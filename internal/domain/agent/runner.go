package agent

import "context"

// Roles of conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn.
type Message struct {
	Role    string
	Content string
}

// Request is one agent run.
type Request struct {
	System   string
	Messages []Message
	Tools    *Toolset
	// MaxSteps bounds model round trips; zero uses the runner default.
	MaxSteps int
}

// Runner streams an agent run. The returned channel yields chunks in order
// and is closed after the final finish chunk. Cancelling ctx ends the run
// early with a cancelled finish when the consumer is still reading.
type Runner interface {
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// Metrics receives agent events. *monitoring.Metrics satisfies it.
type Metrics interface {
	AgentRun(status string)
	AgentChunk(chunkType string)
	ToolCall(tool, status string)
}

type nopMetrics struct{}

func (nopMetrics) AgentRun(string)         {}
func (nopMetrics) AgentChunk(string)       {}
func (nopMetrics) ToolCall(string, string) {}
