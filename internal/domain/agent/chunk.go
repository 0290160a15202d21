package agent

// ChunkType discriminates stream events.
type ChunkType string

const (
	ChunkTextDelta  ChunkType = "text-delta"
	ChunkToolCall   ChunkType = "tool-call"
	ChunkToolResult ChunkType = "tool-result"
	ChunkStepFinish ChunkType = "step-finish"
	ChunkError      ChunkType = "error"
	ChunkFinish     ChunkType = "finish"
)

// Finish reasons reported on step-finish and finish chunks.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool-calls"
	FinishLength    = "length"
	FinishError     = "error"
	FinishCancelled = "cancelled"
)

// Chunk is one agent stream event.
type Chunk struct {
	Type         ChunkType `json:"type"`
	TextDelta    string    `json:"textDelta,omitempty"`
	ToolCallID   string    `json:"toolCallId,omitempty"`
	ToolName     string    `json:"toolName,omitempty"`
	Args         any       `json:"args,omitempty"`
	Result       any       `json:"result,omitempty"`
	FinishReason string    `json:"finishReason,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func TextDelta(s string) Chunk {
	return Chunk{Type: ChunkTextDelta, TextDelta: s}
}

func ErrorChunk(err error) Chunk {
	return Chunk{Type: ChunkError, Error: err.Error()}
}

func StepFinish(reason string) Chunk {
	return Chunk{Type: ChunkStepFinish, FinishReason: reason}
}

func Finish(reason string) Chunk {
	return Chunk{Type: ChunkFinish, FinishReason: reason}
}
