package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// DefaultMaxSteps bounds a run when neither the request nor the runner sets
// a limit.
const DefaultMaxSteps = 100

const chunkBuffer = 64

// OpenAIRunner runs agents against an OpenAI-compatible chat completions
// endpoint using streaming and function calling.
type OpenAIRunner struct {
	client   *openai.Client
	model    string
	maxSteps int
	logger   *zap.Logger
	metrics  Metrics
}

// OpenAIOption configures an OpenAIRunner.
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	logger     *zap.Logger
	metrics    Metrics
	httpClient *http.Client
	maxRetries int
}

func WithRunnerLogger(l *zap.Logger) OpenAIOption {
	return func(o *openAIOptions) { o.logger = l }
}

func WithRunnerMetrics(m Metrics) OpenAIOption {
	return func(o *openAIOptions) { o.metrics = m }
}

// WithRunnerHTTPClient sets the transport used for completions.
func WithRunnerHTTPClient(c *http.Client) OpenAIOption {
	return func(o *openAIOptions) { o.httpClient = c }
}

// WithRunnerMaxRetries sets retries for failed completion requests.
func WithRunnerMaxRetries(n int) OpenAIOption {
	return func(o *openAIOptions) { o.maxRetries = n }
}

// NewOpenAIRunner creates a runner for model at baseURL.
func NewOpenAIRunner(apiKey, baseURL, model string, maxSteps int, opts ...OpenAIOption) *OpenAIRunner {
	o := openAIOptions{logger: zap.NewNop(), metrics: nopMetrics{}, maxRetries: 2}
	for _, opt := range opts {
		opt(&o)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(o.maxRetries),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &OpenAIRunner{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		maxSteps: maxSteps,
		logger:   o.logger,
		metrics:  o.metrics,
	}
}

// Stream starts the run in the background.
func (r *OpenAIRunner) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("agent: no messages")
	}
	out := make(chan Chunk, chunkBuffer)
	go r.run(ctx, req, out)
	return out, nil
}

func (r *OpenAIRunner) run(ctx context.Context, req Request, out chan<- Chunk) {
	defer close(out)

	emit := func(c Chunk) bool {
		select {
		case out <- c:
			r.metrics.AgentChunk(string(c.Type))
			return true
		case <-ctx.Done():
			return false
		}
	}
	finish := func(reason, status string) {
		r.metrics.AgentRun(status)
		c := Finish(reason)
		if ctx.Err() != nil {
			c.FinishReason = FinishCancelled
			select {
			case out <- c:
			default:
			}
			return
		}
		emit(c)
	}

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = r.maxSteps
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(buildMessages(req)),
		Model:    openai.F(openai.ChatModel(r.model)),
	}
	if tools := toolParams(req.Tools); len(tools) > 0 {
		params.Tools = openai.F(tools)
	}

	for step := 0; step < maxSteps; step++ {
		stream := r.client.Chat.Completions.NewStreaming(ctx, params)
		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !emit(TextDelta(chunk.Choices[0].Delta.Content)) {
					_ = stream.Close()
					finish(FinishCancelled, "cancelled")
					return
				}
			}
		}
		err := stream.Err()
		_ = stream.Close()
		if err != nil {
			if ctx.Err() != nil {
				finish(FinishCancelled, "cancelled")
				return
			}
			r.logger.Error("completion stream failed", zap.Int("step", step), zap.Error(err))
			emit(ErrorChunk(err))
			finish(FinishError, "error")
			return
		}
		if len(acc.Choices) == 0 {
			emit(ErrorChunk(errors.New("model returned no choices")))
			finish(FinishError, "error")
			return
		}

		choice := acc.Choices[0]
		reason := finishReason(string(choice.FinishReason))
		r.logger.Debug("agent step finished",
			zap.Int("step", step),
			zap.String("finish_reason", reason),
			zap.Int("tool_calls", len(choice.Message.ToolCalls)),
			zap.Int64("total_tokens", acc.Usage.TotalTokens))

		if len(choice.Message.ToolCalls) == 0 {
			emit(StepFinish(reason))
			finish(reason, "ok")
			return
		}

		params.Messages.Value = append(params.Messages.Value, choice.Message)
		for _, call := range choice.Message.ToolCalls {
			args := json.RawMessage(call.Function.Arguments)
			if !emit(Chunk{
				Type:       ChunkToolCall,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
				Args:       argsValue(call.Function.Arguments),
			}) {
				finish(FinishCancelled, "cancelled")
				return
			}

			result := r.execute(ctx, req.Tools, call.Function.Name, args)
			if !emit(Chunk{
				Type:       ChunkToolResult,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
				Result:     result,
			}) {
				finish(FinishCancelled, "cancelled")
				return
			}
			params.Messages.Value = append(params.Messages.Value, openai.ToolMessage(call.ID, toolContent(result)))
		}
		if !emit(StepFinish(FinishToolCalls)) {
			finish(FinishCancelled, "cancelled")
			return
		}
	}

	r.logger.Warn("agent stopped at step limit", zap.Int("max_steps", maxSteps))
	finish(FinishToolCalls, "max_steps")
}

// execute runs one tool call. Failures become {"error": "..."} results.
func (r *OpenAIRunner) execute(ctx context.Context, tools *Toolset, name string, args json.RawMessage) any {
	if len(args) > 0 && !json.Valid(args) {
		r.metrics.ToolCall(name, "error")
		return map[string]any{"error": "arguments are not valid JSON"}
	}
	result, err := tools.Execute(ctx, name, args)
	if err != nil {
		r.metrics.ToolCall(name, "error")
		r.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		return map[string]any{"error": err.Error()}
	}
	r.metrics.ToolCall(name, "ok")
	return result
}

func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(m.Content))
	}
	return msgs
}

func toolParams(tools *Toolset) []openai.ChatCompletionToolParam {
	defs := tools.Definitions()
	params := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		params = append(params, openai.ChatCompletionToolParam{
			Type: openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(openai.FunctionDefinitionParam{
				Name:        openai.String(d.Name),
				Description: openai.String(d.Description),
				Parameters:  openai.F(openai.FunctionParameters(d.Parameters)),
			}),
		})
	}
	return params
}

func finishReason(s string) string {
	switch s {
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "content_filter":
		return "content-filter"
	case "":
		return FinishStop
	default:
		return s
	}
}

func argsValue(s string) any {
	if s == "" {
		return map[string]any{}
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}

func toolContent(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}
