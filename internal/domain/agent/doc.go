/*
Package agent runs the recruiter agent: a tool-using model loop that streams
its progress as Chunks.

# Stream protocol

A run produces, in order:

  - text-delta chunks while the model writes
  - one tool-call and one tool-result chunk per tool invocation
  - a step-finish chunk after every model step
  - error chunks for failures that end or degrade the run
  - exactly one final finish chunk, after which the channel is closed

The JSON encoding of Chunk is what browsers receive inside
"<jobId>.messageChunk" realtime messages.

# Tools

Tools are registered in a Toolset. A tool error never aborts the run; it is
reported to the model (and to the stream) as a result of the form
{"error": "..."} so the model can recover.

# Runners

Runner abstracts the model provider. OpenAIRunner talks to any
OpenAI-compatible chat completions endpoint with streaming and function
calling. Recruiter builds the system prompt and per-job toolset and
delegates to a Runner.
*/
package agent
