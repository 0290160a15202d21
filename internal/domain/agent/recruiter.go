package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/domain/format"
	"github.com/talentscout/backend/internal/repository/dao"
)

// ToolsetFactory builds the tools bound to one job post.
type ToolsetFactory func(job dao.JobPost) (*Toolset, error)

// Recruiter runs the candidate-sourcing agent for a job post.
type Recruiter struct {
	runner   Runner
	tools    ToolsetFactory
	maxSteps int
	logger   *zap.Logger
}

// NewRecruiter creates a recruiter. A nil factory runs without tools.
func NewRecruiter(runner Runner, tools ToolsetFactory, maxSteps int, logger *zap.Logger) *Recruiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recruiter{runner: runner, tools: tools, maxSteps: maxSteps, logger: logger}
}

// Stream starts a run for job over the conversation history.
func (r *Recruiter) Stream(ctx context.Context, job dao.JobPost, history []Message) (<-chan Chunk, error) {
	var tools *Toolset
	if r.tools != nil {
		var err error
		if tools, err = r.tools(job); err != nil {
			return nil, fmt.Errorf("build tools for job %s: %w", job.ID, err)
		}
	}

	r.logger.Info("starting recruiter run",
		zap.String("job_id", job.ID),
		zap.Int("history", len(history)),
		zap.Int("tools", tools.Len()))

	return r.runner.Stream(ctx, Request{
		System:   RecruiterPrompt(job),
		Messages: history,
		Tools:    tools,
		MaxSteps: r.maxSteps,
	})
}

// RecruiterPrompt returns the system prompt for job.
func RecruiterPrompt(job dao.JobPost) string {
	var b strings.Builder
	b.WriteString(`<role>
You are an expert Recruitment Researcher specializing in identifying exceptional candidates for technical roles. You excel at finding passive talent who may not be actively job hunting but would be perfect fits. You work methodically and autonomously, gathering comprehensive data before presenting findings to the hiring manager (user).
</role>

<instructions>
Write out your thought process in between tool calls and steps.

Always add candidates you find and that can be a fit for the job.

Don't add people who already work at the same company.
</instructions>
<job_description>
`)
	b.WriteString(format.JobPost(job))
	b.WriteString("\n</job_description>\n")
	return b.String()
}
