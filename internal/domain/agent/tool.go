package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrDuplicateTool = errors.New("tool already registered")
)

// ToolDefinition describes a tool to the model. Parameters is a JSON Schema
// object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool is something the model can call.
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolFunc adapts a definition and a function to Tool.
type ToolFunc struct {
	Def ToolDefinition
	Fn  func(ctx context.Context, args json.RawMessage) (any, error)
}

func (t ToolFunc) Definition() ToolDefinition { return t.Def }

func (t ToolFunc) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	return t.Fn(ctx, args)
}

// Toolset is a name-indexed set of tools.
type Toolset struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolset creates a toolset holding tools.
func NewToolset(tools ...Tool) (*Toolset, error) {
	s := &Toolset{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := s.Register(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a tool. Names must be unique and non-empty.
func (s *Toolset) Register(t Tool) error {
	def := t.Definition()
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tools == nil {
		s.tools = make(map[string]Tool)
	}
	if _, ok := s.tools[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	s.tools[def.Name] = t
	return nil
}

// Get returns the tool registered under name.
func (s *Toolset) Get(name string) (Tool, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// Definitions returns all tool definitions sorted by name.
func (s *Toolset) Definitions() []ToolDefinition {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defs := make([]ToolDefinition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.Definition())
	}
	s.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of tools.
func (s *Toolset) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tools)
}

// Execute runs the named tool. Empty args are passed as {}.
func (s *Toolset) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return t.Execute(ctx, args)
}

// Object builds a JSON Schema object with the given properties; every
// property is required.
func Object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// Prop builds a JSON Schema property.
func Prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// DecodeArgs unmarshals tool arguments into v.
func DecodeArgs(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
