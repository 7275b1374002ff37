package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/memory"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
	"github.com/blackwell-systems/lifestream/internal/signal"
	"github.com/blackwell-systems/lifestream/internal/stream"
)

const (
	defaultMemories = 10
	maxMemories     = memory.DefaultCapacity
)

// PatternsResult holds the currently active patterns.
type PatternsResult struct {
	Patterns []pattern.Pattern `json:"patterns"`
	Count    int               `json:"count"`
}

// PredictionsResult holds the latest forecasts.
type PredictionsResult struct {
	Predictions []predict.Prediction `json:"predictions"`
}

// MemoriesResult holds the newest memories, oldest first.
type MemoriesResult struct {
	Memories []memory.Memory `json:"memories"`
	Total    int             `json:"total"`
}

// IngestResult echoes the slice a reading was applied to.
type IngestResult struct {
	Kind     stream.Kind     `json:"kind"`
	Snapshot signal.Snapshot `json:"snapshot"`
}

var (
	noArgsSchema   = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	memoriesSchema = json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer","description":"Number of memories to return (default 10, max 100)"}},"additionalProperties":false}`)
	ingestSchema   = json.RawMessage(`{"type":"object","properties":{` +
		`"kind":{"type":"string","enum":["biometrics","environmental","digital","emotional"]},` +
		`"values":{"type":"object","additionalProperties":{"type":"number"},"description":"Field name to value, e.g. heartRate or brainWaves.alpha"},` +
		`"labels":{"type":"object","additionalProperties":{"type":"string"},"description":"weather for environmental, mood for emotional"}` +
		`},"required":["kind"],"additionalProperties":false}`)
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_state",
		Description: "Full current snapshot: biometrics, environment, digital activity, emotional state, patterns, predictions and memories.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetState,
	})
	s.registerTool(toolDef{
		Name:        "get_patterns",
		Description: "Patterns detected on the latest evaluation (stress, flow, fatigue, creative peak).",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetPatterns,
	})
	s.registerTool(toolDef{
		Name:        "get_predictions",
		Description: "Latest stress, energy, focus window and wellness forecasts.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetPredictions,
	})
	s.registerTool(toolDef{
		Name:        "get_memories",
		Description: "Last N consolidated memories, oldest first.",
		InputSchema: memoriesSchema,
		Handler:     s.handleGetMemories,
	})
	s.registerTool(toolDef{
		Name:        "ingest_reading",
		Description: "Apply a partial reading to one channel group and hold it over generated values.",
		InputSchema: ingestSchema,
		Handler:     s.handleIngestReading,
	})
}

type toolEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callResult carries a tool result as MCP text content.
type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(text string, isError bool) callResult {
	return callResult{Content: []textContent{{Type: "text", Text: text}}, IsError: isError}
}

func (s *Server) listTools(json.RawMessage) (any, *rpcError) {
	entries := make([]toolEntry, 0, len(s.tools))
	for _, t := range s.tools {
		entries = append(entries, toolEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return map[string]any{"tools": entries}, nil
}

// callTool runs a tool. Tool failures are reported in the result so the
// client can show them; only malformed params are protocol errors.
func (s *Server) callTool(params json.RawMessage) (any, *rpcError) {
	var p callParams
	if err := json.Unmarshal(params, &p); err != nil || p.Name == "" {
		return nil, newError(codeInvalidParams, "Invalid params: tools/call needs a tool name")
	}
	i, ok := s.toolIndex[p.Name]
	if !ok {
		return textResult("unknown tool: "+p.Name, true), nil
	}

	args := p.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	out, err := s.tools[i].Handler(args)
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", p.Name), zap.Error(err))
		return textResult(err.Error(), true), nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return textResult(err.Error(), true), nil
	}
	return textResult(string(data), false), nil
}

func (s *Server) handleGetState(json.RawMessage) (any, error) {
	return s.stream.GetState(), nil
}

func (s *Server) handleGetPatterns(json.RawMessage) (any, error) {
	ps := s.stream.Store().Patterns()
	return PatternsResult{Patterns: ps, Count: len(ps)}, nil
}

func (s *Server) handleGetPredictions(json.RawMessage) (any, error) {
	return PredictionsResult{Predictions: s.stream.Store().Predictions()}, nil
}

func (s *Server) handleGetMemories(args json.RawMessage) (any, error) {
	n := defaultMemories
	if len(args) > 0 && string(args) != "null" {
		var params struct {
			N *int `json:"n"`
		}
		if err := json.Unmarshal(args, &params); err == nil && params.N != nil {
			n = *params.N
		}
	}
	if n <= 0 {
		n = defaultMemories
	}
	n = min(n, maxMemories)

	store := s.stream.Store()
	return MemoriesResult{Memories: store.Memories(n), Total: store.MemoryCount()}, nil
}

func (s *Server) handleIngestReading(args json.RawMessage) (any, error) {
	var r stream.Reading
	if err := json.Unmarshal(args, &r); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if r.Kind == "" {
		return nil, errors.New("kind is required")
	}
	if err := s.stream.Ingest(r); err != nil {
		return nil, err
	}
	return IngestResult{Kind: r.Kind, Snapshot: s.stream.Store().Snapshot()}, nil
}
