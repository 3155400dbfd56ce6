package mcp

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/typerush/textsvc/pkg/models"
)

type generateArgs struct {
	Type  int `json:"type"`
	Count int `json:"count"`
}

type historyArgs struct {
	Limit int `json:"limit"`
}

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

type tool struct {
	def    ToolDefinition
	handle toolHandler
}

var toolsByName = map[string]tool{
	"textsvc_generate_text": {
		def: ToolDefinition{
			Name:        "textsvc_generate_text",
			Description: "Generate typing-practice text: type 1 returns count random words, type 2 one sentence of length count (1-3), type 3 agent-written paragraphs.",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"type"},
				"properties": map[string]any{
					"type":  map[string]any{"type": "integer", "enum": []int{1, 2, 3}},
					"count": map[string]any{"type": "integer", "minimum": 1},
				},
			},
		},
		handle: handleGenerateText,
	},
	"textsvc_cache_stats": {
		def: ToolDefinition{
			Name:        "textsvc_cache_stats",
			Description: "Show word and sentence pool cache statistics.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		handle: handleCacheStats,
	},
	"textsvc_history": {
		def: ToolDefinition{
			Name:        "textsvc_history",
			Description: "List the most recent generation requests.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "integer", "description": "Number of requests (default 20)"},
				},
			},
		},
		handle: handleHistory,
	},
	"textsvc_history_summary": {
		def: ToolDefinition{
			Name:        "textsvc_history_summary",
			Description: "Summarize generation requests per content type.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		handle: handleHistorySummary,
	},
}

func toolDefinitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(toolsByName))
	for _, t := range toolsByName {
		defs = append(defs, t.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func handleGenerateText(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args generateArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	resp, err := s.gen.GenerateText(ctx, models.GenerationRequest{Type: args.Type, Count: args.Count})
	if err != nil {
		return errorResult("Error generating text: " + err.Error())
	}
	return textResult(resp.Text)
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	return textResult(formatCacheStats(s.gen.CacheStats()))
}

func handleHistory(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.tracker == nil {
		return textResult("Request history is not enabled.")
	}
	var args historyArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	records, err := s.tracker.Recent(ctx, args.Limit)
	if err != nil {
		return errorResult("Error fetching history: " + err.Error())
	}
	return textResult(formatRecords(records))
}

func handleHistorySummary(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.tracker == nil {
		return textResult("Request history is not enabled.")
	}
	rows, err := s.tracker.Summary(ctx)
	if err != nil {
		return errorResult("Error fetching history summary: " + err.Error())
	}
	return textResult(formatSummary(rows))
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}
