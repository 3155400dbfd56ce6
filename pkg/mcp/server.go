// Package mcp serves the text service as Model Context Protocol tools over
// newline-delimited JSON-RPC on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/tracker"
)

// Generator is the text service surface exposed as tools.
type Generator interface {
	GenerateText(ctx context.Context, req models.GenerationRequest) (models.GenerationResponse, error)
	CacheStats() models.CacheStats
}

// Server is a stdio MCP server.
type Server struct {
	gen     Generator
	tracker tracker.Tracker
	logger  *log.Logger
	version string
}

// New creates a Server. t may be nil when history is disabled.
func New(gen Generator, t tracker.Tracker, logger *log.Logger, version string) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{gen: gen, tracker: t, logger: logger, version: version}
}

// Run handles one request per line from r and writes responses to w until r
// is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{JSONRPC: "2.0", Error: &RPCError{Code: CodeParseError, Message: "parse error"}})
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, *resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return reply(req, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "textsvc", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return reply(req, ToolsListResult{Tools: toolDefinitions()})
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return replyError(req, CodeInvalidParams, "invalid params")
		}
		return reply(req, s.callTool(ctx, params))
	default:
		return replyError(req, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) callTool(ctx context.Context, params ToolCallParams) ToolCallResult {
	t, ok := toolsByName[params.Name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", params.Name))
	}
	s.logger.Debug("tool call", "tool", params.Name)
	return t.handle(ctx, s, params.Arguments)
}

func reply(req *Request, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func replyError(req *Request, code int, msg string) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: code, Message: msg}}
}

func (s *Server) write(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "err", err)
		return
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Error("write response", "err", err)
	}
}
