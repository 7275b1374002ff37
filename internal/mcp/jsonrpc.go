// Package mcp serves the stream's state to MCP clients as JSON-RPC 2.0 over
// stdio: tools for queries and ingest, resources for read-only views.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/stream"
)

const (
	protocolVersion = "2024-11-05"
	jsonrpcVersion  = "2.0"
	maxLine         = 1 << 20
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Server is an MCP stdio server answering from one stream.
type Server struct {
	stream  *stream.Stream
	version string
	logger  *zap.Logger

	tools     []toolDef
	toolIndex map[string]int
	resources []resourceDef
	methods   map[string]methodHandler
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

type toolHandler func(args json.RawMessage) (any, error)

// methodHandler answers one JSON-RPC method. A non-nil *rpcError becomes
// the response error.
type methodHandler func(params json.RawMessage) (any, *rpcError)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newError(code int, format string, args ...any) *rpcError {
	return &rpcError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewServer constructs a Server answering from s.
func NewServer(s *stream.Stream, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{stream: s, version: version, logger: logger, toolIndex: make(map[string]int)}
	addTools(srv)
	addResources(srv)
	srv.methods = map[string]methodHandler{
		"initialize":     srv.initialize,
		"ping":           func(json.RawMessage) (any, *rpcError) { return struct{}{}, nil },
		"tools/list":     srv.listTools,
		"tools/call":     srv.callTool,
		"resources/list": srv.listResources,
		"resources/read": srv.readResource,
	}
	return srv
}

func (s *Server) registerTool(def toolDef) {
	s.toolIndex[def.Name] = len(s.tools)
	s.tools = append(s.tools, def)
}

// Run reads one JSON-RPC message per line from r and writes one response
// line per request to w, until ctx is cancelled or r reaches EOF. It returns
// nil on either, and an error only for I/O failures.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			readErr <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("reading request: %w", err)
				default:
					return nil
				}
			}
			resp, reply := s.handle(line)
			if !reply {
				continue
			}
			if err := writeResponse(bw, resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
}

// handle answers one line. reply is false for notifications and blank
// lines.
func (s *Server) handle(line []byte) (resp response, reply bool) {
	if len(line) == 0 {
		return response{}, false
	}
	resp = response{JSONRPC: jsonrpcVersion, ID: json.RawMessage("null")}

	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		resp.Error = newError(codeParseError, "Parse error")
		return resp, true
	}
	if len(req.ID) == 0 {
		s.logger.Debug("notification", zap.String("method", req.Method))
		return response{}, false
	}
	resp.ID = req.ID
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		resp.Error = newError(codeInvalidRequest, "Invalid request")
		return resp, true
	}

	m, ok := s.methods[req.Method]
	if !ok {
		resp.Error = newError(codeMethodNotFound, "Method not found: %s", req.Method)
		return resp, true
	}
	resp.Result, resp.Error = m(req.Params)
	if resp.Error != nil {
		resp.Result = nil
	}
	return resp, true
}

func (s *Server) initialize(json.RawMessage) (any, *rpcError) {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{"name": "lifestream", "version": s.version},
	}, nil
}

// writeResponse writes resp as one JSON line and flushes.
func writeResponse(bw *bufio.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
