// Package mcp implements the tool-dispatch boundary: a line-delimited
// JSON-RPC 2.0 server over stdio (or any reader/writer pair) that exposes
// the toolbox to an agent running in another process.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/session"
)

// Request is a JSON-RPC 2.0 request. Params carries {tool, args} for the
// call_tool method.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// ResponseError is the JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeToolError      = -32000
	codeMethodNotFound = -32601
)

// CallToolParams are the parameters of the call_tool method.
type CallToolParams struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Server dispatches call_tool requests into a ToolBox, logging every call
// to the session log when one is attached.
type Server struct {
	tools lexgrep.ToolBox
	log   *session.Log
}

// NewServer creates a server over tools. sessionLog may be nil.
func NewServer(tools lexgrep.ToolBox, sessionLog *session.Log) *Server {
	return &Server{tools: tools, log: sessionLog}
}

// Serve reads one JSON request per line from r and writes one JSON response
// per line to w, until EOF. Unparseable lines are skipped: a confused
// client gets silence for that line rather than a protocol-level failure.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(w)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}
		resp := s.Handle(&req)
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("mcp: writing response: %w", err)
		}
	}
	return scanner.Err()
}

// Handle processes a single request.
func (s *Server) Handle(req *Request) *Response {
	switch req.Method {
	case "call_tool":
		return s.handleCallTool(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"ok": true}}
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ResponseError{Code: codeMethodNotFound, Message: "Method not found"},
		}
	}
}

func (s *Server) handleCallTool(req *Request) *Response {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return &Response{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &ResponseError{Code: codeToolError, Message: fmt.Sprintf("invalid params: %v", err)},
			}
		}
	}

	def, found := s.tools.Get(params.Tool)
	if !found {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ResponseError{Code: codeToolError, Message: fmt.Sprintf("Unknown tool: %s", params.Tool)},
		}
	}

	args := params.Args
	if args == nil {
		args = map[string]any{}
	}
	result, err := def.Function(args)
	if err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ResponseError{Code: codeToolError, Message: err.Error()},
		}
	}

	if s.log != nil {
		if logErr := s.log.Record(params.Tool, args, result); logErr != nil {
			log.Printf("mcp: session log: %v", logErr)
		}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}
