/*
Package rpc exposes the dispatch engine over line-delimited JSON-RPC on
stdio.

Methods:
  - dispatch: run one utterance through the engine
  - choose: resolve a previously surfaced ambiguity
  - search: fuzzy help search over the catalog
  - stats: catalog and usage statistics
  - categories: commands grouped by category
  - help: the full catalog listing
  - context.set: push workspace state into the engine
  - context.reset: clear workspace state

One request per line in, one response per line out. A host editor keeps
the process alive for the whole session; closing stdin ends it.
*/
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/khanglvm/voice-hub/internal/dispatch"
	"github.com/khanglvm/voice-hub/internal/search"
	"github.com/khanglvm/voice-hub/internal/workspace"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server serves engine operations over a line-delimited JSON-RPC stream.
type Server struct {
	engine *dispatch.Engine
	index  *search.Index

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // serializes writes to out
}

// NewServer creates a server bound to stdin/stdout.
func NewServer(engine *dispatch.Engine, index *search.Index) *Server {
	return NewServerIO(engine, index, os.Stdin, os.Stdout)
}

// NewServerIO creates a server on explicit streams, for tests and
// embedding.
func NewServerIO(engine *dispatch.Engine, index *search.Index, in io.Reader, out io.Writer) *Server {
	return &Server{engine: engine, index: index, in: in, out: out}
}

// Request is an incoming JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Run reads requests until the input stream closes.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.send(s.Handle(line))
	}
	return scanner.Err()
}

// Handle processes one raw request and returns the response.
func (s *Server) Handle(data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: codeParseError, Message: fmt.Sprintf("invalid JSON-RPC request: %v", err)},
		}
	}

	switch req.Method {
	case "dispatch":
		return s.handleDispatch(&req)
	case "choose":
		return s.handleChoose(&req)
	case "search":
		return s.handleSearch(&req)
	case "stats":
		return s.handleStats(&req)
	case "categories":
		return s.handleCategories(&req)
	case "help":
		return result(&req, map[string]string{"help": s.engine.Catalog().HelpText()})
	case "context.set":
		return s.handleContextSet(&req)
	case "context.reset":
		s.engine.Context().Reset()
		return result(&req, map[string]bool{"reset": true})
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &Error{Code: codeMethodNotFound, Message: "Method not found"},
		}
	}
}

type dispatchParams struct {
	Text string `json:"text"`
}

func (s *Server) handleDispatch(req *Request) *Response {
	var params dispatchParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Text == "" {
		return errResp(req, codeInvalidParams, "dispatch requires a non-empty \"text\" parameter")
	}
	return result(req, s.engine.Dispatch(context.Background(), params.Text))
}

type chooseParams struct {
	Text      string `json:"text"`
	CommandID string `json:"commandId"`
}

func (s *Server) handleChoose(req *Request) *Response {
	var params chooseParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Text == "" || params.CommandID == "" {
		return errResp(req, codeInvalidParams, "choose requires \"text\" and \"commandId\" parameters")
	}
	return result(req, s.engine.ResolveAmbiguity(context.Background(), params.Text, params.CommandID))
}

type searchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) handleSearch(req *Request) *Response {
	var params searchParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Query == "" {
		return errResp(req, codeInvalidParams, "search requires a non-empty \"query\" parameter")
	}
	if s.index == nil {
		return errResp(req, codeInternalError, "help index is not available")
	}
	hits, err := s.index.Search(params.Query, params.Limit)
	if err != nil {
		return errResp(req, codeInternalError, err.Error())
	}
	return result(req, map[string]interface{}{"results": hits})
}

func (s *Server) handleStats(req *Request) *Response {
	stats := s.engine.Catalog().Stats()
	return result(req, map[string]interface{}{
		"totalCommands": stats.Total,
		"byCategory":    stats.ByCategory,
		"topCommands":   s.engine.Learning().TopCommands(10),
	})
}

func (s *Server) handleCategories(req *Request) *Response {
	byCategory := make(map[string][]string)
	for _, def := range s.engine.Catalog().All() {
		byCategory[def.Category] = append(byCategory[def.Category], def.ID)
	}
	return result(req, byCategory)
}

type contextSetParams struct {
	CurrentFile  *string                   `json:"currentFile,omitempty"`
	SelectedText *string                   `json:"selectedText,omitempty"`
	GitBranch    *string                   `json:"gitBranch,omitempty"`
	Cursor       *workspace.CursorPosition `json:"cursor,omitempty"`
	OnlineUsers  []workspace.User          `json:"onlineUsers,omitempty"`
}

// handleContextSet applies only the fields the host sent; absent fields
// keep their current values.
func (s *Server) handleContextSet(req *Request) *Response {
	var params contextSetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResp(req, codeInvalidParams, fmt.Sprintf("invalid context parameters: %v", err))
	}

	ws := s.engine.Context()
	if params.CurrentFile != nil {
		ws.SetCurrentFile(*params.CurrentFile)
	}
	if params.SelectedText != nil {
		ws.SetSelectedText(*params.SelectedText)
	}
	if params.GitBranch != nil {
		ws.SetGitBranch(*params.GitBranch)
	}
	if params.Cursor != nil {
		ws.SetCursorPosition(params.Cursor)
	}
	if params.OnlineUsers != nil {
		ws.SetOnlineUsers(params.OnlineUsers)
	}
	return result(req, map[string]bool{"updated": true})
}

func (s *Server) send(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(&Response{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &Error{Code: codeInternalError, Message: "failed to encode response"},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, string(data))
}

func result(req *Request, v interface{}) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: v}
}

func errResp(req *Request, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: code, Message: message}}
}
