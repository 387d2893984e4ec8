package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/tooldispatch/dispatch"
)

var errBoom = errors.New("boom")

func newTestRegistry(t *testing.T) *dispatch.Registry {
	t.Helper()
	reg := dispatch.New(dispatch.Options{})
	regs := []struct {
		fn   any
		name string
		desc string
	}{
		{func(a, b int) int { return a + b }, "add", "sum of integers"},
		{func(a, b string) string { return a + b }, "add", "concatenation"},
		{func(name string) string { return "hello " + name }, "greet", ""},
		{func() {}, "ping", ""},
		{func() (int, error) { return 0, errBoom }, "fail", ""},
	}
	for _, r := range regs {
		if err := reg.Register(r.fn, dispatch.WithName(r.name), dispatch.WithDescription(r.desc)); err != nil {
			t.Fatalf("Register %s failed: %v", r.name, err)
		}
	}
	return reg
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.ServerInfo.Name == "" {
		cfg.ServerInfo = ServerInfo{Name: "test", Version: "1.0.0"}
	}
	return New(newTestRegistry(t), cfg)
}

func TestTools(t *testing.T) {
	s := newTestServer(t, Config{Namespace: "math", Tags: []string{"Calc", "calc", " Dispatch "}})

	tools := s.Tools()
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}

	want := []string{"math:add", "math:greet", "math:ping", "math:fail"}
	for i, tool := range tools {
		if tool.ToolID() != want[i] {
			t.Errorf("tool %d: expected ID %q, got %q", i, want[i], tool.ToolID())
		}
		if tool.Version != "1.0.0" {
			t.Errorf("tool %d: expected version 1.0.0, got %q", i, tool.Version)
		}
	}

	add := tools[0]
	if !strings.Contains(add.Description, "add(int, int) int: sum of integers") {
		t.Errorf("expected int overload in description, got %q", add.Description)
	}
	if !strings.Contains(add.Description, "add(string, string) string: concatenation") {
		t.Errorf("expected string overload in description, got %q", add.Description)
	}
	if want := model.NormalizeTags([]string{"Calc", "calc", " Dispatch "}); len(add.Tags) != len(want) {
		t.Errorf("expected normalized tags %v, got %v", want, add.Tags)
	}
}

func TestCall(t *testing.T) {
	s := newTestServer(t, Config{Namespace: "math"})
	ctx := context.Background()

	t.Run("json_numbers_pick_int_overload", func(t *testing.T) {
		v, err := s.Call(ctx, "add", []any{float64(2), float64(3)})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if v != 5 {
			t.Errorf("expected 5, got %v (%T)", v, v)
		}
	})

	t.Run("namespaced_name", func(t *testing.T) {
		v, err := s.Call(ctx, "math:add", []any{"tool", "dispatch"})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if v != "tooldispatch" {
			t.Errorf("expected tooldispatch, got %v", v)
		}
	})

	t.Run("void_fallback", func(t *testing.T) {
		v, err := s.Call(ctx, "ping", nil)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if v != nil {
			t.Errorf("expected nil, got %v", v)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := s.Call(ctx, "missing", nil)
		if !errors.Is(err, dispatch.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("failure", func(t *testing.T) {
		_, err := s.Call(ctx, "fail", nil)
		if !errors.Is(err, dispatch.ErrExecutionFailed) || !errors.Is(err, errBoom) {
			t.Errorf("expected wrapped execution failure, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Call(cctx, "add", []any{1, 2}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNormalizeArgs(t *testing.T) {
	in := []any{float64(4), 2.5, "x", float64(1 << 60)}
	out := normalizeArgs(in)
	if out[0] != 4 {
		t.Errorf("expected int 4, got %v (%T)", out[0], out[0])
	}
	if out[1] != 2.5 {
		t.Errorf("expected 2.5 unchanged, got %v", out[1])
	}
	if out[2] != "x" {
		t.Errorf("expected string unchanged, got %v", out[2])
	}
	if _, ok := out[3].(float64); !ok {
		t.Errorf("expected large value to stay float64, got %T", out[3])
	}
	if _, ok := in[0].(float64); !ok {
		t.Error("input slice must not be modified")
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, Config{})

	resp := s.HandleRequest(context.Background(), MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
	result := resp.Result.(map[string]any)
	if result["protocolVersion"] != model.MCPVersion {
		t.Errorf("expected protocolVersion %s, got %v", model.MCPVersion, result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != "test" {
		t.Errorf("expected name='test', got %v", info["name"])
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s := newTestServer(t, Config{})

	resp := s.HandleRequest(context.Background(), MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
	tools := resp.Result.(map[string]any)["tools"].([]map[string]any)
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}
	if tools[0]["name"] != "add" {
		t.Errorf("expected first tool 'add', got %v", tools[0]["name"])
	}
}

func TestHandleRequest_ToolsCall(t *testing.T) {
	s := newTestServer(t, Config{})

	params, _ := json.Marshal(map[string]any{
		"name":      "greet",
		"arguments": map[string]any{"args": []any{"gopher"}},
	})
	resp := s.HandleRequest(context.Background(), MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}

	result := resp.Result.(map[string]any)
	structured := result["structuredContent"].(map[string]any)
	if structured["result"] != "hello gopher" {
		t.Errorf("expected result='hello gopher', got %v", structured["result"])
	}
	content := result["content"].([]map[string]any)
	if content[0]["text"] != "hello gopher" {
		t.Errorf("expected text content, got %v", content[0]["text"])
	}
}

func TestHandleRequest_Errors(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		name   string
		method string
		params string
		code   int
	}{
		{"unknown_method", "resources/list", ``, ErrCodeMethodNotFound},
		{"bad_params", "tools/call", `[1]`, ErrCodeInvalidParams},
		{"missing_name", "tools/call", `{"arguments":{"args":[]}}`, ErrCodeInvalidParams},
		{"not_found", "tools/call", `{"name":"missing","arguments":{"args":[]}}`, ErrCodeToolNotFound},
		{"execution_failed", "tools/call", `{"name":"fail","arguments":{"args":[]}}`, ErrCodeToolExecFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := MCPRequest{JSONRPC: "2.0", ID: 7, Method: tt.method}
			if tt.params != "" {
				req.Params = json.RawMessage(tt.params)
			}
			resp := s.HandleRequest(context.Background(), req)
			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %d, got %d (%s)", tt.code, resp.Error.Code, resp.Error.Message)
			}
			if resp.ID != 7 {
				t.Errorf("expected ID to be echoed, got %v", resp.ID)
			}
		})
	}
}

func TestServeHTTP(t *testing.T) {
	s := newTestServer(t, Config{})

	srv := httptest.NewServer(ServeHTTP(s))
	defer srv.Close()

	body := bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"add","arguments":{"args":[40,2]}}}`)
	resp, err := http.Post(srv.URL, "application/json", body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var mcpResp MCPResponse
	if err := json.NewDecoder(resp.Body).Decode(&mcpResp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mcpResp.Error != nil {
		t.Fatalf("expected no error, got %v", mcpResp.Error)
	}
	resultMap, ok := mcpResp.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected result map, got %T", mcpResp.Result)
	}
	structured := resultMap["structuredContent"].(map[string]any)
	if structured["result"] != float64(42) {
		t.Errorf("expected 42, got %v", structured["result"])
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Config{})

	srv := httptest.NewServer(ServeHTTP(s))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestServeSSE(t *testing.T) {
	s := newTestServer(t, Config{})

	srv := httptest.NewServer(ServeSSE(s))
	defer srv.Close()

	reqBody := bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp, err := http.Post(srv.URL, "application/json", reqBody)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	scanner := bufio.NewScanner(resp.Body)
	var dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner failed: %v", err)
	}
	if dataLine == "" {
		t.Fatal("expected SSE data line")
	}

	var mcpResp MCPResponse
	if err := json.Unmarshal([]byte(dataLine), &mcpResp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mcpResp.Error != nil {
		t.Fatalf("expected no error, got %v", mcpResp.Error)
	}
}

func TestServeStream(t *testing.T) {
	s := newTestServer(t, Config{})

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet","arguments":{"args":["stdio"]}}}`,
	}, "\n"))
	var out bytes.Buffer

	if err := serveStream(context.Background(), s, in, &out); err != nil {
		t.Fatalf("serveStream failed: %v", err)
	}

	dec := json.NewDecoder(&out)
	var responses []MCPResponse
	for dec.More() {
		var resp MCPResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		responses = append(responses, resp)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	if responses[1].Error == nil || responses[1].Error.Code != ErrCodeParseError {
		t.Errorf("expected parse error for malformed line, got %+v", responses[1])
	}
	structured := responses[2].Result.(map[string]any)["structuredContent"].(map[string]any)
	if structured["result"] != "hello stdio" {
		t.Errorf("expected 'hello stdio', got %v", structured["result"])
	}
}

func connectRemote(t *testing.T, s *Server) *Remote {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() {
		_ = serverSession.Close()
	})

	remote, err := Dial(ctx, RemoteConfig{Transport: clientTransport})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() {
		_ = remote.Close()
	})
	return remote
}

func TestMCPServerAndRemote(t *testing.T) {
	remote := connectRemote(t, newTestServer(t, Config{}))
	ctx := context.Background()

	t.Run("tools", func(t *testing.T) {
		tools := remote.Tools()
		if len(tools) != 4 {
			t.Fatalf("expected 4 tools, got %d", len(tools))
		}
		if !strings.Contains(tools[0].Description+tools[1].Description+tools[2].Description+tools[3].Description, "greet(string) string") {
			t.Error("expected overload signatures in tool descriptions")
		}
	})

	t.Run("call_int_overload", func(t *testing.T) {
		v, err := remote.Call(ctx, "add", 20, 22)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if v != float64(42) {
			t.Errorf("expected 42, got %v (%T)", v, v)
		}
	})

	t.Run("call_string_overload", func(t *testing.T) {
		v, err := remote.Call(ctx, "add", "a", "b")
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if v != "ab" {
			t.Errorf("expected ab, got %v", v)
		}
	})

	t.Run("call_failure", func(t *testing.T) {
		_, err := remote.Call(ctx, "fail")
		if !errors.Is(err, ErrRemoteFailed) {
			t.Errorf("expected ErrRemoteFailed, got %v", err)
		}
	})

	t.Run("closed", func(t *testing.T) {
		if err := remote.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := remote.Call(ctx, "greet", "x"); !errors.Is(err, ErrRemoteNotConnected) {
			t.Errorf("expected ErrRemoteNotConnected, got %v", err)
		}
	})
}

func TestRemoteTransport(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://localhost:8080/mcp", false},
		{"https://example.com/mcp", false},
		{"sse://localhost:8080/events", false},
		{"stdio://", false},
		{"ftp://example.com", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			transport, err := remoteTransport(RemoteConfig{URL: tt.url})
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got transport %T", transport)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sse, ok := transport.(*mcp.SSEClientTransport); ok && !strings.HasPrefix(sse.Endpoint, "http://") {
				t.Errorf("expected sse endpoint rewritten to http, got %s", sse.Endpoint)
			}
		})
	}
}

func TestHeaderRoundTripper(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := httpClientWithHeaders(map[string]string{"Authorization": "Bearer token", " ": "ignored"})
	if client == nil {
		t.Fatal("expected client")
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if got != "Bearer token" {
		t.Errorf("expected header to be set, got %q", got)
	}

	if httpClientWithHeaders(nil) != nil {
		t.Error("expected nil client without headers")
	}
}
