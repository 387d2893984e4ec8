package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/tooldispatch/dispatch"
)

// Config configures a Server.
type Config struct {
	ServerInfo ServerInfo

	// Namespace prefixes tool IDs as namespace:name.
	// Default: "" (no prefix).
	Namespace string

	// Tags are attached to every tool.
	Tags []string

	// Logger receives skipped tools and call failures.
	// Default: nil (discard).
	Logger *slog.Logger
}

// ServerInfo describes this MCP server for initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// Server exposes the overload sets of a dispatch.Registry as MCP tools. Each
// registered name becomes one tool taking its arguments positionally.
type Server struct {
	reg *dispatch.Registry
	cfg Config
	log *slog.Logger
}

// New creates a Server over reg.
func New(reg *dispatch.Registry, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		reg: reg,
		cfg: cfg,
		log: logger.With("component", "mcpserver"),
	}
}

// argsSchema is the input schema shared by every tool.
func argsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"args": map[string]any{
				"type":        "array",
				"description": "Positional arguments; the best matching overload is invoked.",
			},
		},
		"required": []string{"args"},
	}
}

// Tools returns one tool per registered name in registration order. Tools
// failing validation are skipped.
func (s *Server) Tools() []model.Tool {
	var (
		names    []string
		overload = make(map[string][]dispatch.Signature)
	)
	for _, sig := range s.reg.All() {
		if _, ok := overload[sig.Name]; !ok {
			names = append(names, sig.Name)
		}
		overload[sig.Name] = append(overload[sig.Name], sig)
	}

	tools := make([]model.Tool, 0, len(names))
	for _, name := range names {
		tool := model.Tool{
			Tool: mcp.Tool{
				Name:        name,
				Description: describe(overload[name]),
				InputSchema: argsSchema(),
			},
			Namespace: s.cfg.Namespace,
			Version:   s.cfg.ServerInfo.Version,
			Tags:      model.NormalizeTags(s.cfg.Tags),
		}
		if err := tool.Validate(); err != nil {
			s.log.Warn("skipping tool", "name", name, "error", err)
			continue
		}
		tools = append(tools, tool)
	}
	return tools
}

func describe(sigs []dispatch.Signature) string {
	lines := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		line := sig.String()
		if sig.Description != "" {
			line += ": " + sig.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Call invokes the overload set name with positional args. The namespace
// prefix is optional. Integral JSON numbers are passed as int. Value
// overloads are preferred; a call matching only no-value overloads returns
// nil.
func (s *Server) Call(ctx context.Context, name string, args []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cfg.Namespace != "" {
		name = strings.TrimPrefix(name, s.cfg.Namespace+":")
	}
	args = normalizeArgs(args)

	v, err := dispatch.Execute[any](s.reg, name, args...)
	if errors.Is(err, dispatch.ErrNotFound) {
		if verr := s.reg.Execute(name, args...); !errors.Is(verr, dispatch.ErrNotFound) {
			return nil, verr
		}
	}
	if err != nil {
		s.log.Debug("call failed", "name", name, "error", err)
		return nil, err
	}
	return v, nil
}

// normalizeArgs turns integral float64 values, as produced by JSON decoding,
// into int so that integer overloads win.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		f, ok := arg.(float64)
		if ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			out[i] = int(f)
			continue
		}
		out[i] = arg
	}
	return out
}

func toolResultText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
