package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallArgs is the input of every tool served by MCPServer.
type CallArgs struct {
	Args []any `json:"args" jsonschema:"positional arguments; the best matching overload is invoked"`
}

// CallResult is the structured output of every tool served by MCPServer.
type CallResult struct {
	Result any `json:"result,omitempty"`
}

// MCPServer builds a go-sdk server with one tool per registered name. The
// tool set is captured when MCPServer is called.
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    s.cfg.ServerInfo.Name,
		Version: s.cfg.ServerInfo.Version,
	}, nil)

	for _, tool := range s.Tools() {
		id := tool.ToolID()
		mcp.AddTool(server, &mcp.Tool{
			Name:        id,
			Description: tool.Description,
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in CallArgs) (*mcp.CallToolResult, CallResult, error) {
			v, err := s.Call(ctx, id, in.Args)
			if err != nil {
				return nil, CallResult{}, err
			}
			return nil, CallResult{Result: v}, nil
		})
	}
	return server
}
