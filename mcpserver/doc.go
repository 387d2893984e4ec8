// Package mcpserver exposes a dispatch.Registry over the Model Context
// Protocol.
//
// Every registered name becomes one MCP tool. A tool takes its arguments
// positionally in an "args" array; the registry then resolves the best
// matching overload from the runtime argument types, exactly as a direct Go
// call would. Integral JSON numbers are passed as int so integer overloads
// take precedence over float ones.
//
// Features:
//   - JSON-RPC handling of initialize, tools/list and tools/call
//   - Multiple transports (stdio, HTTP, SSE)
//   - A go-sdk server for use with any go-sdk transport
//   - A client (Remote) for overload sets served by another process
//
// Example usage:
//
//	reg := dispatch.New(dispatch.Options{})
//	_ = reg.Register(func(a, b int) int { return a + b }, dispatch.WithName("add"))
//
//	srv := mcpserver.New(reg, mcpserver.Config{
//	    ServerInfo: mcpserver.ServerInfo{Name: "calc", Version: "1.0.0"},
//	})
//	http.Handle("/mcp", mcpserver.ServeHTTP(srv))
package mcpserver
