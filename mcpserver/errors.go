package mcpserver

import "errors"

// Sentinel errors for consistent error handling.
var (
	ErrRemoteNotConnected = errors.New("remote not connected")
	ErrRemoteFailed       = errors.New("remote call failed")
)

// MCP JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeToolNotFound   = -32001
	ErrCodeToolExecFailed = -32002
)
