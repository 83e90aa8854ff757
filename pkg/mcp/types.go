// Package mcp defines the payload shapes for the MCP methods the probe drives.
package mcp

import "encoding/json"

// ProtocolVersion is the protocol revision the probe declares during the
// handshake.
const ProtocolVersion = "2024-11-05"

// Method names understood by every conforming server.
const (
	MethodInitialize = "initialize"
	MethodListTools  = "tools/list"
)

// ClientInfo identifies the probe to the server.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the request payload for the initialize handshake.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// ServerInfo identifies the server in its handshake response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the success payload of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}

// Tool is one capability descriptor returned by tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult is the success payload of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}
