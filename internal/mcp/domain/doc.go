// Package domain defines the MCP tool schemas and handlers that expose the
// transition pipeline to MCP clients.
package domain
