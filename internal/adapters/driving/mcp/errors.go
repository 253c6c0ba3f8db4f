// Package mcp provides an MCP (Model Context Protocol) server adapter for localrag.
// It lets AI assistants list stored documents, search them and ask questions
// answered from their paragraphs.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
