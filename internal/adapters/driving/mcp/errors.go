// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// search engine. It enables AI assistants to query locally indexed content.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
