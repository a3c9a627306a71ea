package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for engine resources.
const uriScheme = "sercha://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing collections.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "List of all configured collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	// Template for collection documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{name}/documents",
		Name:        "collection-documents",
		Description: "Documents indexed in a specific collection",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Content of a specific document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleCollectionsResource returns a list of all configured collections.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collections == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	cols, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	infos := make([]CollectionOutput, len(cols))
	for i := range cols {
		infos[i] = CollectionOutput{
			Name:    cols[i].Name,
			Kind:    cols[i].Kind,
			Locator: cols[i].Locator,
			Boost:   cols[i].EffectiveBoost(),
			Include: cols[i].Include,
			Exclude: cols[i].Exclude,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collections: %w", err)
	}

	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentsResource returns the documents of one collection.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collections == nil || s.ports.Documents == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	name, ok := parseURI(req.Params.URI, "collections/", "/documents")
	if !ok {
		return nil, fmt.Errorf("invalid resource URI: %s", req.Params.URI)
	}

	col, err := s.ports.Collections.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", name, err)
	}

	docs, err := s.ports.Documents.ListDocuments(ctx, col.ID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID         string  `json:"id"`
		Path       string  `json:"path"`
		Title      string  `json:"title"`
		Importance float64 `json:"importance"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:         docs[i].ID,
			Path:       docs[i].Path,
			Title:      docs[i].Title,
			Importance: docs[i].EffectiveImportance(),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentContentResource returns the raw content of one document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, fmt.Errorf("document store not configured")
	}

	id, ok := parseURI(req.Params.URI, "documents/", "")
	if !ok {
		return nil, fmt.Errorf("invalid resource URI: %s", req.Params.URI)
	}

	doc, err := s.ports.Documents.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", id, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

// parseURI extracts the variable segment between prefix and suffix in a
// sercha:// URI.
func parseURI(uri, prefix, suffix string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, uriScheme+prefix)
	if !ok {
		return "", false
	}
	if suffix != "" {
		rest, ok = strings.CutSuffix(rest, suffix)
		if !ok {
			return "", false
		}
	}
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}
