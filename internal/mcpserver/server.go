// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes pose-contact validation tools for LLM integration via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/posecontact/internal/docservice"
	"github.com/starford/posecontact/internal/document"
	"github.com/starford/posecontact/internal/models"
)

const (
	schemaURI   = "posecontact://schema"
	contractURI = "posecontact://document-format"
)

// Server wraps the MCP server with validation tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"posecontact",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Validate a pose-contact document against the schema and the semantic rules. "+
			"Returns one line per issue as '<path>: <message>', or 'valid' when there are none."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("format", mcp.Description("json or yaml (default yaml)")),
	), s.validateDocument)

	s.mcp.AddTool(mcp.NewTool("narrate_document",
		mcp.WithDescription("Render the non-authoritative narrative projection of a document."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("format", mcp.Description("json or yaml (default yaml)")),
	), s.narrateDocument)

	s.mcp.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Returns the JSON schema documents are validated against."),
	), s.getSchema)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the pose-contact document format contract. "+
			"Call this before writing documents to learn the reference and pairing rules."),
	), s.getDocumentContract)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List stored documents with their last recorded validation status."),
		mcp.WithString("filter", mcp.Description("Set to 'invalid' to list only documents with issues")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("check_stored_document",
		mcp.WithDescription("Validate a stored document now and record the result."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the document directory (e.g. scene.yaml)")),
	), s.checkStoredDocument)

	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Store a document at the given path and validate it. "+
			"The document is saved even when it has issues."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Target path ending in .yaml, .yml or .json")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document text")),
	), s.saveDocument)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Pose-contact JSON Schema",
			mcp.WithResourceDescription("Draft-07 schema for canonical pose-contact documents."),
			mcp.WithMIMEType("application/schema+json"),
		),
		s.readSchemaResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Document Format Contract",
			mcp.WithResourceDescription("Reference and pairing rules every document must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// contentArgs reads the content and optional format arguments.
func contentArgs(req mcp.CallToolRequest) ([]byte, document.Format, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return nil, "", err
	}
	name := ""
	if f, err := req.RequireString("format"); err == nil {
		name = f
	}
	format, err := document.ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return []byte(content), format, nil
}

func formatIssues(issues []models.Issue) string {
	if len(issues) == 0 {
		return "valid"
	}
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.String()
	}
	return strings.Join(lines, "\n")
}

func (s *Server) validateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, format, err := contentArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issues, err := s.svc.ValidateContent(ctx, data, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatIssues(issues)), nil
}

func (s *Server) narrateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, format, err := contentArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.NarrateContent(ctx, data, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(string(s.svc.Schema())), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	onlyInvalid := false
	if f, err := req.RequireString("filter"); err == nil {
		onlyInvalid = f == "invalid"
	}
	rows, err := s.svc.ListDocuments(ctx, onlyInvalid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no documents recorded"), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkStoredDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.ValidateDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(formatIssues(report.Issues)), nil
}

func (s *Server) saveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.SaveDocument(ctx, path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s\n%s", path, formatIssues(report.Issues))), nil
}

func (s *Server) readSchemaResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "application/schema+json",
			Text:     string(s.svc.Schema()),
		},
	}, nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
