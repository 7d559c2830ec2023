package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/posecontact/internal/docservice"
	"github.com/starford/posecontact/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir, store := testutil.TestDocs(t)
	svc, err := docservice.NewService(store, testutil.TestDB(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(svc), dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "validate_document":
		result, err = srv.validateDocument(ctx, req)
	case "narrate_document":
		result, err = srv.narrateDocument(ctx, req)
	case "get_schema":
		result, err = srv.getSchema(ctx, req)
	case "get_document_contract":
		result, err = srv.getDocumentContract(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "check_stored_document":
		result, err = srv.checkStoredDocument(ctx, req)
	case "save_document":
		result, err = srv.saveDocument(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestValidateDocumentTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "validate_document", map[string]any{"content": testutil.ValidYAML})
	if text := resultText(r); text != "valid" {
		t.Errorf("valid document = %q", text)
	}

	r = callTool(t, srv, "validate_document", map[string]any{
		"content": testutil.DanglingYAML,
		"format":  "yaml",
	})
	if text := resultText(r); text != "/relations/0/object/object: unknown object id 'ghost'" {
		t.Errorf("dangling document = %q", text)
	}

	r = callTool(t, srv, "validate_document", map[string]any{
		"content": `{"relations": []}`,
		"format":  "json",
	})
	if text := resultText(r); text != "valid" {
		t.Errorf("json document = %q", text)
	}
}

func TestValidateDocumentTool_BadArgs(t *testing.T) {
	srv, _ := testServer(t)

	if r := callTool(t, srv, "validate_document", map[string]any{}); !r.IsError {
		t.Error("expected error for missing content")
	}
	if r := callTool(t, srv, "validate_document", map[string]any{"content": "x", "format": "xml"}); !r.IsError {
		t.Error("expected error for unsupported format")
	}
}

func TestNarrateDocumentTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "narrate_document", map[string]any{"content": testutil.ValidYAML})
	text := resultText(r)
	if !strings.Contains(text, "Cup (cup) is resting on Table (table).") {
		t.Errorf("narrative = %q", text)
	}

	r = callTool(t, srv, "narrate_document", map[string]any{"content": "- a\n- b\n"})
	if !r.IsError {
		t.Error("expected error for non-mapping document")
	}
}

func TestSchemaAndContractTools(t *testing.T) {
	srv, _ := testServer(t)

	if text := resultText(callTool(t, srv, "get_schema", nil)); !strings.Contains(text, `"relations"`) {
		t.Error("schema tool did not return the schema")
	}
	if text := resultText(callTool(t, srv, "get_document_contract", nil)); !strings.HasPrefix(text, "# Pose-Contact Document Format Contract") {
		t.Error("contract tool did not return the contract")
	}
}

func TestStoredDocumentTools(t *testing.T) {
	srv, dir := testServer(t)
	testutil.WriteDoc(t, dir, "scene.yaml", testutil.ValidYAML)

	r := callTool(t, srv, "list_documents", map[string]any{})
	if text := resultText(r); text != "no documents recorded" {
		t.Errorf("empty ledger = %q", text)
	}

	r = callTool(t, srv, "check_stored_document", map[string]any{"path": "scene.yaml"})
	if text := resultText(r); text != "valid" {
		t.Errorf("check = %q", text)
	}

	r = callTool(t, srv, "save_document", map[string]any{"path": "broken.yaml", "content": testutil.DanglingYAML})
	if text := resultText(r); !strings.HasPrefix(text, "saved: broken.yaml\n/relations/0/object/object") {
		t.Errorf("save = %q", text)
	}

	r = callTool(t, srv, "list_documents", map[string]any{"filter": "invalid"})
	text := resultText(r)
	if !strings.Contains(text, "broken.yaml") || strings.Contains(text, "scene.yaml") {
		t.Errorf("invalid listing = %q", text)
	}
}

func TestCheckStoredDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "check_stored_document", map[string]any{"path": "nope.yaml"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestSchemaResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readSchemaResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != schemaURI || !strings.Contains(tc.Text, "draft-07") {
		t.Errorf("unexpected schema resource: %+v", contents[0])
	}
}
