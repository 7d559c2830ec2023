package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/posecontact/internal/docservice"
	"github.com/starford/posecontact/internal/testutil"
)

// testEnv sets up a temp document dir, SQLite ledger, service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()
	dir, store := testutil.TestDocs(t)
	svc, err := docservice.NewService(store, testutil.TestDB(t), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewRouter(svc, authEnabled, token, sseHandler), dir
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidateInline(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodPost, "/validate", testutil.ValidYAML)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ValidateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Valid || len(resp.Issues) != 0 {
		t.Errorf("expected valid document, got %+v", resp)
	}

	w = do(router, http.MethodPost, "/validate?format=json", `{"actors": []}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp = ValidateResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Valid || len(resp.Issues) != 1 {
		t.Fatalf("expected one issue, got %+v", resp)
	}
	if resp.Issues[0].Path != "/" || resp.Issues[0].Message != "relations is required" {
		t.Errorf("unexpected issue: %+v", resp.Issues[0])
	}
}

func TestValidateInline_SemanticIssue(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodPost, "/validate?format=yaml", testutil.DanglingYAML)
	var resp ValidateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Issues) != 1 || resp.Issues[0].Path != "/relations/0/object/object" {
		t.Fatalf("unexpected issues: %+v", resp.Issues)
	}
}

func TestValidateInline_BadFormat(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodPost, "/validate?format=toml", "a = 1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format = %d, want 400", w.Code)
	}
}

func TestNarrateInline(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodPost, "/narrate", testutil.ValidYAML)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NarrateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.Narrative, "Narrative Projection (non-authoritative):") {
		t.Errorf("unexpected narrative: %q", resp.Narrative)
	}

	w = do(router, http.MethodPost, "/narrate?format=json", `"scalar"`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("non-mapping narrate = %d, want 422", w.Code)
	}
}

func TestPutAndGetDocument(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodPut, "/documents/scene.yaml", testutil.DanglingYAML)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}
	var report ReportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.Valid || report.Path != "scene.yaml" || len(report.Issues) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	w = do(router, http.MethodPut, "/documents/scene.yaml", testutil.ValidYAML)
	if w.Code != http.StatusOK {
		t.Fatalf("second put status = %d", w.Code)
	}

	w = do(router, http.MethodGet, "/documents/scene.yaml", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	report = ReportResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if !report.Valid || report.Checksum == "" {
		t.Errorf("expected valid report with checksum, got %+v", report)
	}
}

func TestPutDocument_Rejects(t *testing.T) {
	router, _ := testEnv(t, "")

	if w := do(router, http.MethodPut, "/documents/notes.txt", "x"); w.Code != http.StatusBadRequest {
		t.Errorf("bad extension = %d, want 400", w.Code)
	}
	if w := do(router, http.MethodPut, "/documents/empty.yaml", ""); w.Code != http.StatusBadRequest {
		t.Errorf("empty body = %d, want 400", w.Code)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/documents/nope.yaml", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	router, dir := testEnv(t, "")
	testutil.WriteDoc(t, dir, "a.yaml", testutil.ValidYAML)
	testutil.WriteDoc(t, dir, "b.yaml", testutil.DanglingYAML)

	_ = do(router, http.MethodGet, "/documents/a.yaml", "")
	_ = do(router, http.MethodGet, "/documents/b.yaml", "")

	w := do(router, http.MethodGet, "/documents", "")
	var resp DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}

	w = do(router, http.MethodGet, "/documents?invalid=true", "")
	resp = DocumentListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Documents[0].Path != "b.yaml" {
		t.Errorf("unexpected invalid list: %+v", resp)
	}
}

func TestNarrateDocument(t *testing.T) {
	router, dir := testEnv(t, "")
	testutil.WriteDoc(t, dir, "scene.yaml", testutil.ValidYAML)

	w := do(router, http.MethodGet, "/narratives/scene.yaml", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Cup (cup)") {
		t.Errorf("narrative missing object label: %s", w.Body.String())
	}
}

func TestLatestRun_None(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/runs/latest", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("latest run = %d, want 404", w.Code)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/schema", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if raw["definitions"] == nil {
		t.Error("schema missing definitions")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(testutil.ValidYAML))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed validate = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	w := do(router, http.MethodGet, "/documents", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/documents", "")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes stream headers and blocks until the request ends.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "secret", blockingSSE)

	w := do(router, http.MethodGet, "/events", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
