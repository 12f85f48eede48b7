package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Nodeflow/internal/secrets"
)

// fakeRun — минимальный RunContext для тестов узлов.
type fakeRun struct {
	vars map[string]any
}

func (r *fakeRun) WorkflowID() string  { return "wf-test" }
func (r *fakeRun) ExecutionID() string { return "exec-test" }

func (r *fakeRun) Variable(name string) (any, bool) {
	v, ok := r.vars[name]
	return v, ok
}

func (r *fakeRun) SetVariable(name string, value any) {
	if r.vars == nil {
		r.vars = make(map[string]any)
	}
	r.vars[name] = value
}

// Registry Tests

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)

	// Пустой реестр
	if r.Count() != 0 {
		t.Errorf("expected empty registry")
	}

	// Регистрация
	r.Register(TransformInfo())
	if r.Count() != 1 {
		t.Errorf("expected 1 type, got %d", r.Count())
	}

	// Создание
	node, err := r.Create(NodeTypeTransform, "t1", map[string]any{"mappings": map[string]any{}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Type() != NodeTypeTransform {
		t.Errorf("expected transform, got %s", node.Type())
	}

	// Несуществующий тип
	_, err = r.Create("unknown", "u1", nil, nil)
	if !errors.Is(err, ErrNodeTypeNotFound) {
		t.Errorf("expected ErrNodeTypeNotFound, got %v", err)
	}

	// Has
	if !r.Has(NodeTypeTransform) {
		t.Error("should have transform")
	}
	if r.Has("unknown") {
		t.Error("should not have unknown")
	}
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry(nil)

	r.Register(TransformInfo())
	r.Register(TypeInfo{
		Type: NodeTypeTransform,
		New: func(nodeID string, config, _ map[string]any) Node {
			return &LoggerNode{id: nodeID, config: config, logger: slog.Default()}
		},
	})

	node, err := r.Create(NodeTypeTransform, "t1", map[string]any{"message": "x"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := node.(*LoggerNode); !ok {
		t.Errorf("expected overriding factory to win, got %T", node)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(nil, slog.Default())

	expectedTypes := []string{
		NodeTypeFileReader, NodeTypeFileWriter, NodeTypeTransform,
		NodeTypeLogger, NodeTypeHTTPRequest,
	}
	for _, typ := range expectedTypes {
		if !r.Has(typ) {
			t.Errorf("default registry should have %s", typ)
		}
	}

	if got := r.Count(); got != len(expectedTypes) {
		t.Errorf("expected %d types, got %d", len(expectedTypes), got)
	}
}

func TestRegistry_ResolvesSecrets(t *testing.T) {
	resolver := secrets.Static{"API_TOKEN": "tok-123"}
	r := NewRegistry(resolver)
	r.Register(HTTPRequestInfo())

	node, err := r.Create(NodeTypeHTTPRequest, "fetch",
		map[string]any{"url": "https://example.com"},
		map[string]any{"auth_type": "bearer", "token": "secret://API_TOKEN"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	httpNode := node.(*HTTPRequestNode)
	if got := GetConfigString(httpNode.credentials, "token"); got != "tok-123" {
		t.Errorf("expected resolved token, got %q", got)
	}
}

func TestRegistry_MissingSecret(t *testing.T) {
	r := NewRegistry(secrets.Static{})
	r.Register(HTTPRequestInfo())

	_, err := r.Create(NodeTypeHTTPRequest, "fetch",
		map[string]any{"url": "https://example.com"},
		map[string]any{"token": "secret://NOPE"},
	)
	if !errors.Is(err, secrets.ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}
}

// FileReader / FileWriter Tests

func TestFileReaderNode_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.json")
	if err := os.WriteFile(path, []byte(`{"count": 3, "ok": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	node := newNode(t, FileReaderInfo(), "read", map[string]any{"path": path})

	outputs, err := node.Execute(context.Background(), map[string]any{}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, ok := outputs["content"].(map[string]any)
	if !ok {
		t.Fatalf("expected parsed JSON, got %T", outputs["content"])
	}
	if content["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", content["count"])
	}
	if outputs["path"] != path {
		t.Errorf("expected path output, got %v", outputs["path"])
	}
}

func TestFileReaderNode_TextAndPathOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	node := newNode(t, FileReaderInfo(), "read", map[string]any{
		"path":   filepath.Join(dir, "missing.txt"),
		"format": "text",
	})

	// Вход "path" переопределяет конфигурацию
	outputs, err := node.Execute(context.Background(), map[string]any{"path": path}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["content"] != "hello" {
		t.Errorf("expected raw text, got %v", outputs["content"])
	}
}

func TestFileReaderNode_InvalidConfig(t *testing.T) {
	node := newNodeRaw(FileReaderInfo(), "read", map[string]any{})
	if err := node.ValidateConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	node = newNodeRaw(FileReaderInfo(), "read", map[string]any{"path": "x", "format": "xml"})
	if err := node.ValidateConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for format, got %v", err)
	}
}

func TestFileWriterNode_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.json")

	node := newNode(t, FileWriterInfo(), "write", map[string]any{"path": path})

	outputs, err := node.Execute(context.Background(), map[string]any{
		"data": map[string]any{"status": "done"},
	}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["path"] != path {
		t.Errorf("expected path output, got %v", outputs["path"])
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON in file: %v", err)
	}
	if decoded["status"] != "done" {
		t.Errorf("expected status done, got %v", decoded["status"])
	}
}

func TestFileWriterNode_SkipsTriggerWithoutKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	node := newNode(t, FileWriterInfo(), "write", map[string]any{"path": path})

	_, err := node.Execute(context.Background(), map[string]any{
		"trigger": map[string]any{"source": "manual"},
		"result":  42,
	}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, _ := os.ReadFile(path)
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, hasTrigger := decoded["trigger"]; hasTrigger {
		t.Error("trigger data should not be written")
	}
	if decoded["result"] != float64(42) {
		t.Errorf("expected result 42, got %v", decoded["result"])
	}
}

// Transform Tests

func TestTransformNode_Mappings(t *testing.T) {
	node := newNode(t, TransformInfo(), "t", map[string]any{
		"mappings": map[string]any{
			"name":    "fetch.body.user.name",
			"missing": "fetch.body.nope.deeper",
		},
	})

	input := map[string]any{
		"fetch": map[string]any{
			"body": map[string]any{
				"user": map[string]any{"name": "alice"},
			},
		},
	}

	outputs, err := node.Execute(context.Background(), input, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["name"] != "alice" {
		t.Errorf("expected alice, got %v", outputs["name"])
	}
	// Отсутствующий путь — nil, не ошибка
	if outputs["missing"] != nil {
		t.Errorf("expected nil for missing path, got %v", outputs["missing"])
	}
}

func TestTransformNode_MergeAndDefaults(t *testing.T) {
	node := newNode(t, TransformInfo(), "t", map[string]any{
		"merge": []any{"a", "b"},
		"defaults": map[string]any{
			"x":      "default-x",
			"source": "nodeflow",
		},
	})

	input := map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": 2},
	}

	outputs, err := node.Execute(context.Background(), input, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// merge кладёт x раньше defaults — default не перетирает
	if outputs["x"] != 1 {
		t.Errorf("expected merged x=1, got %v", outputs["x"])
	}
	if outputs["y"] != 2 {
		t.Errorf("expected merged y=2, got %v", outputs["y"])
	}
	if outputs["source"] != "nodeflow" {
		t.Errorf("expected default source, got %v", outputs["source"])
	}
}

func TestTransformNode_InvalidConfig(t *testing.T) {
	node := newNodeRaw(TransformInfo(), "t", map[string]any{})
	if err := node.ValidateConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

// Logger Tests

func TestLoggerNode_Execute(t *testing.T) {
	node := newNode(t, LoggerInfo(slog.Default()), "log", map[string]any{
		"level":   "info",
		"message": "batch processed",
	})

	outputs, err := node.Execute(context.Background(), map[string]any{"n": 1}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["logged"] != true {
		t.Errorf("expected logged=true, got %v", outputs["logged"])
	}
	if outputs["timestamp"] == nil {
		t.Error("expected timestamp output")
	}
}

// HTTP Tests

func TestHTTPRequestNode_GET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer server.Close()

	node := newNode(t, HTTPRequestInfo(), "fetch", map[string]any{"url": server.URL})

	outputs, err := node.Execute(context.Background(), map[string]any{}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["status_code"] != 200 {
		t.Errorf("expected status_code 200, got %v", outputs["status_code"])
	}
	body, ok := outputs["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body map, got %T", outputs["body"])
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestHTTPRequestNode_POST_BearerAuth(t *testing.T) {
	var receivedAuth string
	var receivedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	info := HTTPRequestInfo()
	node := info.New("post", map[string]any{
		"method": "POST",
		"url":    server.URL,
		"body":   map[string]any{"name": "test"},
	}, map[string]any{
		"auth_type": "bearer",
		"token":     "tok-123",
	})
	if err := node.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}

	outputs, err := node.Execute(context.Background(), map[string]any{}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["status_code"] != 201 {
		t.Errorf("expected status_code 201, got %v", outputs["status_code"])
	}
	if receivedAuth != "Bearer tok-123" {
		t.Errorf("expected bearer auth header, got %q", receivedAuth)
	}
	if receivedBody["name"] != "test" {
		t.Errorf("expected body sent, got %v", receivedBody)
	}
}

func TestHTTPRequestNode_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	node := newNode(t, HTTPRequestInfo(), "fetch", map[string]any{
		"url":           server.URL,
		"max_retries":   3,
		"base_delay_ms": 1,
		"max_delay_ms":  5,
	})

	outputs, err := node.Execute(context.Background(), map[string]any{}, &fakeRun{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if outputs["status_code"] != 200 {
		t.Errorf("expected status_code 200, got %v", outputs["status_code"])
	}
}

func TestHTTPRequestNode_ClientErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	node := newNode(t, HTTPRequestInfo(), "fetch", map[string]any{
		"url":           server.URL,
		"max_retries":   3,
		"base_delay_ms": 1,
	})

	outputs, err := node.Execute(context.Background(), map[string]any{}, &fakeRun{})
	if err != nil {
		t.Fatalf("4xx is a final response, not an error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if outputs["status_code"] != 404 {
		t.Errorf("expected status_code 404, got %v", outputs["status_code"])
	}
}

func TestHTTPRequestNode_ExhaustedRetriesKeepResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	node := newNode(t, HTTPRequestInfo(), "fetch", map[string]any{
		"url":           server.URL,
		"max_retries":   2,
		"base_delay_ms": 1,
	})

	outputs, err := node.Execute(context.Background(), map[string]any{}, &fakeRun{})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if !IsHTTPError(err) {
		t.Errorf("expected HTTPError, got %v", err)
	}
	// Последний ответ всё же возвращается
	if outputs["status_code"] != 503 {
		t.Errorf("expected status_code 503, got %v", outputs["status_code"])
	}
}

func TestHTTPRequestNode_InvalidConfig(t *testing.T) {
	node := newNodeRaw(HTTPRequestInfo(), "fetch", map[string]any{})
	if err := node.ValidateConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing url, got %v", err)
	}

	node = newNodeRaw(HTTPRequestInfo(), "fetch", map[string]any{"url": "x", "method": "FLY"})
	if err := node.ValidateConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for method, got %v", err)
	}
}

// newNode создаёт узел, валидирует конфигурацию и выполняет Setup.
func newNode(t *testing.T, info TypeInfo, id string, config map[string]any) Node {
	t.Helper()
	node := info.New(id, config, nil)
	if err := node.ValidateConfig(); err != nil {
		t.Fatalf("config should be valid: %v", err)
	}
	if err := node.Setup(context.Background()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	t.Cleanup(node.Stop)
	return node
}

// newNodeRaw создаёт узел без валидации — для негативных тестов.
func newNodeRaw(info TypeInfo, id string, config map[string]any) Node {
	return info.New(id, config, nil)
}
