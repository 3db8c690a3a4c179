package tool

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPToolName(t *testing.T) {
	if got := NewHTTPTool().Name(); got != "http_request" {
		t.Fatalf("Name() = %q, want http_request", got)
	}
}

func TestHTTPToolGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization header = %q", got)
		}
		w.Header().Set("X-Custom", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	tool := NewHTTPTool()
	result, err := tool.Call(context.Background(), map[string]interface{}{
		"method": "GET",
		"url":    srv.URL,
		"headers": map[string]interface{}{
			"Authorization": "Bearer token",
		},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["status_code"] != http.StatusOK {
		t.Fatalf("status_code = %v, want 200", result["status_code"])
	}
	if result["body"] != "hello" {
		t.Fatalf("body = %v, want hello", result["body"])
	}
	headers, ok := result["headers"].(map[string]interface{})
	if !ok || headers["X-Custom"] != "yes" {
		t.Fatalf("headers = %v", result["headers"])
	}
}

func TestHTTPToolPostWithBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading request body: %v", err)
		}
		if string(body) != `{"x":1}` {
			t.Errorf("unexpected request body: %s", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tool := NewHTTPTool()
	result, err := tool.Call(context.Background(), map[string]interface{}{
		"method": "post",
		"url":    srv.URL,
		"body":   `{"x":1}`,
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["status_code"] != http.StatusCreated {
		t.Fatalf("status_code = %v, want 201", result["status_code"])
	}
}

func TestHTTPToolMissingURL(t *testing.T) {
	tool := NewHTTPTool()
	if _, err := tool.Call(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatalf("expected error for missing url")
	}
}

func TestHTTPToolUnsupportedMethod(t *testing.T) {
	tool := NewHTTPTool()
	_, err := tool.Call(context.Background(), map[string]interface{}{
		"method": "DELETE",
		"url":    "http://example.invalid",
	})
	if err == nil {
		t.Fatalf("expected error for unsupported method")
	}
}

func TestHTTPToolViaRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r := NewRegistry()
	r.Register(NewHTTPTool(), "makes HTTP requests")

	argsJSON, err := json.Marshal(map[string]interface{}{"url": srv.URL})
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}

	out, err := r.Invoke(context.Background(), "http_request", string(argsJSON))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decoding registry output: %v", err)
	}
	if decoded["body"] != "ok" {
		t.Fatalf("body = %v, want ok", decoded["body"])
	}
}
