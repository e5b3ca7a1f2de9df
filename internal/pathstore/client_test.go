package pathstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_PutGetNode(t *testing.T) {
	stored := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := r.URL.Path[len("/kv/"):]
		switch r.Method {
		case http.MethodPut:
			var req NodeRequest
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			value, _ := json.Marshal(req.Value)
			stored[key] = value
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			v, ok := stored[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": json.RawMessage(v)})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	ctx := context.Background()
	if err := c.PutNode(ctx, "uidoc/documents/a/source", NodeRequest{Value: map[string]string{"text": "div;"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, err := c.GetNode(ctx, "uidoc/documents/a/source")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v struct{ Text string }
	if err := json.Unmarshal(node.Value, &v); err != nil || v.Text != "div;" {
		t.Errorf("expected text div;, got %q (%v)", v.Text, err)
	}

	missing, err := c.GetNode(ctx, "uidoc/documents/b/source")
	if err != nil || missing != nil {
		t.Errorf("expected nil node for missing key, got %+v, %v", missing, err)
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.ListChildren(context.Background(), "uidoc/documents", 10)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 error, got %v", err)
	}
}

func TestClient_ListChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kv/uidoc/documents/*" || r.URL.Query().Get("limit") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"nodes":[{"key_path":"uidoc.documents.a.source","value":{}}]}`))
	}))
	defer srv.Close()

	nodes, err := NewClient(srv.URL, "k").ListChildren(context.Background(), "uidoc/documents", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Key != "uidoc.documents.a.source" {
		t.Errorf("unexpected nodes %+v", nodes)
	}
}
