package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/RianMcHale/Container-Security-Scanner/internal/store"
)

type stubInvoker struct {
	report json.RawMessage
	err    error
	calls  int
}

func (s *stubInvoker) Scan(_ context.Context, _ string) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func newTestServer(t *testing.T, inv *stubInvoker) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatal(err)
	}
	return New("127.0.0.1:0", st, inv, zap.NewNop().Sugar()), st
}

func do(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

const sampleReport = `{"Results":[{"Target":"alpine","Vulnerabilities":[{"Severity":"HIGH"},{"Severity":"high"},{"Severity":"CRITICAL"}]}]}`

func TestCreateScan(t *testing.T) {
	srv, _ := newTestServer(t, &stubInvoker{report: json.RawMessage(sampleReport)})

	w := do(t, srv, http.MethodPost, "/scan", []byte(`{"image": "alpine:3.19"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID        int64          `json:"id"`
		Image     string         `json:"image"`
		CreatedAt string         `json:"created_at"`
		Summary   map[string]int `json:"summary"`
	}
	decode(t, w, &resp)

	if resp.ID == 0 {
		t.Error("expected a non-zero id")
	}
	if resp.Image != "alpine:3.19" {
		t.Errorf("expected image echoed back, got %q", resp.Image)
	}
	if resp.CreatedAt == "" {
		t.Error("expected created_at to be set")
	}
	if resp.Summary["HIGH"] != 2 || resp.Summary["CRITICAL"] != 1 {
		t.Errorf("unexpected summary: %v", resp.Summary)
	}
}

func TestCreateScanMissingImage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty_object", `{}`},
		{"empty_image", `{"image": ""}`},
		{"whitespace_image", `{"image": "   "}`},
		{"malformed_body", `{nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &stubInvoker{report: json.RawMessage(`{}`)}
			srv, st := newTestServer(t, inv)

			w := do(t, srv, http.MethodPost, "/scan", []byte(tt.body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if inv.calls != 0 {
				t.Error("scanner must not run for invalid input")
			}
			n, err := st.Count(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if n != 0 {
				t.Errorf("expected no records created, got %d", n)
			}
		})
	}
}

func TestCreateScanInvokerFailure(t *testing.T) {
	srv, st := newTestServer(t, &stubInvoker{err: fmt.Errorf("trivy exploded")})

	w := do(t, srv, http.MethodPost, "/scan", []byte(`{"image": "alpine:3.19"}`))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	decode(t, w, &resp)
	if resp.Error != "trivy exploded" {
		t.Errorf("expected diagnostic message surfaced, got %q", resp.Error)
	}

	n, err := st.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("failed scan must not persist a record, got %d", n)
	}
}

func TestListScansNewestFirst(t *testing.T) {
	srv, _ := newTestServer(t, &stubInvoker{report: json.RawMessage(sampleReport)})

	for _, img := range []string{"one", "two", "three"} {
		w := do(t, srv, http.MethodPost, "/scan", []byte(`{"image": "`+img+`"}`))
		if w.Code != http.StatusCreated {
			t.Fatalf("setup scan failed: %d", w.Code)
		}
	}

	w := do(t, srv, http.MethodGet, "/scans", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp []struct {
		ID     int64           `json:"id"`
		Image  string          `json:"image"`
		Report json.RawMessage `json:"report"`
	}
	decode(t, w, &resp)

	if len(resp) != 3 {
		t.Fatalf("expected 3 scans, got %d", len(resp))
	}
	ids := []int64{resp[0].ID, resp[1].ID, resp[2].ID}
	if !reflect.DeepEqual(ids, []int64{3, 2, 1}) {
		t.Errorf("expected ids [3 2 1], got %v", ids)
	}
	for _, item := range resp {
		if len(item.Report) != 0 {
			t.Error("list response must not include full reports")
		}
	}
}

func TestGetScanDetail(t *testing.T) {
	srv, _ := newTestServer(t, &stubInvoker{report: json.RawMessage(sampleReport)})

	w := do(t, srv, http.MethodPost, "/scan", []byte(`{"image": "alpine:3.19"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("setup scan failed: %d", w.Code)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &created)

	w = do(t, srv, http.MethodGet, fmt.Sprintf("/scans/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var detail struct {
		ID      int64           `json:"id"`
		Image   string          `json:"image"`
		Summary map[string]int  `json:"summary"`
		Report  json.RawMessage `json:"report"`
	}
	decode(t, w, &detail)

	if detail.ID != created.ID || detail.Image != "alpine:3.19" {
		t.Errorf("unexpected detail fields: %+v", detail)
	}
	if detail.Summary["HIGH"] != 2 {
		t.Errorf("unexpected summary: %v", detail.Summary)
	}

	// The stored report must deep-equal the originally parsed document.
	var want, got any
	if err := json.Unmarshal([]byte(sampleReport), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(detail.Report, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("report did not round-trip:\nwant %v\ngot  %v", want, got)
	}
}

func TestGetScanNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubInvoker{report: json.RawMessage(`{}`)})

	for _, path := range []string{"/scans/42", "/scans/notanumber"} {
		w := do(t, srv, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubInvoker{})

	w := do(t, srv, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
