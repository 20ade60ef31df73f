package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/coordinator"
	"github.com/pv/camfleet-go/internal/journal"
)

func newTestServer(t *testing.T) (http.Handler, *coordinator.Coordinator) {
	t.Helper()

	jrnl := journal.NewManager(journal.NewMemoryBackend(), 1000)
	if err := jrnl.Start(); err != nil {
		t.Fatalf("journal start failed: %v", err)
	}
	t.Cleanup(func() { jrnl.Stop() })

	coord := coordinator.New(nil, nil, jrnl)
	hub := NewSSEHub()
	Bind(coord, hub)

	handlers := NewHandlers(coord, jrnl, netip.MustParsePrefix("192.168.0.0/16"))
	return NewServer(handlers, hub), coord
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAddAndListServers(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, "POST", "/api/servers",
		`{"addresses": "192.168.0.1-192.168.0.3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}

	var addResp struct {
		Added     []string `json:"added"`
		Duplicate []string `json:"duplicate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &addResp); err != nil {
		t.Fatalf("invalid add response: %v", err)
	}
	if len(addResp.Added) != 3 {
		t.Fatalf("added = %v", addResp.Added)
	}

	// Re-adding one reports it as duplicate, not an error
	rec = doJSON(t, server, "POST", "/api/servers", `{"addresses": "192.168.0.2"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &addResp); err != nil {
		t.Fatalf("invalid add response: %v", err)
	}
	if len(addResp.Added) != 0 || len(addResp.Duplicate) != 1 {
		t.Errorf("added=%v duplicate=%v", addResp.Added, addResp.Duplicate)
	}

	rec = doJSON(t, server, "GET", "/api/servers", "")
	var listResp struct {
		Servers []struct {
			Address string `json:"address"`
			Status  string `json:"status"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if len(listResp.Servers) != 3 || listResp.Servers[0].Status != "unknown" {
		t.Errorf("servers = %+v", listResp.Servers)
	}
}

func TestAddServersOutsideNetwork(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, "POST", "/api/servers", `{"addresses": "10.1.2.3"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSelectionAndMove(t *testing.T) {
	server, _ := newTestServer(t)

	doJSON(t, server, "POST", "/api/servers", `{"addresses": "192.168.0.1-192.168.0.4"}`)
	doJSON(t, server, "POST", "/api/selection",
		`{"addresses": ["192.168.0.2", "192.168.0.4"]}`)

	rec := doJSON(t, server, "POST", "/api/move/top", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d, body %s", rec.Code, rec.Body.String())
	}

	var moveResp struct {
		Servers []struct {
			Address string `json:"address"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &moveResp); err != nil {
		t.Fatalf("invalid move response: %v", err)
	}
	want := []string{"192.168.0.2", "192.168.0.4", "192.168.0.1", "192.168.0.3"}
	for i, w := range want {
		if moveResp.Servers[i].Address != w {
			t.Fatalf("order = %+v, want %v", moveResp.Servers, want)
		}
	}

	// A second move/top is now pointless and rejected
	rec = doJSON(t, server, "POST", "/api/move/top", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("repeated move status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, server, "POST", "/api/move/sideways", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d, want 400", rec.Code)
	}
}

func TestInvokeActionConflict(t *testing.T) {
	server, coord := newTestServer(t)

	doJSON(t, server, "POST", "/api/servers", `{"addresses": "192.168.0.1,192.168.0.2"}`)
	doJSON(t, server, "POST", "/api/selection", `{"addresses": ["192.168.0.1"]}`)

	rec := doJSON(t, server, "POST", "/api/actions/capture", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("capture status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Same selection, still in flight: rejected
	rec = doJSON(t, server, "POST", "/api/actions/capture", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("conflicting capture status = %d, want 409", rec.Code)
	}

	coord.Complete(actions.Capture, []string{"192.168.0.1"}, nil)
	rec = doJSON(t, server, "POST", "/api/actions/capture", "")
	if rec.Code != http.StatusOK {
		t.Errorf("capture after completion status = %d", rec.Code)
	}
}

func TestInvokeUnknownAction(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, "POST", "/api/actions/reboot", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetActions(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, "GET", "/api/actions", "")
	var resp struct {
		Actions map[string]bool `json:"actions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid actions response: %v", err)
	}
	if !resp.Actions["find"] {
		t.Error("find should always be enabled")
	}
	if resp.Actions["capture"] {
		t.Error("capture should be disabled with nothing selected")
	}
}

func TestJournalEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	doJSON(t, server, "POST", "/api/servers", `{"addresses": "192.168.0.1"}`)
	doJSON(t, server, "POST", "/api/selection", `{"addresses": ["192.168.0.1"]}`)
	doJSON(t, server, "POST", "/api/actions/identify", "")

	rec := doJSON(t, server, "GET", "/api/journal?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("journal status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "identify") {
		t.Errorf("journal CSV missing dispatch: %q", rec.Body.String())
	}

	rec = doJSON(t, server, "GET", "/api/journal/stats", "")
	var stats struct {
		RecordCount int64 `json:"recordCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid stats response: %v", err)
	}
	if stats.RecordCount != 1 {
		t.Errorf("RecordCount = %d, want 1", stats.RecordCount)
	}
}
