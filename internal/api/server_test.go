package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/quintusl/socksd/internal/config"
	"github.com/quintusl/socksd/internal/metrics"
)

type fakeConns struct {
	socks5, http int
}

func (f fakeConns) ActiveConnections() (socks5, http int) {
	return f.socks5, f.http
}

func newTestServer(conns ActiveConnections) (*Server, *mux.Router) {
	cfg := config.Default()
	m := metrics.New()
	s := NewServer(cfg, m, conns)

	mr := mux.NewRouter()
	mr.HandleFunc("/status", s.statusHandler).Methods("GET")
	mr.HandleFunc("/health", s.healthHandler).Methods("GET")
	mr.HandleFunc("/", s.dashboardHandler).Methods("GET")

	return s, mr
}

func TestStatusHandlerReportsListenersAndConnections(t *testing.T) {
	_, mr := newTestServer(fakeConns{socks5: 3, http: 1})

	req := httptest.NewRequest("GET", "/status", nil)
	rr := httptest.NewRecorder()
	mr.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Listen struct {
			Socks5Port int `json:"socks5_port"`
			HTTPPort   int `json:"http_port"`
			APIPort    int `json:"api_port"`
		} `json:"listen"`
		ConnectionsActive struct {
			Socks5 int `json:"socks5"`
			HTTP   int `json:"http"`
		} `json:"connections_active"`
		AuthBackend string `json:"auth_backend"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if body.Listen.Socks5Port != 1080 || body.Listen.HTTPPort != 8080 || body.Listen.APIPort != 9080 {
		t.Errorf("unexpected listen block: %+v", body.Listen)
	}
	if body.ConnectionsActive.Socks5 != 3 || body.ConnectionsActive.HTTP != 1 {
		t.Errorf("unexpected connection counts: %+v", body.ConnectionsActive)
	}
	if body.AuthBackend != config.BackendNone {
		t.Errorf("expected auth backend %q, got %q", config.BackendNone, body.AuthBackend)
	}
}

func TestHealthHandlerAlwaysHealthy(t *testing.T) {
	_, mr := newTestServer(fakeConns{})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	mr.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %q", body["status"])
	}
}

func TestDashboardHandlerServesHTML(t *testing.T) {
	_, mr := newTestServer(fakeConns{})

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	mr.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if rr.Body.Len() == 0 {
		t.Error("expected non-empty dashboard body")
	}
}

func TestStatusHandlerHandlesNilConns(t *testing.T) {
	_, mr := newTestServer(nil)

	req := httptest.NewRequest("GET", "/status", nil)
	rr := httptest.NewRecorder()
	mr.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 even with nil conns, got %d", rr.Code)
	}
}
