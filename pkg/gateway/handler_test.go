package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/parley-ai/parley/pkg/core/types"
)

func testConfig(allowedHosts ...string) Config {
	hosts := make(map[string]struct{})
	for _, h := range allowedHosts {
		hosts[h] = struct{}{}
	}
	return Config{
		Addr:            ":0",
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		AllowedHosts:    hosts,
		MaxBodyBytes:    1 << 20,
		UpstreamTimeout: 5 * time.Second,
	}
}

func newTestServer(cfg Config) *Server {
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dispatch(t *testing.T, s *Server, token string, payload types.GatewayPayload) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/gateway?token="+url.QueryEscape(token), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDispatch_RelaysVerbatim(t *testing.T) {
	var seen *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"odd":"status and body pass through untouched"}`))
	}))
	defer upstream.Close()

	s := newTestServer(testConfig())
	token := SignToken("test-secret", time.Now().Add(time.Hour))

	rec := dispatch(t, s, token, types.GatewayPayload{
		BaseURL: upstream.URL + "/forecast/{city}",
		Method:  "GET",
		Path:    map[string]string{"city": "Oslo"},
		Query:   map[string]string{"days": "3"},
		Headers: map[string]string{"X-Api-Version": "2024-01"},
		Cookie:  map[string]string{"session": "abc"},
	})

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want upstream's %d", rec.Code, http.StatusTeapot)
	}
	if rec.Body.String() != `{"odd":"status and body pass through untouched"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
	if seen == nil {
		t.Fatal("upstream never called")
	}
	if seen.URL.Path != "/forecast/Oslo" {
		t.Errorf("upstream path = %q", seen.URL.Path)
	}
	if seen.URL.Query().Get("days") != "3" {
		t.Errorf("upstream query = %q", seen.URL.RawQuery)
	}
	if seen.Header.Get("X-Api-Version") != "2024-01" {
		t.Errorf("upstream headers = %v", seen.Header)
	}
	if c, err := seen.Cookie("session"); err != nil || c.Value != "abc" {
		t.Errorf("upstream cookie = %v, %v", c, err)
	}
}

func TestDispatch_FormDataBody(t *testing.T) {
	var form url.Values
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		form = r.PostForm
		w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	s := newTestServer(testConfig())
	token := SignToken("test-secret", time.Now().Add(time.Hour))

	rec := dispatch(t, s, token, types.GatewayPayload{
		BaseURL:  upstream.URL + "/reports",
		Method:   "POST",
		FormData: map[string]string{"city": "Oslo", "details": "windy"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if form.Get("city") != "Oslo" || form.Get("details") != "windy" {
		t.Errorf("upstream form = %v", form)
	}
}

func TestDispatch_RejectsBadToken(t *testing.T) {
	s := newTestServer(testConfig())

	rec := dispatch(t, s, "not-a-token", types.GatewayPayload{
		BaseURL: "https://example.test/x",
		Method:  "GET",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	expired := SignToken("test-secret", time.Now().Add(-time.Minute))
	rec = dispatch(t, s, expired, types.GatewayPayload{
		BaseURL: "https://example.test/x",
		Method:  "GET",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token status = %d, want 401", rec.Code)
	}
}

func TestDispatch_RejectsDisallowedHost(t *testing.T) {
	s := newTestServer(testConfig("api.weather.test"))
	token := SignToken("test-secret", time.Now().Add(time.Hour))

	rec := dispatch(t, s, token, types.GatewayPayload{
		BaseURL: "https://evil.test/exfil",
		Method:  "GET",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestDispatch_RejectsBadPayloads(t *testing.T) {
	s := newTestServer(testConfig())
	token := SignToken("test-secret", time.Now().Add(time.Hour))

	rec := dispatch(t, s, token, types.GatewayPayload{
		BaseURL: "https://example.test/x",
		Method:  "TRACE",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad method status = %d, want 400", rec.Code)
	}

	rec = dispatch(t, s, token, types.GatewayPayload{
		BaseURL: "https://example.test/forecast/{city}",
		Method:  "GET",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unresolved template status = %d, want 400", rec.Code)
	}

	rec = dispatch(t, s, token, types.GatewayPayload{
		BaseURL: "ftp://example.test/x",
		Method:  "GET",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad scheme status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
