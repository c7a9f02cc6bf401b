package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/parley-ai/parley/pkg/core/types"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// handleDispatch executes one plugin operation payload against its
// upstream and relays the upstream response verbatim: same status,
// same body, no reshaping.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.reject(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is accepted")
		return
	}
	if err := VerifyToken(s.cfg.Secret, r.URL.Query().Get("token")); err != nil {
		s.reject(w, http.StatusUnauthorized, "bad_token", err.Error())
		return
	}

	var payload types.GatewayPayload
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		s.reject(w, http.StatusBadRequest, "bad_payload", fmt.Sprintf("decode payload: %v", err))
		return
	}

	method := strings.ToUpper(payload.Method)
	if _, ok := allowedMethods[method]; !ok {
		s.reject(w, http.StatusBadRequest, "bad_method", fmt.Sprintf("unsupported method %q", payload.Method))
		return
	}

	target, err := buildTargetURL(payload)
	if err != nil {
		s.reject(w, http.StatusBadRequest, "bad_url", err.Error())
		return
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		s.reject(w, http.StatusBadRequest, "bad_url", fmt.Sprintf("unsupported scheme %q", target.Scheme))
		return
	}
	if !s.cfg.hostAllowed(target.Hostname()) {
		s.reject(w, http.StatusForbidden, "host_not_allowed", fmt.Sprintf("host %q is not allowed", target.Hostname()))
		return
	}

	var reqBody io.Reader
	if len(payload.FormData) > 0 {
		form := url.Values{}
		for k, v := range payload.FormData {
			form.Set(k, v)
		}
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(r.Context(), method, target.String(), reqBody)
	if err != nil {
		s.reject(w, http.StatusBadRequest, "bad_url", err.Error())
		return
	}
	for k, v := range payload.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range payload.Cookie {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := s.upstream.Do(req)
	if err != nil {
		s.logger.Error("upstream dispatch failed", "url", target.String(), "error", err)
		s.metrics.dispatchesTotal.WithLabelValues(method, "error").Inc()
		s.reject(w, http.StatusBadGateway, "upstream_unreachable", err.Error())
		return
	}
	defer resp.Body.Close()

	s.metrics.dispatchDuration.Observe(time.Since(start).Seconds())
	s.metrics.dispatchesTotal.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("relay truncated", "url", target.String(), "error", err)
	}
}

// buildTargetURL substitutes {name} path segments from the payload's
// Path map and attaches query parameters.
func buildTargetURL(p types.GatewayPayload) (*url.URL, error) {
	raw := p.BaseURL
	for name, value := range p.Path {
		raw = strings.ReplaceAll(raw, "{"+name+"}", url.PathEscape(value))
	}
	if i := strings.Index(raw, "{"); i >= 0 {
		return nil, fmt.Errorf("unresolved path template in %q", raw)
	}

	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	if len(p.Query) > 0 {
		q := target.Query()
		for k, v := range p.Query {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}
	return target, nil
}

func (s *Server) reject(w http.ResponseWriter, status int, reason, message string) {
	s.metrics.rejectedTotal.WithLabelValues(reason).Inc()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason, "message": message})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
