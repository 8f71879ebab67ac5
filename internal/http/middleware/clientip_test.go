package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func mustTrusted(t *testing.T, cidrs ...string) *TrustedProxies {
	t.Helper()
	tp, err := NewTrustedProxies(cidrs)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return tp
}

func TestTrustedProxies_Resolve(t *testing.T) {
	tp := mustTrusted(t, "10.0.0.0/8", "192.0.2.1")

	tests := []struct {
		name   string
		remote string
		xff    []string
		realIP string
		want   string
	}{
		{"untrusted peer ignores forged XFF", "203.0.113.9:4000", []string{"1.2.3.4"}, "", "203.0.113.9"},
		{"untrusted peer ignores forged X-Real-IP", "203.0.113.9:4000", nil, "1.2.3.4", "203.0.113.9"},
		{"trusted peer uses right-most untrusted hop", "10.0.0.5:4000", []string{"1.2.3.4, 198.51.100.7, 10.1.1.1"}, "", "198.51.100.7"},
		{"multiple header lines", "10.0.0.5:4000", []string{"1.2.3.4", "198.51.100.7"}, "", "198.51.100.7"},
		{"bare address entry", "192.0.2.1:4000", []string{"198.51.100.7"}, "", "198.51.100.7"},
		{"all hops trusted", "10.0.0.5:4000", []string{"10.2.2.2, 10.1.1.1"}, "", "10.2.2.2"},
		{"garbage hop falls back to peer", "10.0.0.5:4000", []string{"not-an-ip"}, "", "10.0.0.5"},
		{"trusted peer X-Real-IP", "10.0.0.5:4000", nil, "198.51.100.2", "198.51.100.2"},
		{"no headers", "10.0.0.5:4000", nil, "", "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/upload-document", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := tp.Resolve(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTrustedProxies_NoneConfigured(t *testing.T) {
	tp := mustTrusted(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := tp.Resolve(req); got != "10.0.0.5" {
		t.Errorf("Expected peer address, got %q", got)
	}
}

func TestNewTrustedProxies_Invalid(t *testing.T) {
	for _, c := range []string{"10.0.0.0/33", "proxy.internal"} {
		if _, err := NewTrustedProxies([]string{c}); err == nil {
			t.Errorf("Expected error for %q", c)
		}
	}
}

func TestClientIP_RecordsPeerForSpoofedHeader(t *testing.T) {
	tp := mustTrusted(t, "10.0.0.0/8")

	var got string
	h := tp.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload-document", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.9" {
		t.Errorf("Expected peer address to be recorded, got %q", got)
	}
}

func TestClientIP_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:51234"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := ClientIP(req); got != "10.0.0.5" {
		t.Errorf("Expected remote host, got %q", got)
	}
}
