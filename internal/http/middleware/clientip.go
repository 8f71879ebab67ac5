package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type clientIPKey struct{}

// TrustedProxies resolves the client address behind a known set of reverse
// proxies. Forwarding headers are only read when the direct peer is one of
// them.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses CIDRs or bare addresses.
func NewTrustedProxies(cidrs []string) (*TrustedProxies, error) {
	t := &TrustedProxies{}
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", c)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			c = fmt.Sprintf("%s/%d", c, bits)
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", c, err)
		}
		t.nets = append(t.nets, n)
	}
	return t, nil
}

func (t *TrustedProxies) trusted(ip net.IP) bool {
	if t == nil || ip == nil {
		return false
	}
	for _, n := range t.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Resolve returns the right-most X-Forwarded-For hop that is not a trusted
// proxy, then X-Real-IP, then the peer address. Headers from an untrusted
// peer are ignored.
func (t *TrustedProxies) Resolve(r *http.Request) string {
	peer := remoteHost(r)
	if !t.trusted(net.ParseIP(peer)) {
		return peer
	}

	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hops = append(hops, h)
			}
		}
	}
	if len(hops) > 0 {
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(hops[i])
			if ip == nil {
				return peer
			}
			if !t.trusted(ip) || i == 0 {
				return ip.String()
			}
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return peer
}

// Middleware stores the resolved address for ClientIP.
func (t *TrustedProxies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey{}, t.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the address resolved by TrustedProxies.Middleware, or the
// peer address when the request did not pass through it.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
