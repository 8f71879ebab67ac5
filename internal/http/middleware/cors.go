package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/princekumarofficial/ingest-service/internal/config"
)

const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, X-Requested-With"
	corsMaxAge       = "86400"
)

// CORS answers preflights against an origin allow-list. Origins that are not
// on the list get the fallback origin, never their own value.
type CORS struct {
	literals map[string]struct{}
	patterns []*regexp.Regexp
	fallback string
}

// NewCORS compiles the configured patterns. Each pattern must match the
// whole Origin header.
func NewCORS(cfg config.CORS) (*CORS, error) {
	c := &CORS{
		literals: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		fallback: cfg.FallbackOrigin,
	}
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			c.literals[strings.TrimRight(o, "/")] = struct{}{}
		}
	}
	for _, p := range cfg.AllowedOriginPatterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid origin pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// Allowed reports whether origin is on the allow-list.
func (c *CORS) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := c.literals[origin]; ok {
		return true
	}
	for _, re := range c.patterns {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

// ResolveOrigin is the value sent in Access-Control-Allow-Origin.
func (c *CORS) ResolveOrigin(origin string) string {
	if c.Allowed(origin) {
		return origin
	}
	return c.fallback
}

// CheckOrigin is used by the websocket upgrader. Requests without an Origin
// header come from non-browser clients and are accepted.
func (c *CORS) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || c.Allowed(origin)
}

func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", c.ResolveOrigin(r.Header.Get("Origin")))
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
