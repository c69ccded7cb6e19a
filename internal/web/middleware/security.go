package middleware

import (
	"net/http"

	"github.com/unrolled/secure"

	"github.com/albaseet/catalog/internal/config"
)

// Secure sets the standard security headers on every response.
func Secure(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.SSLRedirect,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	}
	if cfg.EnableCSP {
		opts.ContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	}
	return secure.New(opts).Handler
}
