package cookiebridge

import (
	"net/url"
	"strings"
)

// resolveSameSiteContext classifies the request's cross-origin relationship.
// topURL is nil on the first navigation of a session, which counts as
// same-site. Pure function of its inputs.
func resolveSameSiteContext(topURL, requestURL *url.URL, isTopFrameRequest bool) SameSiteContext {
	if topURL == nil || sameOrigin(topURL, requestURL) {
		return ContextStrict
	}
	if isTopFrameRequest {
		// Top-level navigations get relaxed treatment, matching browsers.
		return ContextLax
	}
	return ContextNone
}

// sameOrigin reports whether two URLs share scheme, host and port, with
// scheme-default ports normalized.
func sameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	if !strings.EqualFold(a.Scheme, b.Scheme) {
		return false
	}
	if normalizeHost(a.Hostname()) != normalizeHost(b.Hostname()) {
		return false
	}
	return effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		return "443"
	case "http", "ws":
		return "80"
	default:
		return ""
	}
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, ".")
	return strings.ToLower(host)
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path[0] != '/' {
		return "/"
	}
	return path
}

// hostMatchesCookieDomain reports whether a request host is covered by a
// cookie Domain attribute (exact match or subdomain).
func hostMatchesCookieDomain(host, cookieDomain string) bool {
	host = normalizeHost(host)
	cookieDomain = normalizeHost(cookieDomain)
	if host == "" || cookieDomain == "" {
		return false
	}
	if host == cookieDomain {
		return true
	}
	return strings.HasSuffix(host, "."+cookieDomain)
}
