package cookiebridge

import (
	"net/http"
	"regexp"
	"time"
)

// Matches a literal SameSite=None attribute, case-insensitive, value
// optionally quoted. Anchored on the attribute separator so a cookie value
// containing "samesite=none" does not count.
var sameSiteNoneAttr = regexp.MustCompile(`(?i);\s*samesite\s*=\s*"?none"?\s*(;|$)`)

// parseSetCookie parses a raw Set-Cookie string into a Cookie record.
// Syntactically invalid input returns ok=false, never an error.
//
// An unspecified SameSite attribute is normalized to Lax. Naive parsers that
// default unspecified SameSite to None silently widen the cookie's reach;
// browsers treat unspecified as Lax, so SameSiteNone survives only when the
// raw string literally carries SameSite=None.
func parseSetCookie(raw string) (Cookie, bool) {
	hc, err := http.ParseSetCookie(raw)
	if err != nil {
		return Cookie{}, false
	}

	c := Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Domain:   normalizeHost(hc.Domain),
		Path:     hc.Path,
		Secure:   hc.Secure,
		HTTPOnly: hc.HttpOnly,
		SameSite: correctedSameSite(raw, hc.SameSite),
	}

	if !hc.Expires.IsZero() {
		t := hc.Expires.UTC()
		c.Expires = &t
	}
	c.MaxAge = maxAgeSeconds(hc.MaxAge)

	return c, true
}

func correctedSameSite(raw string, parsed http.SameSite) SameSite {
	switch parsed {
	case http.SameSiteStrictMode:
		return SameSiteStrict
	case http.SameSiteLaxMode:
		return SameSiteLax
	default:
		// Covers both an explicit None and the parser's default mode: only
		// the literal attribute may widen the cookie to none.
		if sameSiteNoneAttr.MatchString(raw) {
			return SameSiteNone
		}
		return SameSiteLax
	}
}

// maxAgeSeconds maps net/http's MaxAge encoding (0 unset, negative for
// Max-Age=0) back to an optional seconds value.
func maxAgeSeconds(ma int) *int64 {
	switch {
	case ma > 0:
		v := int64(ma)
		return &v
	case ma < 0:
		v := int64(0)
		return &v
	default:
		return nil
	}
}

// expiryEpochSeconds converts an absolute expiry to epoch seconds, or nil for
// session cookies and instants a cookie store cannot represent.
func expiryEpochSeconds(expires *time.Time) *int64 {
	if expires == nil {
		return nil
	}
	sec := expires.Unix()
	if sec <= 0 {
		return nil
	}
	return &sec
}
