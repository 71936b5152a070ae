package cookiebridge

import "time"

// SameSite is the cookie SameSite attribute after normalization.
// The empty string means the raw cookie string carried no SameSite attribute;
// parseSetCookie corrects that to SameSiteLax before the record is used.
type SameSite string

const (
	// SameSiteStrict is SameSite=Strict.
	SameSiteStrict SameSite = "strict"
	// SameSiteLax is SameSite=Lax.
	SameSiteLax SameSite = "lax"
	// SameSiteNone is SameSite=None.
	SameSiteNone SameSite = "none"
)

// SameSiteContext classifies the cross-origin relationship of one request
// against the currently loaded top-level page. It is computed once per
// request and immutable afterwards.
type SameSiteContext string

const (
	// ContextStrict: no top page yet, or top page and request share an origin.
	ContextStrict SameSiteContext = "strict"
	// ContextLax: cross-origin, but the request is a top-level/frame navigation.
	ContextLax SameSiteContext = "lax"
	// ContextNone: cross-origin sub-resource request.
	ContextNone SameSiteContext = "none"
)

// Cookie is a parsed cookie record as held by the jar.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite SameSite

	// Expires is nil for session cookies. MaxAge is nil when the Max-Age
	// attribute was absent.
	Expires *time.Time
	MaxAge  *int64
}

// AutomationCookie is the projection handed to the browser-automation layer
// for installation into the real browser's cookie store.
type AutomationCookie struct {
	Domain   string   `json:"domain"`
	Expiry   *int64   `json:"expiry"`
	HTTPOnly bool     `json:"httpOnly"`
	MaxAge   *int64   `json:"maxAge"`
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	SameSite SameSite `json:"sameSite"`
	Secure   bool     `json:"secure"`
	Value    string   `json:"value"`
}

// RejectReason says why a Set-Cookie string was not stored.
type RejectReason string

const (
	// RejectParse: the raw string did not parse as a cookie.
	RejectParse RejectReason = "parse"
	// RejectInsecureNone: SameSite=None without Secure.
	RejectInsecureNone RejectReason = "insecure-none"
	// RejectStore: the underlying store refused the write.
	RejectStore RejectReason = "store"
)

// Disposition is the outcome of processing one Set-Cookie string.
// Rejection is an expected, frequent outcome, not an error.
type Disposition struct {
	Accepted bool
	Reason   RejectReason
}

func accepted() Disposition { return Disposition{Accepted: true} }

func rejected(r RejectReason) Disposition { return Disposition{Reason: r} }
