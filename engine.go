package cookiebridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// EngineConfig is supplied by the proxy layer for one intercepted request.
type EngineConfig struct {
	// Store is the shared persistent jar. Required.
	Store Store

	// TopURL is the URL currently loaded in the top frame, empty on the
	// first navigation of a session.
	TopURL string

	// RequestURL is the URL of the request being intercepted. Required.
	RequestURL string

	// IsTopFrameRequest marks the request as a top-level/frame navigation.
	IsTopFrameRequest bool

	// NeedsCrossOriginHandling enables the before/after snapshot diff.
	// When false, CaptureBefore and ComputeAdded never touch the store.
	NeedsCrossOriginHandling bool
}

// Engine synchronizes cookies for a single intercepted request. Create one
// per request with NewEngine and discard it after ComputeAdded.
//
// The surrounding pipeline supplies the ordering barriers: CaptureBefore runs
// before the request is dispatched, ProcessSetCookie as response headers are
// seen, ComputeAdded after the response is done. Cross-request interleaving
// on the shared jar can surface another request's cookies in ComputeAdded;
// that is accepted, the browser's own jar stays the source of truth.
type Engine struct {
	jar        jarAdapter
	requestURL *url.URL
	ssc        SameSiteContext
	crossOrig  bool

	previous []Cookie
	warnings []string
}

// NewEngine builds the per-request engine and resolves the SameSiteContext
// once, holding it for the lifetime of the request's cookie operations.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("cookiebridge: EngineConfig.Store is required")
	}
	reqURL, err := url.Parse(cfg.RequestURL)
	if err != nil || reqURL.Scheme == "" || reqURL.Hostname() == "" {
		return nil, fmt.Errorf("cookiebridge: request URL %q must include scheme and host", cfg.RequestURL)
	}

	var topURL *url.URL
	if strings.TrimSpace(cfg.TopURL) != "" {
		topURL, err = url.Parse(cfg.TopURL)
		if err != nil {
			return nil, fmt.Errorf("cookiebridge: invalid top URL %q: %w", cfg.TopURL, err)
		}
	}

	return &Engine{
		jar:        jarAdapter{store: cfg.Store},
		requestURL: reqURL,
		ssc:        resolveSameSiteContext(topURL, reqURL, cfg.IsTopFrameRequest),
		crossOrig:  cfg.NeedsCrossOriginHandling,
	}, nil
}

// Context returns the SameSiteContext resolved at construction.
func (e *Engine) Context() SameSiteContext { return e.ssc }

// Warnings returns diagnostics accumulated so far (store write refusals).
func (e *Engine) Warnings() []string { return e.warnings }

// ProcessSetCookie runs one raw Set-Cookie string through the acceptance
// gate and, if it passes, writes it into the jar under the request's
// SameSiteContext. It never fails the surrounding request: every outcome is
// a Disposition, store refusals additionally land in Warnings.
func (e *Engine) ProcessSetCookie(ctx context.Context, raw string) Disposition {
	c, ok := parseSetCookie(raw)
	if !ok {
		return rejected(RejectParse)
	}

	// Browsers never set SameSite=None cookies that are not Secure.
	if c.SameSite == SameSiteNone && !c.Secure {
		return rejected(RejectInsecureNone)
	}

	if err := e.jar.setOne(ctx, raw, e.requestURL, e.ssc); err != nil {
		e.warnings = append(e.warnings, fmt.Sprintf("cookiebridge: cookie %q not stored: %v", c.Name, err))
		return rejected(RejectStore)
	}
	return accepted()
}

// CaptureBefore snapshots the jar ahead of dispatching the request. When the
// request does not need cross-origin handling this is a no-op. Call it at
// most once before ComputeAdded; calling it again refreshes the snapshot.
func (e *Engine) CaptureBefore(ctx context.Context) error {
	if !e.crossOrig {
		return nil
	}
	cookies, err := e.jar.getAll(ctx)
	if err != nil {
		return err
	}
	e.previous = cookies
	return nil
}

// ComputeAdded re-snapshots the jar and returns every cookie present now but
// absent from the CaptureBefore snapshot, in the store's enumeration order,
// projected for the automation layer. Records are compared field-wise by
// canonical key, never by identity. When the request does not need
// cross-origin handling it returns an empty slice without reading the store.
func (e *Engine) ComputeAdded(ctx context.Context) ([]AutomationCookie, error) {
	if !e.crossOrig {
		return nil, nil
	}
	after, err := e.jar.getAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(e.previous))
	for _, c := range e.previous {
		seen[canonicalKey(c)] = struct{}{}
	}

	added := make([]AutomationCookie, 0)
	for _, c := range after {
		if _, ok := seen[canonicalKey(c)]; ok {
			continue
		}
		added = append(added, e.toAutomationCookie(c))
	}

	// The diff is consumed exactly once; fold the new snapshot in so a second
	// call without intervening writes reports nothing.
	e.previous = after
	return added, nil
}

// canonicalKey builds the deterministic comparison key for snapshot diffing:
// sorted key=value pairs over the (name, value, domain, path) 4-tuple.
func canonicalKey(c Cookie) string {
	pairs := []string{
		"domain=" + c.Domain,
		"key=" + c.Name,
		"path=" + c.Path,
		"value=" + c.Value,
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\x00")
}

func (e *Engine) toAutomationCookie(c Cookie) AutomationCookie {
	domain := c.Domain
	if domain == "" {
		domain = normalizeHost(e.requestURL.Hostname())
	}
	return AutomationCookie{
		Domain:   domain,
		Expiry:   expiryEpochSeconds(c.Expires),
		HTTPOnly: c.HTTPOnly,
		MaxAge:   c.MaxAge,
		Name:     c.Name,
		Path:     normalizePath(c.Path),
		SameSite: c.SameSite,
		Secure:   c.Secure,
		Value:    c.Value,
	}
}
