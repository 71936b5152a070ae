package cookiebridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrStoreRead wraps failures reading the underlying cookie store. Unlike
// write refusals it is a hard failure: a broken read means synchronization
// cannot proceed safely for this request.
var ErrStoreRead = errors.New("cookiebridge: cookie store read failed")

// ErrStoreWrite wraps refusals by the underlying cookie store to admit a
// cookie. Store implementations return errors wrapping it; callers inside
// this package convert them to diagnostics, never hard failures.
var ErrStoreWrite = errors.New("cookiebridge: cookie store rejected write")

// Store is the persistent cookie store the engine adapts. Implementations
// must be safe for concurrent use by multiple in-flight requests.
type Store interface {
	// GetAllCookies enumerates the whole store in its natural order.
	GetAllCookies(ctx context.Context) ([]Cookie, error)

	// SetCookie parses raw and admits it for u. The store evaluates its own
	// admission rules (domain match, SameSite rules) against ssc, the
	// cross-origin classification of the request doing the write.
	SetCookie(ctx context.Context, raw string, u *url.URL, ssc SameSiteContext) error
}

// jarAdapter wraps a Store with the read/write failure asymmetry the engine
// relies on: reads propagate as ErrStoreRead, writes degrade to diagnostics.
type jarAdapter struct {
	store Store
}

func (j jarAdapter) getAll(ctx context.Context) ([]Cookie, error) {
	cookies, err := j.store.GetAllCookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	return cookies, nil
}

// setOne returns the store's refusal, if any, for the caller to record as a
// diagnostic. It never wraps into a hard failure.
func (j jarAdapter) setOne(ctx context.Context, raw string, u *url.URL, ssc SameSiteContext) error {
	return j.store.SetCookie(ctx, raw, u, ssc)
}
