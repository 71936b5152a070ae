package cookiebridge

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// InstallCookies writes cookies into a live browser's native cookie store
// over CDP. ctx must be a chromedp browser context (chromedp.NewContext).
// This is the out-of-band channel that replays ComputeAdded output, since
// the browser never observes the proxy's internal jar by itself.
func InstallCookies(ctx context.Context, cookies []AutomationCookie) error {
	if len(cookies) == 0 {
		return nil
	}
	params := cdpCookieParams(cookies)
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
}

func cdpCookieParams(cookies []AutomationCookie) []*network.CookieParam {
	out := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: cdpSameSite(c.SameSite),
		}
		if c.Expiry != nil {
			t := cdp.TimeSinceEpoch(time.Unix(*c.Expiry, 0))
			p.Expires = &t
		}
		out = append(out, p)
	}
	return out
}

func cdpSameSite(s SameSite) network.CookieSameSite {
	switch s {
	case SameSiteStrict:
		return network.CookieSameSiteStrict
	case SameSiteLax:
		return network.CookieSameSiteLax
	case SameSiteNone:
		return network.CookieSameSiteNone
	default:
		return ""
	}
}
