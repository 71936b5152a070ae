// Package cookiebridge keeps a proxy-side cookie jar in sync with a real browser.
//
// It mirrors cookies observed on intercepted HTTP traffic into an internal jar,
// applies browser SameSite/Secure admission rules against the current
// cross-origin context, and computes the cookies newly added by a
// request/response exchange so they can be installed into the browser's native
// cookie store out-of-band (e.g. over CDP). It performs no network I/O itself.
package cookiebridge
