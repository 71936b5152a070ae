package cookiebridge

import "testing"

func TestResolveSameSiteContext_SameOriginIsStrict(t *testing.T) {
	top := mustURL(t, "https://a.com/page")
	req := mustURL(t, "https://a.com/api/x")
	for _, topFrame := range []bool{false, true} {
		if got := resolveSameSiteContext(top, req, topFrame); got != ContextStrict {
			t.Fatalf("same origin, topFrame=%v: want strict got %q", topFrame, got)
		}
	}
}

func TestResolveSameSiteContext_NoTopURLIsStrict(t *testing.T) {
	req := mustURL(t, "https://a.com/")
	for _, topFrame := range []bool{false, true} {
		if got := resolveSameSiteContext(nil, req, topFrame); got != ContextStrict {
			t.Fatalf("no top URL, topFrame=%v: want strict got %q", topFrame, got)
		}
	}
}

func TestResolveSameSiteContext_CrossOrigin(t *testing.T) {
	top := mustURL(t, "https://a.com/")
	req := mustURL(t, "https://b.com/x")
	if got := resolveSameSiteContext(top, req, true); got != ContextLax {
		t.Fatalf("cross-origin navigation: want lax got %q", got)
	}
	if got := resolveSameSiteContext(top, req, false); got != ContextNone {
		t.Fatalf("cross-origin sub-resource: want none got %q", got)
	}
}

func TestResolveSameSiteContext_SchemeAndPortMatter(t *testing.T) {
	top := mustURL(t, "https://a.com/")
	if got := resolveSameSiteContext(top, mustURL(t, "http://a.com/"), false); got != ContextNone {
		t.Fatalf("scheme mismatch: want none got %q", got)
	}
	if got := resolveSameSiteContext(top, mustURL(t, "https://a.com:8443/"), false); got != ContextNone {
		t.Fatalf("port mismatch: want none got %q", got)
	}
}

func TestSameOrigin_DefaultPorts(t *testing.T) {
	if !sameOrigin(mustURL(t, "https://a.com/"), mustURL(t, "https://a.com:443/x")) {
		t.Fatalf("443 is the https default port")
	}
	if !sameOrigin(mustURL(t, "http://a.com/"), mustURL(t, "http://a.com:80/x")) {
		t.Fatalf("80 is the http default port")
	}
	if sameOrigin(mustURL(t, "https://a.com/"), mustURL(t, "https://www.a.com/")) {
		t.Fatalf("subdomains are distinct origins")
	}
}

func TestHostMatchesCookieDomain(t *testing.T) {
	if !hostMatchesCookieDomain("app.example.com", "example.com") {
		t.Fatalf("subdomain must match parent cookie domain")
	}
	if !hostMatchesCookieDomain("example.com", ".example.com") {
		t.Fatalf("leading dot is ignored")
	}
	if hostMatchesCookieDomain("badexample.com", "example.com") {
		t.Fatalf("suffix without dot boundary must not match")
	}
	if hostMatchesCookieDomain("example.com", "app.example.com") {
		t.Fatalf("parent must not match subdomain cookie domain")
	}
}
