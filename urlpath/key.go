package urlpath

import (
	"net/url"
	"strings"
)

// Key is the normalized (host, root-relative URL) identity of a node URL.
//
// Both fields are stored lowercased so that a Key compares case-insensitively
// with == and can be used directly as a map key. RootRelativeURL never
// contains a fragment.
type Key struct {
	HostName        string
	RootRelativeURL string
}

// Resolver turns application-relative paths into root-relative ones.
type Resolver struct {
	// AppRoot is the virtual application root ("/" when empty).
	AppRoot string
}

// MakeKey builds a Key from a URL or path and a host hint.
//
// Classification order:
//  1. app-relative ("~/x") or absolute physical ("/x") path: resolved to
//     root-relative form against AppRoot; host is the hint.
//  2. absolute URL with a scheme: host and path+query are extracted, the
//     fragment is dropped; the hint is ignored.
//  3. anything else is treated as already root-relative.
func (r Resolver) MakeKey(urlOrPath, hostHint string) Key {
	u := StripFragment(strings.TrimSpace(urlOrPath))
	switch {
	case IsAppRelative(u):
		return newKey(hostHint, ResolveAppRelative(r.AppRoot, u))
	case IsAbsoluteURL(u):
		parsed, err := url.Parse(withScheme(u))
		if err != nil {
			return newKey(hostHint, u)
		}
		rel := parsed.EscapedPath()
		if rel == "" {
			rel = "/"
		}
		if parsed.RawQuery != "" {
			rel += "?" + parsed.RawQuery
		}
		return newKey(parsed.Host, rel)
	default:
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		return newKey(hostHint, u)
	}
}

// MakeKey builds a Key with the default ("/") application root.
func MakeKey(urlOrPath, hostHint string) Key {
	return Resolver{}.MakeKey(urlOrPath, hostHint)
}

func newKey(host, rel string) Key {
	return Key{
		HostName:        NormalizeHost(host),
		RootRelativeURL: strings.ToLower(rel),
	}
}

// WithoutHost returns a copy of k with an empty host.
func (k Key) WithoutHost() Key {
	return Key{RootRelativeURL: k.RootRelativeURL}
}

// WithoutQuery returns a copy of k with the query string removed.
func (k Key) WithoutQuery() Key {
	p, _ := SplitQuery(k.RootRelativeURL)
	return Key{HostName: k.HostName, RootRelativeURL: p}
}

// HasQuery reports whether the key's URL carries a query string.
func (k Key) HasQuery() bool {
	return strings.IndexByte(k.RootRelativeURL, '?') >= 0
}

// Equal reports case-insensitive equality on both fields.
func (k Key) Equal(other Key) bool {
	return strings.EqualFold(k.HostName, other.HostName) &&
		strings.EqualFold(k.RootRelativeURL, other.RootRelativeURL)
}

// Hash combines the case-folded fields order-sensitively.
func (k Key) Hash() uint64 {
	const prime = 1099511628211
	h := uint64(17)
	h = h*prime ^ foldHash(k.HostName)
	h = h*prime ^ foldHash(k.RootRelativeURL)
	return h
}

func foldHash(s string) uint64 {
	h := uint64(14695981039346656037)
	for _, r := range strings.ToLower(s) {
		h ^= uint64(r)
		h *= 1099511628211
	}
	return h
}

// String renders the key as host + path, or just the path when hostless.
func (k Key) String() string {
	if k.HostName == "" {
		return k.RootRelativeURL
	}
	return "//" + k.HostName + k.RootRelativeURL
}
