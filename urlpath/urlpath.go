package urlpath

import (
	"net"
	"net/url"
	"path"
	"strings"
)

// IsAbsoluteURL reports whether u carries a scheme and host (http://x/...).
// Protocol-relative URLs ("//host/path") are treated as absolute.
func IsAbsoluteURL(u string) bool {
	if strings.HasPrefix(u, "//") {
		return true
	}
	i := strings.Index(u, "://")
	if i <= 0 {
		return false
	}
	for _, r := range u[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// IsAppRelative reports whether p is an application-relative path ("~/..." or "~").
func IsAppRelative(p string) bool {
	return p == "~" || strings.HasPrefix(p, "~/")
}

// ResolveAppRelative converts an application-relative path to a root-relative
// one using appRoot (e.g. "/shop"). Other inputs are returned unchanged.
func ResolveAppRelative(appRoot, p string) string {
	if !IsAppRelative(p) {
		return p
	}
	root := "/" + strings.Trim(appRoot, "/")
	rest := strings.TrimPrefix(strings.TrimPrefix(p, "~"), "/")
	if rest == "" {
		if root == "/" {
			return "/"
		}
		return root + "/"
	}
	return JoinRoot(root, rest)
}

// JoinRoot joins a root-relative base and a relative remainder without
// collapsing query strings.
func JoinRoot(base, rest string) string {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return "/" + rest
	}
	return base + "/" + rest
}

// StripFragment removes everything from the first '#'.
func StripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

// SplitQuery splits u into its path and query parts (the query keeps no '?').
func SplitQuery(u string) (string, string) {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i], u[i+1:]
	}
	return u, ""
}

// NormalizeHost lowercases host and drops default ports.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, port, err := net.SplitHostPort(host); err == nil && (port == "80" || port == "443") {
		return h
	}
	return host
}

// HostsEqual compares two host names ignoring case and default ports.
func HostsEqual(a, b string) bool {
	return NormalizeHost(a) == NormalizeHost(b)
}

// IsExternalURL reports whether u is absolute and points at a host other
// than requestHost.
func IsExternalURL(u, requestHost string) bool {
	if !IsAbsoluteURL(u) {
		return false
	}
	parsed, err := url.Parse(withScheme(u))
	if err != nil {
		return true
	}
	return !HostsEqual(parsed.Host, requestHost)
}

// MakeAbsolute builds protocol://host/rootRelative. Empty protocol defaults to http.
func MakeAbsolute(protocol, host, rootRelative string) string {
	if IsAbsoluteURL(rootRelative) {
		return rootRelative
	}
	if protocol == "" || protocol == "*" {
		protocol = "http"
	}
	if !strings.HasPrefix(rootRelative, "/") {
		rootRelative = "/" + rootRelative
	}
	return strings.ToLower(protocol) + "://" + host + rootRelative
}

// Clean normalizes the path component of a root-relative URL ("/a/./b" => "/a/b")
// while keeping its query and trailing slash.
func Clean(rootRelative string) string {
	p, q := SplitQuery(StripFragment(rootRelative))
	if p == "" {
		p = "/"
	}
	trailing := len(p) > 1 && strings.HasSuffix(p, "/")
	p = path.Clean("/" + strings.TrimPrefix(p, "/"))
	if trailing && p != "/" {
		p += "/"
	}
	if q != "" {
		return p + "?" + q
	}
	return p
}

func withScheme(u string) string {
	if strings.HasPrefix(u, "//") {
		return "http:" + u
	}
	return u
}
