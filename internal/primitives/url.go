package primitives

import (
	"net/url"
	"strconv"
	"strings"
)

// CleanURL strips the fragment from raw.
func CleanURL(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// HasFragment reports whether raw carries a '#'.
func HasFragment(raw string) bool {
	return strings.IndexByte(raw, '#') >= 0
}

// Fragment returns the part after '#', or "".
func Fragment(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[i+1:]
	}
	return ""
}

// Resolve makes ref absolute against base.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// Port returns the effective port of u, defaulting by scheme. Unknown schemes
// without an explicit port yield 0.
func Port(u *url.URL) int {
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		return n
	}
	switch u.Scheme {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

// SameOrigin compares scheme, hostname and effective port.
func SameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		Port(a) == Port(b)
}
