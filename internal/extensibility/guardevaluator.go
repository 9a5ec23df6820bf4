package extensibility

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/comalice/pjaxnav"
	"github.com/comalice/pjaxnav/internal/dom"
)

// ExcludePaths rejects links whose path starts with any of prefixes.
func ExcludePaths(prefixes ...string) pjaxnav.LinkGuard {
	return func(_ dom.Link, u *url.URL) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(u.Path, p) {
				return false
			}
		}
		return true
	}
}

// ExcludeExtensions rejects links to files such as ".pdf" or "zip".
func ExcludeExtensions(exts ...string) pjaxnav.LinkGuard {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set["."+strings.TrimPrefix(strings.ToLower(e), ".")] = true
	}
	return func(_ dom.Link, u *url.URL) bool {
		return !set[strings.ToLower(path.Ext(u.Path))]
	}
}

// ParseGuard builds a guard from an expression "key op value" that names
// links to reject. Keys: path, ext, query, host. Ops: == != ^= (prefix)
// $= (suffix) *= (contains).
//
//	path ^= /admin
//	ext == .pdf
//	query *= download
func ParseGuard(expr string) (pjaxnav.LinkGuard, error) {
	parts := strings.Fields(expr)
	if len(parts) != 3 {
		return nil, fmt.Errorf("guard %q: want \"key op value\"", expr)
	}
	key, op, val := parts[0], parts[1], parts[2]

	var field func(*url.URL) string
	switch key {
	case "path":
		field = func(u *url.URL) string { return u.Path }
	case "ext":
		field = func(u *url.URL) string { return strings.ToLower(path.Ext(u.Path)) }
	case "query":
		field = func(u *url.URL) string { return u.RawQuery }
	case "host":
		field = func(u *url.URL) string { return u.Hostname() }
	default:
		return nil, fmt.Errorf("guard %q: unknown key %q", expr, key)
	}

	var match func(string) bool
	switch op {
	case "==":
		match = func(s string) bool { return s == val }
	case "!=":
		match = func(s string) bool { return s != val }
	case "^=":
		match = func(s string) bool { return strings.HasPrefix(s, val) }
	case "$=":
		match = func(s string) bool { return strings.HasSuffix(s, val) }
	case "*=":
		match = func(s string) bool { return strings.Contains(s, val) }
	default:
		return nil, fmt.Errorf("guard %q: unknown operator %q", expr, op)
	}

	return func(_ dom.Link, u *url.URL) bool {
		return !match(field(u))
	}, nil
}

// ParseGuards parses each expression; empty ones are skipped.
func ParseGuards(exprs []string) ([]pjaxnav.LinkGuard, error) {
	var guards []pjaxnav.LinkGuard
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		g, err := ParseGuard(e)
		if err != nil {
			return nil, err
		}
		guards = append(guards, g)
	}
	return guards, nil
}
