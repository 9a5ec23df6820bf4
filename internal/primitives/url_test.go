package primitives

import (
	"net/url"
	"testing"
)

func TestCleanURL(t *testing.T) {
	cases := map[string]string{
		"http://site.test/a":         "http://site.test/a",
		"http://site.test/a#top":     "http://site.test/a",
		"http://site.test/a?x=1#":    "http://site.test/a?x=1",
		"#only":                      "",
		"http://site.test/a?q=#x#y":  "http://site.test/a?q=",
	}
	for in, want := range cases {
		if got := CleanURL(in); got != want {
			t.Errorf("CleanURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFragment(t *testing.T) {
	if got := Fragment("http://site.test/a#section-2"); got != "section-2" {
		t.Errorf("Fragment = %q", got)
	}
	if HasFragment("http://site.test/a") {
		t.Error("HasFragment on bare URL")
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("http://site.test/dir/page", "../other?x=1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://site.test/other?x=1" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestSameOrigin(t *testing.T) {
	mustParse := func(s string) *url.URL {
		u, err := url.Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		return u
	}
	cases := []struct {
		a, b string
		want bool
	}{
		{"http://site.test/y", "http://site.test/x", true},
		{"http://site.test/y", "http://site.test:80/x", true},
		{"https://site.test/y", "https://site.test:443/x", true},
		{"http://site.test/y", "http://other.example/x", false},
		{"http://site.test/y", "https://site.test/x", false},
		{"http://site.test/y", "http://site.test:8080/x", false},
	}
	for _, tc := range cases {
		if got := SameOrigin(mustParse(tc.a), mustParse(tc.b)); got != tc.want {
			t.Errorf("SameOrigin(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
