package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key on n, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes splits the class attribute of n.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(strings.Join(append(Classes(n), class), " ")))
}

func RemoveClass(n *html.Node, classes ...string) {
	if _, ok := Attr(n, "class"); !ok {
		return
	}
	kept := Classes(n)[:0]
	for _, c := range Classes(n) {
		drop := false
		for _, r := range classes {
			if c == r {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Find returns the first node under root, in document order, matching fn.
func Find(root *html.Node, fn func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if fn(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// ByID finds the element with the given id.
func ByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return Find(root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
}

// ByClass finds the first element carrying class.
func ByClass(root *html.Node, class string) *html.Node {
	return Find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasClass(n, class)
	})
}

// ByAtom finds the first element of the given tag.
func ByAtom(root *html.Node, a atom.Atom) *html.Node {
	return Find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	})
}

// Text concatenates the text nodes under n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}

// Style returns one property of the inline style attribute.
func Style(n *html.Node, prop string) string {
	for _, decl := range styleDecls(n) {
		if decl[0] == prop {
			return decl[1]
		}
	}
	return ""
}

// SetStyle sets one property of the inline style attribute.
func SetStyle(n *html.Node, prop, val string) {
	decls := styleDecls(n)
	replaced := false
	for i := range decls {
		if decls[i][0] == prop {
			decls[i][1] = val
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, [2]string{prop, val})
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d[0]+": "+d[1])
	}
	SetAttr(n, "style", strings.Join(parts, "; "))
}

func styleDecls(n *html.Node) [][2]string {
	raw, _ := Attr(n, "style")
	var decls [][2]string
	for _, part := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decls = append(decls, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
	}
	return decls
}
