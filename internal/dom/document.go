// Package dom is the headless document behind the navigator: it parses page
// markup with golang.org/x/net/html, extracts the content container and page
// metadata, and mounts/unmounts containers inside the live wrapper.
package dom

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrMissingWrapper   = errors.New("wrapper not found")
	ErrMissingContainer = errors.New("no container found")
	ErrNotReady         = errors.New("document has no body")
)

// Options names the markers the document looks for.
type Options struct {
	WrapperID      string `yaml:"wrapperId"`
	ContainerClass string `yaml:"containerClass"`
	// NamespaceAttr is the data attribute suffix: "namespace" reads data-namespace.
	NamespaceAttr     string `yaml:"namespaceAttr"`
	MenuItemClass     string `yaml:"menuItemClass"`
	MenuAncestorClass string `yaml:"menuAncestorClass"`
}

func DefaultOptions() Options {
	return Options{
		WrapperID:         "barba-wrapper",
		ContainerClass:    "barba-container",
		NamespaceAttr:     "namespace",
		MenuItemClass:     "current-menu-item",
		MenuAncestorClass: "current-page-ancestor",
	}
}

// Page is the structure extracted from fetched markup.
type Page struct {
	Title       string
	BodyID      string
	BodyClasses string
	Namespace   string
	Container   *html.Node // detached
	HTML        string
}

// Link is the anchor found for a click target.
type Link struct {
	Node     *html.Node
	Href     string
	Target   string
	Download bool
	// Ignored is set when the element or an ancestor carries the ignore class.
	Ignored bool
}

// Document is the live page. Safe for concurrent use; node helpers used on
// nodes owned by a Document must go through its methods.
type Document struct {
	mu          sync.Mutex
	root        *html.Node
	opts        Options
	currentHTML string
	bodyClasses string
}

var pageIDPattern = regexp.MustCompile(`\d+$`)

// New parses the initial page markup into a live document.
func New(markup string, opts Options) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root, opts: opts, currentHTML: markup}, nil
}

func (d *Document) body() *html.Node {
	return ByAtom(d.root, atom.Body)
}

func (d *Document) wrapper() (*html.Node, error) {
	w := ByID(d.root, d.opts.WrapperID)
	if w == nil {
		return nil, fmt.Errorf("#%s: %w", d.opts.WrapperID, ErrMissingWrapper)
	}
	return w, nil
}

func (d *Document) container(root *html.Node) (*html.Node, error) {
	if root == nil {
		return nil, ErrNotReady
	}
	c := ByClass(root, d.opts.ContainerClass)
	if c == nil {
		return nil, fmt.Errorf(".%s: %w", d.opts.ContainerClass, ErrMissingContainer)
	}
	return c, nil
}

// Wrapper returns the element hosting the containers.
func (d *Document) Wrapper() (*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrapper()
}

// Container returns the first container in the live body.
func (d *Document) Container() (*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.container(d.body())
}

// MarkLive sets aria-live="polite" on the wrapper.
func (d *Document) MarkLive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.wrapper()
	if err != nil {
		return err
	}
	SetAttr(w, "aria-live", "polite")
	return nil
}

// Parse extracts a Page from fetched markup. The live document is not touched.
func (d *Document) Parse(markup string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	c, err := d.container(ByAtom(root, atom.Body))
	if err != nil {
		return nil, err
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}

	p := &Page{
		Container: c,
		Namespace: d.namespace(c),
		HTML:      markup,
	}
	if t := ByAtom(root, atom.Title); t != nil {
		p.Title = Text(t)
	}
	if b := ByAtom(root, atom.Body); b != nil {
		p.BodyID, _ = Attr(b, "id")
		p.BodyClasses, _ = Attr(b, "class")
	}
	return p, nil
}

// ApplyPage commits the page metadata: title and body id immediately, body
// classes when ApplyBodyClasses is called by the transition.
func (d *Document) ApplyPage(p *Page) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.currentHTML = p.HTML
	d.bodyClasses = p.BodyClasses
	if p.Title != "" {
		d.setTitle(p.Title)
	}
	if p.BodyID != "" {
		if b := d.body(); b != nil {
			SetAttr(b, "id", p.BodyID)
		}
	}
}

// ApplyBodyClasses replaces the body class list with the last applied page's.
func (d *Document) ApplyBodyClasses() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b := d.body(); b != nil {
		SetAttr(b, "class", d.bodyClasses)
	}
}

// Mount appends node, hidden, to the wrapper.
func (d *Document) Mount(node *html.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, err := d.wrapper()
	if err != nil {
		return err
	}
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
	SetStyle(node, "visibility", "hidden")
	w.AppendChild(node)
	return nil
}

// Unmount detaches node from wherever it lives.
func (d *Document) Unmount(node *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if node != nil && node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

// Namespace reads the namespace data attribute of a container.
func (d *Document) Namespace(node *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.namespace(node)
}

func (d *Document) namespace(node *html.Node) string {
	v, _ := Attr(node, "data-"+d.opts.NamespaceAttr)
	return v
}

func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t := ByAtom(d.root, atom.Title); t != nil {
		return Text(t)
	}
	return ""
}

func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setTitle(title)
}

func (d *Document) setTitle(title string) {
	t := ByAtom(d.root, atom.Title)
	if t == nil {
		head := ByAtom(d.root, atom.Head)
		if head == nil {
			return
		}
		t = &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
		head.AppendChild(t)
	}
	for c := t.FirstChild; c != nil; c = t.FirstChild {
		t.RemoveChild(c)
	}
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

// BodyID returns the trimmed id of the body element.
func (d *Document) BodyID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, _ := Attr(d.body(), "id")
	return strings.TrimSpace(id)
}

// BodyClasses returns the class attribute of the body element.
func (d *Document) BodyClasses() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, _ := Attr(d.body(), "class")
	return c
}

// PageID is the trailing number of the body id ("page-42" -> "42").
func (d *Document) PageID() string {
	return pageIDPattern.FindString(d.BodyID())
}

// CurrentMenuItem returns the id of the active navigation item.
func (d *Document) CurrentMenuItem() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.activeMenuItem(); n != nil {
		id, _ := Attr(n, "id")
		return id
	}
	return ""
}

// SetCurrentMenuItem moves the active marker to the element with id.
func (d *Document) SetCurrentMenuItem(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for n := d.activeMenuItem(); n != nil; n = d.activeMenuItem() {
		RemoveClass(n, d.opts.MenuItemClass, d.opts.MenuAncestorClass)
	}
	if n := ByID(d.root, id); n != nil {
		AddClass(n, d.opts.MenuItemClass)
	}
}

func (d *Document) activeMenuItem() *html.Node {
	return Find(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode &&
			(HasClass(n, d.opts.MenuItemClass) || HasClass(n, d.opts.MenuAncestorClass))
	})
}

// ClosestLink walks up from target to the first element with an href (or
// xlink:href) and describes it.
func (d *Document) ClosestLink(target *html.Node, ignoreClass string) (Link, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el := target
	var href string
	for ; el != nil; el = el.Parent {
		if v, ok := xlinkHref(el); ok {
			href = v
			break
		}
		if v, ok := Attr(el, "href"); ok && v != "" {
			href = v
			break
		}
	}
	if el == nil {
		return Link{}, false
	}

	l := Link{Node: el, Href: href}
	l.Target, _ = Attr(el, "target")
	_, l.Download = Attr(el, "download")
	if ignoreClass != "" {
		for n := el; n != nil; n = n.Parent {
			if HasClass(n, ignoreClass) {
				l.Ignored = true
				break
			}
		}
	}
	return l, true
}

// ElementByID looks up an element in the live document.
func (d *Document) ElementByID(id string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ByID(d.root, id)
}

// Style reads an inline style property of a node in the document.
func (d *Document) Style(n *html.Node, prop string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Style(n, prop)
}

// SetStyle writes an inline style property of a node in the document.
func (d *Document) SetStyle(n *html.Node, prop, val string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	SetStyle(n, prop, val)
}

// HTML returns the markup of the last loaded page.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentHTML
}

// Render serializes the live document.
func (d *Document) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// xlinkHref reads xlink:href, which the parser stores namespaced inside svg.
func xlinkHref(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if (a.Namespace == "xlink" && a.Key == "href") || (a.Namespace == "" && a.Key == "xlink:href") {
			return a.Val, true
		}
	}
	return "", false
}
