package aria

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLDOM is a static DOM implementation backed by a parsed
// golang.org/x/net/html document. It exists so the from-scratch ARIA
// algorithm in this package can be exercised by tests without a live
// browser. It has no shadow-DOM support: ShadowChildren/AssignedNodes are
// always empty and elements are never InShadowTree.
//
// Since a static fixture has no CSSOM, generated content and cursor/display
// are read from two test-only conventions instead of real computed style:
// a `style` attribute is scanned for "display:" and "cursor:" declarations,
// and `data-before`/`data-after` attributes stand in for ::before/::after
// `content` values (passed through ParseContentValue so attr(...) still
// works).
type HTMLDOM struct {
	doc      *html.Node
	byID     map[string]*html.Node
	labelFor map[string]*html.Node
}

// ParseHTMLDOM parses r as HTML and indexes it for ByID/LabelFor lookups.
func ParseHTMLDOM(r io.Reader) (*HTMLDOM, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &HTMLDOM{doc: doc, byID: make(map[string]*html.Node), labelFor: make(map[string]*html.Node)}
	d.index(doc)
	return d, nil
}

func (d *HTMLDOM) index(n *html.Node) {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			switch {
			case a.Key == "id" && a.Val != "":
				d.byID[a.Val] = n
			case n.Data == "label" && a.Key == "for" && a.Val != "":
				d.labelFor[a.Val] = n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

func (d *HTMLDOM) Root() Node { return htmlNode{n: d.doc} }

func (d *HTMLDOM) ByID(id string) (Node, bool) {
	n, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return htmlNode{n: n}, true
}

func (d *HTMLDOM) LabelFor(id string) (Node, bool) {
	n, ok := d.labelFor[id]
	if !ok {
		return nil, false
	}
	return htmlNode{n: n}, true
}

type htmlNode struct {
	n *html.Node
}

func (h htmlNode) Kind() NodeKind {
	if h.n.Type == html.TextNode {
		return TextNode
	}
	return ElementNode
}

func (h htmlNode) Tag() string {
	return strings.ToUpper(h.n.Data)
}

func (h htmlNode) ID() string {
	v, _ := h.Attr("id")
	return v
}

func (h htmlNode) Attr(name string) (string, bool) {
	for _, a := range h.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (h htmlNode) Text() string {
	if h.n.Type == html.TextNode {
		return h.n.Data
	}
	return ""
}

func (h htmlNode) Display() string {
	style := h.styleDecl("display")
	if style == "" {
		return "block"
	}
	return style
}

func (h htmlNode) Cursor() string {
	return h.styleDecl("cursor")
}

func (h htmlNode) styleDecl(prop string) string {
	v, ok := h.Attr("style")
	if !ok {
		return ""
	}
	for _, decl := range strings.Split(v, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == prop {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

func (h htmlNode) GeneratedContent(pseudo string) string {
	attr := "data-before"
	if pseudo == "after" {
		attr = "data-after"
	}
	v, ok := h.Attr(attr)
	if !ok {
		return ""
	}
	return ParseContentValue(v, h.Attr)
}

func (h htmlNode) Children() []Node {
	var out []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		out = append(out, htmlNode{n: c})
	}
	return out
}

func (h htmlNode) ShadowChildren() []Node { return nil }
func (h htmlNode) AssignedNodes() []Node  { return nil }
func (h htmlNode) Slotted() bool          { return false }
func (h htmlNode) InShadowTree() bool     { return false }

func (h htmlNode) HasVisibleRect() bool {
	if _, ok := h.Attr("data-no-rect"); ok {
		return false
	}
	if h.n.Type == html.TextNode {
		return strings.TrimSpace(h.n.Data) != ""
	}
	return h.Display() != "none"
}

func (h htmlNode) Identity() any { return h.n }
