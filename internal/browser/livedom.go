package browser

import (
	"strings"

	"github.com/nebolabs/webagent/internal/aria"
)

// snapshotScript is evaluated once per GetText call. It walks the live DOM
// from document.body, stamps every element it visits with a stable
// `data-wa-hid` handle (reused across calls for the same physical element
// so refs stay stable snapshot to snapshot), and returns a JSON string
// shaped like jsNode. Ignored tags (STYLE/SCRIPT/NOSCRIPT/TEMPLATE) are not
// recursed into at all, matching the Aria builder's own short-circuit for
// them.
const snapshotScript = `(() => {
  if (!window.__waHidSeq) window.__waHidSeq = 1;
  const IGNORED = new Set(['STYLE', 'SCRIPT', 'NOSCRIPT', 'TEMPLATE']);

  function hid(el) {
    let v = el.getAttribute('data-wa-hid');
    if (!v) {
      v = String(window.__waHidSeq++);
      el.setAttribute('data-wa-hid', v);
    }
    return v;
  }

  function pseudoContent(el, pseudo) {
    try {
      const style = window.getComputedStyle(el, pseudo);
      const c = style ? style.content : '';
      return (c && c !== 'none' && c !== 'normal') ? c : '';
    } catch (e) {
      return '';
    }
  }

  function rectVisible(el) {
    try {
      const r = el.getBoundingClientRect();
      return r.width > 0 && r.height > 0;
    } catch (e) {
      return false;
    }
  }

  function textRectVisible(textNode) {
    try {
      const range = document.createRange();
      range.selectNodeContents(textNode);
      const r = range.getBoundingClientRect();
      return r.width > 0 && r.height > 0;
    } catch (e) {
      return false;
    }
  }

  function walkChildList(nodeList) {
    const out = [];
    nodeList.forEach(n => {
      const w = walk(n);
      if (w) out.push(w);
    });
    return out;
  }

  function walk(node) {
    if (node.nodeType === Node.TEXT_NODE) {
      return { k: 't', text: node.textContent || '', rect: textRectVisible(node) };
    }
    if (node.nodeType !== Node.ELEMENT_NODE) return null;
    const el = node;
    const tag = el.tagName.toUpperCase();
    if (IGNORED.has(tag)) return null;

    const attrs = {};
    for (const a of el.attributes) attrs[a.name] = a.value;

    let style;
    try { style = window.getComputedStyle(el); } catch (e) { style = null; }

    const out = {
      k: 'e',
      tag: tag,
      attrs: attrs,
      hid: hid(el),
      display: style ? style.display : 'block',
      cursor: style ? style.cursor : 'auto',
      before: pseudoContent(el, '::before'),
      after: pseudoContent(el, '::after'),
      rect: rectVisible(el),
      inShadow: el.getRootNode() instanceof ShadowRoot,
      slotted: !!el.assignedSlot,
    };

    if (tag === 'SLOT' && typeof el.assignedNodes === 'function') {
      out.assigned = walkChildList(el.assignedNodes());
    }

    out.children = walkChildList(el.childNodes);

    if (el.shadowRoot) {
      out.shadow = walkChildList(el.shadowRoot.childNodes);
    }

    return out;
  }

  return JSON.stringify(walk(document.body) || { k: 'e', tag: 'BODY', attrs: {}, children: [] });
})()`

// jsNode mirrors the JSON shape produced by snapshotScript.
type jsNode struct {
	K        string            `json:"k"`
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	HID      string            `json:"hid,omitempty"`
	Display  string            `json:"display,omitempty"`
	Cursor   string            `json:"cursor,omitempty"`
	Before   string            `json:"before,omitempty"`
	After    string            `json:"after,omitempty"`
	Rect     bool              `json:"rect,omitempty"`
	InShadow bool              `json:"inShadow,omitempty"`
	Slotted  bool              `json:"slotted,omitempty"`
	Children []*jsNode         `json:"children,omitempty"`
	Shadow   []*jsNode         `json:"shadow,omitempty"`
	Assigned []*jsNode         `json:"assigned,omitempty"`
}

// liveDOM adapts one parsed snapshot to aria.DOM. It is built fresh for
// every GetText call; the Browser keeps the last one around so PerformAction
// can resolve a ref's hid back to a live element via the matching
// `[data-wa-hid="..."]` selector.
type liveDOM struct {
	root     *jsNode
	byID     map[string]*jsNode
	labelFor map[string]*jsNode
	byHID    map[string]*jsNode
}

func newLiveDOM(root *jsNode) *liveDOM {
	d := &liveDOM{root: root, byID: make(map[string]*jsNode), labelFor: make(map[string]*jsNode), byHID: make(map[string]*jsNode)}
	d.index(root)
	return d
}

func (d *liveDOM) index(n *jsNode) {
	if n == nil {
		return
	}
	if n.K == "e" {
		if id := n.Attrs["id"]; id != "" {
			d.byID[id] = n
		}
		if n.Tag == "LABEL" {
			if forAttr := n.Attrs["for"]; forAttr != "" {
				d.labelFor[forAttr] = n
			}
		}
		if n.HID != "" {
			d.byHID[n.HID] = n
		}
	}
	for _, c := range n.Children {
		d.index(c)
	}
	for _, c := range n.Shadow {
		d.index(c)
	}
	for _, c := range n.Assigned {
		d.index(c)
	}
}

func (d *liveDOM) Root() aria.Node { return liveNode{n: d.root} }

func (d *liveDOM) ByID(id string) (aria.Node, bool) {
	n, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return liveNode{n: n}, true
}

func (d *liveDOM) LabelFor(id string) (aria.Node, bool) {
	n, ok := d.labelFor[id]
	if !ok {
		return nil, false
	}
	return liveNode{n: n}, true
}

type liveNode struct {
	n *jsNode
}

func (l liveNode) Kind() aria.NodeKind {
	if l.n.K == "t" {
		return aria.TextNode
	}
	return aria.ElementNode
}

func (l liveNode) Tag() string { return l.n.Tag }
func (l liveNode) ID() string  { return l.n.Attrs["id"] }

func (l liveNode) Attr(name string) (string, bool) {
	v, ok := l.n.Attrs[name]
	return v, ok
}

func (l liveNode) Text() string { return l.n.Text }

func (l liveNode) Display() string {
	if l.n.Display == "" {
		return "block"
	}
	return l.n.Display
}

func (l liveNode) Cursor() string { return l.n.Cursor }

func (l liveNode) GeneratedContent(pseudo string) string {
	raw := l.n.Before
	if pseudo == "after" {
		raw = l.n.After
	}
	return aria.ParseContentValue(raw, l.Attr)
}

func (l liveNode) Children() []aria.Node {
	return wrapNodes(l.n.Children)
}

func (l liveNode) ShadowChildren() []aria.Node { return wrapNodes(l.n.Shadow) }
func (l liveNode) AssignedNodes() []aria.Node  { return wrapNodes(l.n.Assigned) }
func (l liveNode) Slotted() bool               { return l.n.Slotted }
func (l liveNode) InShadowTree() bool          { return l.n.InShadow }
func (l liveNode) HasVisibleRect() bool        { return l.n.Rect }

// Identity is the stamped hid for elements (stable across snapshots for the
// same physical element), or the fresh node pointer for text nodes (never
// ref-cached, so stability doesn't matter for them).
func (l liveNode) Identity() any {
	if l.n.HID != "" {
		return l.n.HID
	}
	return l.n
}

func wrapNodes(ns []*jsNode) []aria.Node {
	if len(ns) == 0 {
		return nil
	}
	out := make([]aria.Node, 0, len(ns))
	for _, n := range ns {
		out = append(out, liveNode{n: n})
	}
	return out
}

// hidSelector builds the CSS selector used to resolve a ref's hid back to a
// live Playwright element.
func hidSelector(hid string) string {
	var b strings.Builder
	b.WriteString(`[data-wa-hid="`)
	b.WriteString(hid)
	b.WriteString(`"]`)
	return b.String()
}
