package aria

import (
	"strings"
)

// nameCache memoizes accessible-name results per element identity for the
// duration of one traversal. It is a scoped-acquisition resource:
// accessibleName pushes a frame with begin on entry and pops it with end on
// return; the cache is only cleared when the depth counter returns to zero,
// so nested accessibleName calls share one cache.
type nameCache struct {
	entries map[any]string
	depth   int
}

func newNameCache() *nameCache {
	return &nameCache{entries: make(map[any]string)}
}

func (c *nameCache) begin() { c.depth++ }

func (c *nameCache) end() {
	c.depth--
	if c.depth <= 0 {
		c.depth = 0
		c.entries = make(map[any]string)
	}
}

// accessibleName computes the WAI-ARIA accessible name for n: labelledby,
// then aria-label, then role-specific native mechanisms, then (if the role
// allows it) name-from-content. The result is whitespace-normalized.
func accessibleName(n Node, role Role, dom DOM, nc *nameCache) string {
	nc.begin()
	defer nc.end()

	if cached, ok := nc.entries[n.Identity()]; ok {
		return cached
	}

	name := computeNameUncached(n, role, dom, nc, map[any]bool{})
	name = normalizeWhitespace(name)
	nc.entries[n.Identity()] = name
	return name
}

func computeNameUncached(n Node, role Role, dom DOM, nc *nameCache, visited map[any]bool) string {
	if visited[n.Identity()] {
		return ""
	}
	visited[n.Identity()] = true

	if v, ok := n.Attr("aria-labelledby"); ok && strings.TrimSpace(v) != "" {
		var parts []string
		for _, id := range strings.Fields(v) {
			target, ok := dom.ByID(id)
			if !ok || visited[target.Identity()] {
				continue
			}
			parts = append(parts, nameFromContent(target, dom, nc, visited))
		}
		if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
			return joined
		}
	}

	if v, ok := n.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return v
	}

	if native := nativeName(n, role, dom, nc, visited); native != "" {
		return native
	}

	if nameFromContentRoles[role] {
		// nameFromContent marks n itself; unmark it so n's own text is read.
		delete(visited, n.Identity())
		return nameFromContent(n, dom, nc, visited)
	}

	return ""
}

// nativeName implements the role-specific native naming mechanisms: label
// association, alt, title, and the element-specific child/attribute
// fallbacks spec.md §4.1 step 3 lists.
func nativeName(n Node, role Role, dom DOM, nc *nameCache, visited map[any]bool) string {
	switch n.Tag() {
	case "IMG", "AREA":
		if v, ok := n.Attr("alt"); ok {
			return v
		}
	case "INPUT", "TEXTAREA", "SELECT":
		if label := associatedLabel(n, dom); label != "" {
			return nameFromContent(label, dom, nc, visited)
		}
	case "FIGURE":
		if cap := firstChildByTag(n, "FIGCAPTION"); cap != nil {
			return nameFromContent(cap, dom, nc, visited)
		}
	case "TABLE":
		if cap := firstChildByTag(n, "CAPTION"); cap != nil {
			return nameFromContent(cap, dom, nc, visited)
		}
	case "FIELDSET":
		if leg := firstChildByTag(n, "LEGEND"); leg != nil {
			return nameFromContent(leg, dom, nc, visited)
		}
	case "DETAILS":
		if sum := firstChildByTag(n, "SUMMARY"); sum != nil {
			return nameFromContent(sum, dom, nc, visited)
		}
	case "SVG":
		if title := firstChildByTag(n, "TITLE"); title != nil {
			return nameFromContent(title, dom, nc, visited)
		}
	}

	if v, ok := n.Attr("title"); ok && strings.TrimSpace(v) != "" {
		return v
	}

	switch n.Tag() {
	case "INPUT":
		if v, ok := n.Attr("value"); ok && strings.TrimSpace(v) != "" {
			if t, _ := n.Attr("type"); t == "button" || t == "submit" || t == "reset" {
				return v
			}
		}
		if v, ok := n.Attr("placeholder"); ok {
			return v
		}
	case "TEXTAREA":
		if v, ok := n.Attr("placeholder"); ok {
			return v
		}
	}

	return ""
}

// associatedLabel finds the <label for=id> controlling a form control.
// Only for/id association is found: a <label> that wraps the control without
// a for attribute is not considered, since this package's name computation
// only ever sees a node and its descendants, not its ancestors.
func associatedLabel(n Node, dom DOM) Node {
	if id := n.ID(); id == "" {
		return nil
	} else if lbl, ok := dom.LabelFor(id); ok {
		return lbl
	}
	return nil
}

func firstChildByTag(n Node, tag string) Node {
	for _, c := range n.Children() {
		if c.Kind() == ElementNode && c.Tag() == tag {
			return c
		}
	}
	return nil
}

// nameFromContent concatenates the text contributions of n's subtree: its
// own generated ::before content, child text/element contributions in
// order, and ::after content. It is also used to resolve the name of an
// aria-labelledby target and native-label targets, per the ARIA
// accessible-name algorithm's recursive "name from content" step.
func nameFromContent(n Node, dom DOM, nc *nameCache, visited map[any]bool) string {
	if n.Kind() == TextNode {
		return n.Text()
	}

	if visited[n.Identity()] {
		return ""
	}
	visited[n.Identity()] = true

	if v, ok := n.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return v
	}

	var b strings.Builder
	if before := n.GeneratedContent("before"); before != "" {
		b.WriteString(before)
		b.WriteString(" ")
	}
	for _, c := range n.Children() {
		if t := nameFromContent(c, dom, nc, visited); t != "" {
			b.WriteString(t)
			b.WriteString(" ")
		}
	}
	if after := n.GeneratedContent("after"); after != "" {
		b.WriteString(after)
	}
	if n.Tag() == "IMG" {
		if alt, ok := n.Attr("alt"); ok {
			b.WriteString(alt)
		}
	}
	return b.String()
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
