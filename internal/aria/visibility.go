package aria

// ignoredTags never produce a node in the Aria tree, regardless of display
// or ARIA attributes.
var ignoredTags = map[string]bool{
	"STYLE":    true,
	"SCRIPT":   true,
	"NOSCRIPT": true,
	"TEMPLATE": true,
}

// visibilityCtx carries the ancestor state that visibility decisions depend
// on: whether any ancestor is display:none or aria-hidden, and whether this
// node descends from a shadow host without reaching an assigned slot.
type visibilityCtx struct {
	ancestorHidden     bool
	ancestorAriaHidden bool
	inUnslottedShadow  bool
}

// isIgnored reports whether n's tag is excluded from the tree outright.
func isIgnored(n Node) bool {
	return n.Kind() == ElementNode && ignoredTags[n.Tag()]
}

// isHidden implements spec.md §4.1 step 1's hidden rule: shadow content that
// never reached a slot, display:none (self or ancestor), or an aria-hidden
// ancestor. display:contents is a visibility exception handled separately
// by the Builder, since it depends on descendant content.
func isHidden(n Node, ctx visibilityCtx) bool {
	if ctx.inUnslottedShadow {
		return true
	}
	if ctx.ancestorHidden || n.Display() == "none" {
		return true
	}
	if ctx.ancestorAriaHidden {
		return true
	}
	if v, ok := n.Attr("aria-hidden"); ok && v == "true" {
		return true
	}
	return false
}

// childVisibilityCtx derives the context a child traversal should use,
// folding in n's own contribution to the hidden/aria-hidden chain.
func childVisibilityCtx(n Node, ctx visibilityCtx) visibilityCtx {
	next := ctx
	if n.Display() == "none" {
		next.ancestorHidden = true
	}
	if v, ok := n.Attr("aria-hidden"); ok && v == "true" {
		next.ancestorAriaHidden = true
	}
	return next
}

// isDisplayContents reports whether n's computed display is "contents": it
// contributes no box of its own, so its visibility is decided by whether any
// descendant contributes visible content (checked by the Builder after
// recursing).
func isDisplayContents(n Node) bool {
	return n.Display() == "contents"
}

// textNodeVisible implements the text-node visibility rule: a non-empty
// bounding rect is required, since otherwise the text occupies no rendered
// space (e.g. it is the light-DOM fallback content of a populated slot).
func textNodeVisible(n Node) bool {
	return n.HasVisibleRect()
}

// admitAsGeneric implements the AI-mode exception: an element that is
// visually visible (has a non-empty rect) but whose ARIA state would hide it
// is still admitted into the tree, demoted to role generic, so the agent
// does not lose interactive surface that a sighted user would see.
func admitAsGeneric(n Node, ariaHidden bool) bool {
	return ariaHidden && n.HasVisibleRect()
}
