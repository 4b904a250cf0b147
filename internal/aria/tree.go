package aria

import "strings"

// AriaNode is one node of the built Aria tree: a role, an accessible name,
// optional state flags and props, and an ordered stream of children that
// may interleave structured nodes with plain text.
type AriaNode struct {
	Role                  Role
	Name                  string
	Ref                   string
	States                States
	Props                 map[string]string
	Cursor                string
	ReceivesPointerEvents bool
	Children              []AriaChild
}

// AriaChild is one entry in a node's child stream: either a text run or a
// structured child node, never both.
type AriaChild struct {
	Text string
	Node *AriaNode
}

// refEntry is the cached {role, name, ref} triple a Builder reuses across
// snapshots when an element's role and name are unchanged, per spec.md
// §4.1 step 5.
type refEntry struct {
	role Role
	name string
	ref  string
}

// Builder walks a DOM and produces an Aria tree. It holds the ref cache and
// name cache across repeated Build calls so refs stay stable snapshot to
// snapshot for unchanged elements, as the Action Loop's re-snapshotting
// requires.
type Builder struct {
	dom       DOM
	aiMode    bool
	nameCache *nameCache
	refCache  map[any]refEntry
	byRef     map[string]any
	section   int
	seq       int
}

// NewBuilder constructs a Builder over dom. aiMode enables ref assignment
// and the visually-visible-but-ARIA-hidden generic admission rule; disable
// it to get a plain accessibility-tree snapshot with no refs.
func NewBuilder(dom DOM, aiMode bool) *Builder {
	return &Builder{
		dom:       dom,
		aiMode:    aiMode,
		nameCache: newNameCache(),
		refCache:  make(map[any]refEntry),
		byRef:     make(map[string]any),
	}
}

// Lookup returns the DOM identity (Node.Identity()) that produced ref, or
// false if ref is unknown. Refs are never forgotten, so a ref minted by an
// earlier Build call on this Builder still resolves. A live Browser
// Capability uses this to resolve a ref passed back by the model into a
// concrete element for performAction, per spec.md §4.3's allowance that
// "implementations are permitted to re-snapshot internally to resolve a
// ref."
func (b *Builder) Lookup(ref string) (any, bool) {
	id, ok := b.byRef[ref]
	return id, ok
}

// SetDOM points the Builder at a newly captured DOM snapshot while keeping
// its ref/name caches intact, so the next Build call can reuse refs for
// elements whose identity, role, and name are unchanged from the previous
// snapshot. Live Browser Capability implementations call this once per
// perception iteration instead of constructing a new Builder.
func (b *Builder) SetDOM(dom DOM) {
	b.dom = dom
}

// Build produces a fresh Aria tree rooted at a synthetic "fragment" node.
// Each call advances the ref section counter, so refs minted in this build
// carry a section number following the last; refs for elements whose
// role+name are unchanged from a prior build are reused verbatim.
func (b *Builder) Build() *AriaNode {
	b.section++
	b.seq = 0

	root := b.dom.Root()
	ctx := buildCtx{}
	vctx := visibilityCtx{}

	children := b.buildChildrenOf(root, ctx, vctx)
	return &AriaNode{
		Role:     RoleFragment,
		Children: children,
	}
}

// buildCtx threads ancestor-dependent state through the traversal: role
// resolution context plus the disabled-by-fieldset flag.
type buildCtx struct {
	role             resolveCtx
	fieldsetDisabled bool
}

func (c buildCtx) pushAncestor(n Node, role Role) buildCtx {
	next := c
	next.role.ancestorTags = append(append([]string{}, c.role.ancestorTags...), n.Tag())
	if n.Tag() == "TABLE" || role == RoleGrid || role == RoleTreeGrid {
		next.role.enclosingList = append(append([]Role{}, c.role.enclosingList...), role)
	}
	if n.Tag() == "FIELDSET" && attrPresent(n, "disabled") {
		next.fieldsetDisabled = true
	}
	if n.Tag() == "LEGEND" {
		next.fieldsetDisabled = false
	}
	return next
}

// build produces the child-stream contribution of n: nil if n is elided
// (ignored, hidden, or a presentation/none node without a promoting
// conflict), or one-or-more AriaChild entries otherwise (more than one only
// when n itself is elided and its children are spliced into the parent).
func (b *Builder) build(n Node, ctx buildCtx, vctx visibilityCtx) []AriaChild {
	if n.Kind() == TextNode {
		if !textNodeVisible(n) {
			return nil
		}
		t := strings.TrimSpace(n.Text())
		if t == "" {
			return nil
		}
		return []AriaChild{{Text: t}}
	}

	if isIgnored(n) {
		return nil
	}

	hidden := isHidden(n, vctx)
	if hidden {
		if isDisplayContents(n) {
			childVctx := childVisibilityCtx(n, vctx)
			kids := b.buildChildrenOf(n, ctx, childVctx)
			if len(kids) == 0 {
				return nil
			}
			return kids
		}
		if b.aiMode && admitAsGeneric(n, true) {
			return b.buildElement(n, RoleGeneric, ctx, vctx)
		}
		return nil
	}

	role, explicit := explicitRole(n)
	if !explicit {
		role = implicitRole(n, &ctx.role)
	}

	if role == RolePresentation || role == RoleNone {
		if hasPresentationConflict(n) {
			role = implicitRole(n, &ctx.role)
		} else {
			childVctx := childVisibilityCtx(n, vctx)
			childCtx := ctx.pushAncestor(n, role)
			return b.buildChildrenOf(n, childCtx, childVctx)
		}
	}

	if role == "" {
		return nil
	}

	return b.buildElement(n, role, ctx, vctx)
}

func (b *Builder) buildElement(n Node, role Role, ctx buildCtx, vctx visibilityCtx) []AriaChild {
	name := accessibleName(n, role, b.dom, b.nameCache)
	states := computeStates(n, role, ctx.fieldsetDisabled)

	childVctx := childVisibilityCtx(n, vctx)
	childCtx := ctx.pushAncestor(n, role)
	children := b.buildChildrenOf(n, childCtx, childVctx)
	children = elideNameEchoAndMerge(children, name)

	node := &AriaNode{
		Role:                  role,
		Name:                  name,
		States:                states,
		Props:                 buildProps(n, role),
		Cursor:                n.Cursor(),
		ReceivesPointerEvents: receivesPointerEvents(n),
		Children:              children,
	}

	if b.aiMode && node.ReceivesPointerEvents {
		node.Ref = b.refFor(n, role, name)
	}

	if role == RoleGeneric && !node.ReceivesPointerEvents && foldable(children) {
		return children
	}

	return []AriaChild{{Node: node}}
}

// buildChildrenOf resolves n's child source (slot assignment, own + shadow
// children, aria-owns referents) and concatenates their build results.
func (b *Builder) buildChildrenOf(n Node, ctx buildCtx, vctx visibilityCtx) []AriaChild {
	var out []AriaChild
	for _, c := range b.childSource(n) {
		out = append(out, b.build(c, ctx, vctx)...)
	}
	return out
}

func (b *Builder) childSource(n Node) []Node {
	if n.Tag() == "SLOT" {
		return n.AssignedNodes()
	}

	var kids []Node
	for _, c := range n.Children() {
		if c.Slotted() {
			continue
		}
		kids = append(kids, c)
	}
	kids = append(kids, n.ShadowChildren()...)

	if v, ok := n.Attr("aria-owns"); ok {
		for _, id := range strings.Fields(v) {
			if owned, ok := b.dom.ByID(id); ok {
				kids = append(kids, owned)
			}
		}
	}
	return kids
}

// refFor returns the cached ref for n if its role and name are unchanged
// from the last build that minted one, otherwise mints a new monotonic ref.
func (b *Builder) refFor(n Node, role Role, name string) string {
	id := n.Identity()
	if prev, ok := b.refCache[id]; ok && prev.role == role && prev.name == name {
		return prev.ref
	}
	b.seq++
	ref := refString(b.section, b.seq)
	b.refCache[id] = refEntry{role: role, name: name, ref: ref}
	b.byRef[ref] = id
	return ref
}

func refString(section, seq int) string {
	var buf strings.Builder
	buf.WriteByte('s')
	writeInt(&buf, section)
	buf.WriteByte('e')
	writeInt(&buf, seq)
	return buf.String()
}

func writeInt(buf *strings.Builder, v int) {
	if v == 0 {
		buf.WriteByte('0')
		return
	}
	var digits [20]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	buf.Write(digits[i:])
}

// receivesPointerEvents approximates WAI-ARIA's pointer-events notion for
// the AI-mode ref/cursor annotations: focusable elements, or any element
// with an explicit click affordance (cursor:pointer). The role is not
// consulted.
func receivesPointerEvents(n Node) bool {
	if isFocusable(n) {
		return true
	}
	return n.Cursor() == "pointer"
}

func buildProps(n Node, role Role) map[string]string {
	if role == RoleLink {
		if href, ok := n.Attr("href"); ok {
			return map[string]string{"url": href}
		}
	}
	return nil
}

// elideNameEchoAndMerge merges adjacent text runs (collapsing whitespace
// between them) and drops a resulting text child that exactly equals the
// node's own accessible name, per spec.md §3's "a child string equal to the
// node's own name is elided" invariant.
func elideNameEchoAndMerge(children []AriaChild, name string) []AriaChild {
	var out []AriaChild
	for _, c := range children {
		if c.Node != nil {
			out = append(out, c)
			continue
		}
		if len(out) > 0 && out[len(out)-1].Node == nil {
			out[len(out)-1].Text = strings.TrimSpace(out[len(out)-1].Text + " " + c.Text)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 1 && out[0].Node == nil && out[0].Text == name {
		return nil
	}
	return out
}

// foldable reports whether a generic node's already-built children qualify
// it to be folded away (spliced into its parent) per spec.md §3: at most
// one structured child and no useful text of its own.
func foldable(children []AriaChild) bool {
	structured := 0
	for _, c := range children {
		if c.Node != nil {
			structured++
		} else if strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return structured <= 1
}
