package aria

import "strings"

// explicitRoles is the closed set of ARIA roles an explicit role="" attribute
// may name. A role outside this set is treated as absent (falls through to
// implicit resolution), per the WAI-ARIA rule that unknown role tokens are
// ignored in favor of the next token / the implicit role.
var explicitRoles = map[string]bool{
	"alert": true, "alertdialog": true, "application": true, "article": true,
	"banner": true, "button": true, "cell": true, "checkbox": true,
	"columnheader": true, "combobox": true, "complementary": true,
	"contentinfo": true, "definition": true, "dialog": true, "directory": true,
	"document": true, "feed": true, "figure": true, "form": true,
	"generic": true, "grid": true, "gridcell": true, "group": true,
	"heading": true, "img": true, "link": true, "list": true,
	"listbox": true, "listitem": true, "log": true, "main": true,
	"marquee": true, "math": true, "menu": true, "menubar": true,
	"menuitem": true, "menuitemcheckbox": true, "menuitemradio": true,
	"navigation": true, "none": true, "note": true, "option": true,
	"presentation": true, "progressbar": true, "radio": true,
	"radiogroup": true, "region": true, "row": true, "rowgroup": true,
	"rowheader": true, "scrollbar": true, "search": true, "searchbox": true,
	"separator": true, "slider": true, "spinbutton": true, "status": true,
	"switch": true, "tab": true, "table": true, "tablist": true,
	"tabpanel": true, "term": true, "textbox": true, "timer": true,
	"toolbar": true, "tooltip": true, "tree": true, "treegrid": true,
	"treeitem": true,
}

// nameFromContentRoles are roles whose accessible name is computed by
// concatenating descendant text contributions when no label/labelledby
// mechanism applies.
var nameFromContentRoles = map[Role]bool{
	RoleButton: true, RoleLink: true, RoleHeading: true, RoleCell: true,
	RoleColumnHeader: true, RoleRowHeader: true, RoleGridCell: true,
	RoleTab: true, RoleTooltip: true, RoleOption: true, RoleMenuItem: true,
	RoleListItem: true, RoleTreeItem: true, RoleSwitch: true,
	RoleCheckbox: true, RoleRadio: true, RoleTerm: true, RoleDefinition: true,
	RoleNone: false,
}

// landmarkSectioningAncestors suppresses the banner/contentinfo mapping of
// header/footer elements when nested inside one of these.
var landmarkSectioningAncestors = map[string]bool{
	"ARTICLE": true, "ASIDE": true, "MAIN": true, "NAV": true, "SECTION": true,
}

// resolveCtx threads ancestor-dependent state through role resolution
// without global variables, per the "bounded traversal context" design note.
type resolveCtx struct {
	ancestorTags  []string // enclosing tag names, outermost first
	enclosingList []Role   // enclosing TABLE/GRID/TREEGRID implicit/explicit role, innermost last
}

func (c *resolveCtx) hasAncestorTag(tag string) bool {
	for _, t := range c.ancestorTags {
		if t == tag {
			return true
		}
	}
	return false
}

// explicitRole returns the element's explicit role, if valid and present.
func explicitRole(n Node) (Role, bool) {
	raw, ok := n.Attr("role")
	if !ok {
		return "", false
	}
	for _, tok := range strings.Fields(raw) {
		tok = strings.ToLower(tok)
		if explicitRoles[tok] {
			return Role(tok), true
		}
	}
	return "", false
}

// isGlobalAriaAttr reports whether name is one of the ARIA attributes that
// apply to any element (used by presentation-conflict resolution).
func isGlobalAriaAttr(name string) bool {
	switch name {
	case "aria-atomic", "aria-busy", "aria-controls", "aria-current",
		"aria-describedby", "aria-details", "aria-disabled", "aria-dropeffect",
		"aria-errormessage", "aria-flowto", "aria-grabbed", "aria-haspopup",
		"aria-hidden", "aria-invalid", "aria-keyshortcuts", "aria-label",
		"aria-labelledby", "aria-live", "aria-owns", "aria-relevant",
		"aria-roledescription":
		return true
	}
	return false
}

func hasGlobalAriaAttr(n Node) bool {
	for _, attr := range []string{
		"aria-atomic", "aria-busy", "aria-controls", "aria-current",
		"aria-describedby", "aria-details", "aria-disabled", "aria-dropeffect",
		"aria-errormessage", "aria-flowto", "aria-grabbed", "aria-haspopup",
		"aria-hidden", "aria-invalid", "aria-keyshortcuts", "aria-label",
		"aria-labelledby", "aria-live", "aria-owns", "aria-relevant",
		"aria-roledescription",
	} {
		if _, ok := n.Attr(attr); ok {
			return true
		}
	}
	return false
}

// nativelyFocusable reports whether tag is focusable without a tabindex.
func nativelyFocusable(n Node) bool {
	switch n.Tag() {
	case "A", "AREA":
		_, hasHref := n.Attr("href")
		return hasHref
	case "BUTTON", "SELECT", "TEXTAREA", "SUMMARY":
		return true
	case "INPUT":
		t, _ := n.Attr("type")
		return !strings.EqualFold(t, "hidden")
	}
	return false
}

func isFocusable(n Node) bool {
	if _, ok := n.Attr("tabindex"); ok {
		return true
	}
	return nativelyFocusable(n)
}

// hasPresentationConflict reports whether an element whose role resolves to
// presentation/none should be promoted back to its implicit role because it
// carries a global ARIA attribute or is focusable.
func hasPresentationConflict(n Node) bool {
	return hasGlobalAriaAttr(n) || isFocusable(n)
}

// implicitRole computes the tag-driven implicit role. ctx carries ancestor
// state for the handful of rules (header/footer nesting, table-cell
// context) that need it.
func implicitRole(n Node, ctx *resolveCtx) Role {
	tag := n.Tag()
	switch tag {
	case "A", "AREA":
		if _, ok := n.Attr("href"); ok {
			return RoleLink
		}
		return RoleGeneric
	case "BUTTON":
		return RoleButton
	case "DETAILS":
		return RoleGroup
	case "DIALOG":
		return RoleDialog
	case "H1", "H2", "H3", "H4", "H5", "H6":
		return RoleHeading
	case "HEADER":
		if ctx.hasAnyAncestorTag(landmarkSectioningAncestors) {
			return RoleGeneric
		}
		return RoleBanner
	case "FOOTER":
		if ctx.hasAnyAncestorTag(landmarkSectioningAncestors) {
			return RoleGeneric
		}
		return RoleContentInfo
	case "IMG":
		alt, hasAlt := n.Attr("alt")
		_, hasTitle := n.Attr("title")
		if hasAlt && alt == "" && !hasTitle && !hasGlobalAriaAttr(n) && !isFocusable(n) {
			return RolePresentation
		}
		return RoleImg
	case "INPUT":
		return implicitInputRole(n)
	case "SELECT":
		multiple := attrPresent(n, "multiple")
		size := attrInt(n, "size", 1)
		if multiple || size > 1 {
			return RoleListbox
		}
		return RoleCombobox
	case "OPTION":
		return RoleOption
	case "TABLE":
		return RoleTable
	case "THEAD", "TBODY", "TFOOT":
		return RoleRowGroup
	case "TR":
		return RoleRow
	case "TD":
		return tableCellRole(ctx, RoleCell)
	case "TH":
		scope, _ := n.Attr("scope")
		if strings.EqualFold(scope, "row") {
			return tableCellRole(ctx, RoleRowHeader)
		}
		return tableCellRole(ctx, RoleColumnHeader)
	case "TEXTAREA":
		return RoleTextbox
	case "SVG":
		return RoleImg
	case "UL", "OL":
		return RoleList
	case "LI":
		if ctx.hasAnyAncestorTag(map[string]bool{"UL": true, "OL": true, "MENU": true}) {
			return RoleListItem
		}
		return RoleGeneric
	case "NAV":
		return RoleNavigation
	case "MAIN":
		return RoleMain
	case "ASIDE":
		return RoleComplementary
	case "ARTICLE":
		return RoleArticle
	case "SECTION":
		if hasAccessibleNameHint(n) {
			return RoleRegion
		}
		return RoleGeneric
	case "FORM":
		if hasAccessibleNameHint(n) {
			return RoleForm
		}
		return RoleGeneric
	case "LABEL":
		return RoleGeneric
	case "FIELDSET":
		return RoleGroup
	case "LEGEND":
		return RoleGeneric
	case "FIGURE":
		return RoleFigure
	case "CAPTION":
		return RoleGeneric
	case "HR":
		return RoleSeparator
	case "PROGRESS":
		return RoleProgressBar
	case "METER":
		return RoleGeneric
	case "DL":
		return RoleGroup
	case "DT":
		return RoleTerm
	case "DD":
		return RoleDefinition
	case "P", "DIV", "SPAN":
		return RoleGeneric
	}
	return RoleGeneric
}

func tableCellRole(ctx *resolveCtx, base Role) Role {
	if len(ctx.enclosingList) == 0 {
		return base
	}
	switch ctx.enclosingList[len(ctx.enclosingList)-1] {
	case RoleGrid, RoleTreeGrid:
		if base == RoleRowHeader || base == RoleColumnHeader {
			return base
		}
		return RoleGridCell
	default:
		return base
	}
}

func implicitInputRole(n Node) Role {
	typ, _ := n.Attr("type")
	switch strings.ToLower(typ) {
	case "checkbox":
		return RoleCheckbox
	case "radio":
		return RoleRadio
	case "range":
		return RoleSlider
	case "number":
		return RoleSpinButton
	case "hidden":
		return ""
	case "file":
		return RoleButton
	case "button", "submit", "reset", "image":
		return RoleButton
	case "search":
		if _, ok := n.Attr("list"); ok {
			return RoleCombobox
		}
		return RoleSearchBox
	case "email", "tel", "url", "text", "":
		if _, ok := n.Attr("list"); ok {
			return RoleCombobox
		}
		return RoleTextbox
	case "password":
		return RoleTextbox
	default:
		return RoleTextbox
	}
}

func hasAccessibleNameHint(n Node) bool {
	if v, ok := n.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return true
	}
	_, ok := n.Attr("aria-labelledby")
	return ok
}

func attrPresent(n Node, name string) bool {
	_, ok := n.Attr(name)
	return ok
}

func attrInt(n Node, name string, def int) int {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	val := 0
	neg := false
	for i, r := range v {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return def
		}
		val = val*10 + int(r-'0')
	}
	if neg {
		val = -val
	}
	return val
}

func (c *resolveCtx) hasAnyAncestorTag(set map[string]bool) bool {
	for _, t := range c.ancestorTags {
		if set[t] {
			return true
		}
	}
	return false
}
