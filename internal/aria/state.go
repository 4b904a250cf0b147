package aria

import "strings"

// States holds the optional state flags a node may carry. Zero values mean
// "not applicable / not set"; Renderer omits unset flags entirely.
type States struct {
	Checked  string // "true" | "false" | "mixed", or "" if not applicable
	Disabled bool
	Expanded *bool
	Level    int // 0 means unset
	Pressed  string
	Selected *bool
}

// computeStates derives the state flags for n given its resolved role,
// using native tag state where present and falling back to aria-* attrs.
// disabledByFieldset is true when n sits inside a <fieldset disabled>
// ancestor (outside that fieldset's own <legend>), per the propagation
// rule in spec.md §4.1 step 4.
func computeStates(n Node, role Role, disabledByFieldset bool) States {
	var s States

	switch role {
	case RoleCheckbox, RoleRadio, RoleSwitch:
		s.Checked = checkedState(n)
	case RoleMenuItem:
		if _, ok := n.Attr("aria-checked"); ok {
			s.Checked = ariaTriState(n, "aria-checked")
		}
	}

	s.Disabled = disabledByFieldset || nativeDisabled(n) || ariaBool(n, "aria-disabled")

	if role == RoleButton || role == RoleGroup || strings.HasPrefix(string(role), "tab") {
		if n.Tag() == "DETAILS" {
			open := attrPresent(n, "open")
			s.Expanded = &open
		} else if v, ok := n.Attr("aria-expanded"); ok {
			b := strings.EqualFold(v, "true")
			s.Expanded = &b
		}
	} else if v, ok := n.Attr("aria-expanded"); ok {
		b := strings.EqualFold(v, "true")
		s.Expanded = &b
	}

	if role == RoleHeading {
		switch n.Tag() {
		case "H1":
			s.Level = 1
		case "H2":
			s.Level = 2
		case "H3":
			s.Level = 3
		case "H4":
			s.Level = 4
		case "H5":
			s.Level = 5
		case "H6":
			s.Level = 6
		}
		if _, ok := n.Attr("aria-level"); ok {
			if lvl := attrInt(n, "aria-level", 0); lvl > 0 {
				s.Level = lvl
			}
		}
	}

	if role == RoleButton {
		if v, ok := n.Attr("aria-pressed"); ok {
			s.Pressed = ariaTriStateValue(v)
		}
	}

	if role == RoleOption || role == RoleTab || role == RoleRow {
		if n.Tag() == "OPTION" {
			sel := attrPresent(n, "selected")
			s.Selected = &sel
		} else if v, ok := n.Attr("aria-selected"); ok {
			b := strings.EqualFold(v, "true")
			s.Selected = &b
		}
	}

	return s
}

func checkedState(n Node) string {
	if v, ok := n.Attr("aria-checked"); ok {
		return ariaTriStateValue(v)
	}
	if n.Tag() == "INPUT" {
		if attrPresent(n, "checked") {
			return "true"
		}
		return "false"
	}
	return "false"
}

func ariaTriState(n Node, attr string) string {
	v, _ := n.Attr(attr)
	return ariaTriStateValue(v)
}

func ariaTriStateValue(v string) string {
	switch strings.ToLower(v) {
	case "true":
		return "true"
	case "mixed":
		return "mixed"
	default:
		return "false"
	}
}

func ariaBool(n Node, attr string) bool {
	v, ok := n.Attr(attr)
	return ok && strings.EqualFold(v, "true")
}

func nativeDisabled(n Node) bool {
	switch n.Tag() {
	case "INPUT", "BUTTON", "SELECT", "TEXTAREA", "OPTION", "FIELDSET", "OPTGROUP":
		return attrPresent(n, "disabled")
	}
	return false
}
