package aria

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessibleNamePrefersLabelledbyOverLabel(t *testing.T) {
	dom := parse(t, `<html><body>
		<span id="lbl">Labelled name</span>
		<input id="in" aria-labelledby="lbl" aria-label="ignored">
	</body></html>`)

	nc := newNameCache()
	in, _ := dom.ByID("in")
	name := accessibleName(in, RoleTextbox, dom, nc)
	require.Equal(t, "Labelled name", name)
}

func TestAccessibleNameUsesLabelForAssociation(t *testing.T) {
	dom := parse(t, `<html><body>
		<label for="in">Username</label>
		<input id="in">
	</body></html>`)

	nc := newNameCache()
	in, _ := dom.ByID("in")
	name := accessibleName(in, RoleTextbox, dom, nc)
	require.Equal(t, "Username", name)
}

func TestAccessibleNameFromContentConcatenatesChildren(t *testing.T) {
	dom := parse(t, `<html><body><button>Save <span>now</span></button></body></html>`)
	btn := dom.Root()
	var find func(Node) Node
	find = func(n Node) Node {
		if n.Tag() == "BUTTON" {
			return n
		}
		for _, c := range n.Children() {
			if f := find(c); f != nil {
				return f
			}
		}
		return nil
	}
	button := find(btn)
	require.NotNil(t, button)

	nc := newNameCache()
	name := accessibleName(button, RoleButton, dom, nc)
	require.Equal(t, "Save now", name)
}

func TestAccessibleNameCacheIsReentrantSafe(t *testing.T) {
	dom := parse(t, `<html><body>
		<span id="a">Part A</span>
		<div aria-labelledby="a" id="target">fallback text</div>
	</body></html>`)

	nc := newNameCache()
	target, _ := dom.ByID("target")
	name1 := accessibleName(target, RoleGroup, dom, nc)
	name2 := accessibleName(target, RoleGroup, dom, nc)
	require.Equal(t, name1, name2)
	require.Equal(t, "Part A", name1)
}
