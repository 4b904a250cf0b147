package aria

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *HTMLDOM {
	t.Helper()
	dom, err := ParseHTMLDOM(strings.NewReader(src))
	require.NoError(t, err)
	return dom
}

func TestBuildBasicRolesAndNames(t *testing.T) {
	dom := parse(t, `<html><body>
		<button>Save</button>
		<a href="/x">Go</a>
		<img src="i.png" alt="A cat">
		<input type="checkbox" checked>
	</body></html>`)

	tree := NewBuilder(dom, true).Build()
	rendered := Render(tree)

	require.Contains(t, rendered, `button "Save"`)
	require.Contains(t, rendered, `link "Go"`)
	require.Contains(t, rendered, `img "A cat"`)
	require.Contains(t, rendered, `checkbox`)
	require.Contains(t, rendered, `[checked=true]`)
}

func TestRefsAreUniqueWithinASnapshot(t *testing.T) {
	dom := parse(t, `<html><body>
		<button id="a">A</button>
		<button id="b">B</button>
		<a href="/x" id="c">C</a>
	</body></html>`)

	tree := NewBuilder(dom, true).Build()

	seen := map[string]bool{}
	walkRefs(tree, func(ref string) {
		require.False(t, seen[ref], "duplicate ref %q", ref)
		seen[ref] = true
	})
	require.NotEmpty(t, seen)
}

func TestRefsStableAcrossSnapshotsWhenRoleAndNameUnchanged(t *testing.T) {
	dom := parse(t, `<html><body><button id="a">Save</button></body></html>`)
	b := NewBuilder(dom, true)

	first := b.Build()
	second := b.Build()

	ref1 := firstRef(t, first)
	ref2 := firstRef(t, second)
	require.Equal(t, ref1, ref2)
}

func TestRefChangesWhenNameChanges(t *testing.T) {
	b := NewBuilder(parse(t, `<html><body><button id="a">Save</button></body></html>`), true)
	first := b.Build()
	ref1 := firstRef(t, first)

	b.dom = parse(t, `<html><body><button id="a">Discard</button></body></html>`)
	second := b.Build()
	ref2 := firstRef(t, second)

	require.NotEqual(t, ref1, ref2)
}

func TestPresentationRoleElidesUnlessConflict(t *testing.T) {
	dom := parse(t, `<html><body>
		<div role="presentation"><button>Inner</button></div>
		<div role="presentation" tabindex="0">Promoted</div>
	</body></html>`)

	rendered := Render(NewBuilder(dom, false).Build())
	require.Contains(t, rendered, `button "Inner"`)
	require.NotContains(t, rendered, "presentation")
}

func TestHiddenSubtreeExcluded(t *testing.T) {
	dom := parse(t, `<html><body>
		<div style="display:none"><button>Hidden</button></div>
		<button>Visible</button>
	</body></html>`)

	rendered := Render(NewBuilder(dom, false).Build())
	require.NotContains(t, rendered, "Hidden")
	require.Contains(t, rendered, "Visible")
}

func TestGenericFoldingSplicesSingleChild(t *testing.T) {
	dom := parse(t, `<html><body>
		<div><div><button>Deep</button></div></div>
	</body></html>`)

	rendered := Render(NewBuilder(dom, false).Build())
	require.Equal(t, 1, strings.Count(rendered, "button"))
	require.NotContains(t, rendered, "generic")
}

func walkRefs(n *AriaNode, fn func(string)) {
	if n.Ref != "" {
		fn(n.Ref)
	}
	for _, c := range n.Children {
		if c.Node != nil {
			walkRefs(c.Node, fn)
		}
	}
}

func firstRef(t *testing.T, n *AriaNode) string {
	t.Helper()
	var found string
	walkRefs(n, func(ref string) {
		if found == "" {
			found = ref
		}
	})
	require.NotEmpty(t, found)
	return found
}
