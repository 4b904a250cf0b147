package browser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nebolabs/webagent/internal/aria"
)

func TestLiveDOMIndexesIDsLabelsAndHIDs(t *testing.T) {
	root := &jsNode{
		K: "e", Tag: "BODY", HID: "1",
		Children: []*jsNode{
			{K: "e", Tag: "LABEL", HID: "2", Attrs: map[string]string{"for": "email"}},
			{K: "e", Tag: "INPUT", HID: "3", Attrs: map[string]string{"id": "email"}},
		},
	}
	dom := newLiveDOM(root)

	byID, ok := dom.ByID("email")
	require.True(t, ok)
	require.Equal(t, "INPUT", byID.Tag())

	label, ok := dom.LabelFor("email")
	require.True(t, ok)
	require.Equal(t, "LABEL", label.Tag())

	_, ok = dom.ByID("missing")
	require.False(t, ok)

	require.Contains(t, dom.byHID, "3")
}

func TestLiveNodeIdentityPrefersHIDOverPointer(t *testing.T) {
	n1 := &jsNode{K: "e", Tag: "DIV", HID: "42"}
	n2 := &jsNode{K: "e", Tag: "DIV", HID: "42"}

	require.Equal(t, liveNode{n: n1}.Identity(), liveNode{n: n2}.Identity())
}

func TestLiveNodeIdentityFallsBackToPointerForTextNodes(t *testing.T) {
	n1 := &jsNode{K: "t", Text: "hello"}
	n2 := &jsNode{K: "t", Text: "hello"}

	require.NotEqual(t, liveNode{n: n1}.Identity(), liveNode{n: n2}.Identity())
	require.Equal(t, liveNode{n: n1}.Identity(), liveNode{n: n1}.Identity())
}

func TestLiveNodeKindDistinguishesTextFromElement(t *testing.T) {
	require.Equal(t, aria.TextNode, liveNode{n: &jsNode{K: "t"}}.Kind())
	require.Equal(t, aria.ElementNode, liveNode{n: &jsNode{K: "e"}}.Kind())
}

func TestLiveNodeDisplayDefaultsToBlockWhenUnset(t *testing.T) {
	require.Equal(t, "block", liveNode{n: &jsNode{}}.Display())
	require.Equal(t, "none", liveNode{n: &jsNode{Display: "none"}}.Display())
}

func TestLiveNodeChildrenShadowAndAssignedWrapIntoAriaNodes(t *testing.T) {
	n := &jsNode{
		Children: []*jsNode{{K: "e", Tag: "SPAN"}},
		Shadow:   []*jsNode{{K: "e", Tag: "DIV"}},
		Assigned: []*jsNode{{K: "t", Text: "slotted"}},
	}
	l := liveNode{n: n}

	require.Len(t, l.Children(), 1)
	require.Equal(t, "SPAN", l.Children()[0].Tag())
	require.Len(t, l.ShadowChildren(), 1)
	require.Len(t, l.AssignedNodes(), 1)
}

func TestLiveNodeChildrenReturnsNilForEmptySlice(t *testing.T) {
	require.Nil(t, liveNode{n: &jsNode{}}.Children())
}

func TestHidSelectorBuildsAttributeSelector(t *testing.T) {
	require.Equal(t, `[data-wa-hid="7"]`, hidSelector("7"))
}
