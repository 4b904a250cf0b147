package aria

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDropsFilteredPrefixLines(t *testing.T) {
	rendered := "- link \"Home\":\n  - /url: /home\n"
	out := Compress(rendered, nil)
	require.NotContains(t, out, "/url:")
}

func TestCompressAbbreviatesListitemAndLink(t *testing.T) {
	rendered := "- listitem \"One\"\n- link \"Two\""
	out := Compress(rendered, nil)
	require.Contains(t, out, "li \"One\"")
	require.Contains(t, out, "a \"Two\"")
}

func TestCompressStripsRefAttrName(t *testing.T) {
	rendered := `- button "Save" [ref=s1e1]`
	out := Compress(rendered, nil)
	require.Contains(t, out, "[s1e1]")
	require.NotContains(t, out, "ref=")
}

func TestCompressCollapsesTextLines(t *testing.T) {
	rendered := `- text: "Hello"`
	out := Compress(rendered, nil)
	require.Equal(t, `"Hello"`, out)
}

func TestCompressRewritesHeadingLevel(t *testing.T) {
	rendered := `- heading "Title" [level=2]`
	out := Compress(rendered, nil)
	require.Equal(t, `h2 "Title"`, out)
}

func TestCompressDedupesConsecutiveNames(t *testing.T) {
	rendered := "- link \"Home\"\n- link \"Home\"\n- link \"Other\""
	out := Compress(rendered, nil)
	lines := strings.Split(out, "\n")
	require.Equal(t, `a "Home"`, lines[0])
	require.Contains(t, lines[1], "[same as above]")
	require.Contains(t, lines[2], `"Other"`)
}

func TestCompressIsIdempotent(t *testing.T) {
	rendered := "- link \"Home\"\n- listitem \"Two\" [ref=s1e1]"
	once := Compress(rendered, nil)
	twice := Compress(once, nil)
	require.Equal(t, once, twice)
}
