package aria

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Render turns an Aria tree into the YAML-ish text form described in
// spec.md §4.2. The synthetic fragment root is elided; its children render
// starting at indent 0.
func Render(root *AriaNode) string {
	var lines []string
	for _, c := range root.Children {
		lines = append(lines, renderChild(c, 0)...)
	}
	return strings.Join(lines, "\n")
}

func renderChild(c AriaChild, indent int) []string {
	prefix := strings.Repeat("  ", indent) + "- "
	if c.Node == nil {
		return []string{prefix + "text: " + jsonQuote(c.Text)}
	}
	return renderNode(c.Node, indent)
}

func renderNode(n *AriaNode, indent int) []string {
	prefix := strings.Repeat("  ", indent) + "- "
	header := prefix + string(n.Role)
	if n.Name != "" {
		header += " " + jsonQuote(n.Name)
	}
	if flags := renderStateFlags(n.States); flags != "" {
		header += " " + flags
	}
	if n.Ref != "" {
		header += fmt.Sprintf(" [ref=%s]", n.Ref)
	}
	if n.Cursor == "pointer" {
		header += " [cursor=pointer]"
	}

	var body []string
	for _, key := range sortedPropKeys(n.Props) {
		body = append(body, strings.Repeat("  ", indent+1)+fmt.Sprintf("- /%s: %s", key, n.Props[key]))
	}
	for _, c := range n.Children {
		body = append(body, renderChild(c, indent+1)...)
	}

	if len(body) == 0 {
		return []string{header}
	}
	return append([]string{header + ":"}, body...)
}

func sortedPropKeys(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderStateFlags renders the set state flags in the fixed order
// checked, disabled, expanded, level, pressed, selected.
func renderStateFlags(s States) string {
	var parts []string
	if s.Checked != "" {
		parts = append(parts, "checked="+s.Checked)
	}
	if s.Disabled {
		parts = append(parts, "disabled")
	}
	if s.Expanded != nil {
		parts = append(parts, fmt.Sprintf("expanded=%t", *s.Expanded))
	}
	if s.Level > 0 {
		parts = append(parts, fmt.Sprintf("level=%d", s.Level))
	}
	if s.Pressed != "" {
		parts = append(parts, "pressed="+s.Pressed)
	}
	if s.Selected != nil {
		parts = append(parts, fmt.Sprintf("selected=%t", *s.Selected))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func jsonQuote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
