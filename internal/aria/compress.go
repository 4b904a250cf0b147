package aria

import (
	"regexp"
	"strings"
)

// DefaultFilteredPrefixes is the line-prefix denylist the compressor drops
// by default, per spec.md §4.2.
var DefaultFilteredPrefixes = []string{"/url:"}

var (
	quotedRe  = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	refAttrRe = regexp.MustCompile(`\[ref=([^\]]+)\]`)
	headingRe = regexp.MustCompile(`^heading ("(?:[^"\\]|\\.)*") \[level=(\d+)\](.*)$`)
	textRe    = regexp.MustCompile(`^text: ("(?:[^"\\]|\\.)*")$`)
)

// Compress implements the Action Loop's snapshot compressor: it trims each
// rendered line, drops filtered-prefix lines, applies the fixed
// ARIA_TRANSFORMATIONS substitutions, and collapses consecutive duplicate
// quoted names. The result is lossy for human readability only; every ref
// value survives intact.
func Compress(rendered string, filteredPrefixes []string) string {
	if filteredPrefixes == nil {
		filteredPrefixes = DefaultFilteredPrefixes
	}

	var lines []string
	for _, raw := range strings.Split(rendered, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "- ")
		if line == "" {
			continue
		}
		if hasFilteredPrefix(line, filteredPrefixes) {
			continue
		}
		lines = append(lines, applyAriaTransformations(line))
	}

	dedupeConsecutiveNames(lines)

	return strings.Join(lines, "\n")
}

func hasFilteredPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// applyAriaTransformations applies the fixed, ordered ARIA_TRANSFORMATIONS
// substitution list to a single compressor line.
func applyAriaTransformations(line string) string {
	line = replaceRolePrefix(line, "listitem", "li")
	line = refAttrRe.ReplaceAllString(line, "[$1]")
	line = replaceRolePrefix(line, "link", "a")
	if m := textRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := headingRe.FindStringSubmatch(line); m != nil {
		return "h" + m[2] + " " + m[1] + m[3]
	}
	return line
}

// replaceRolePrefix swaps a role token at the start of line for its
// abbreviation, only when it is a whole token (followed by space, '[', ':',
// or end of line) so it never matches as a prefix of an unrelated role.
func replaceRolePrefix(line, from, to string) string {
	if !strings.HasPrefix(line, from) {
		return line
	}
	rest := line[len(from):]
	if rest != "" && rest[0] != ' ' && rest[0] != '[' && rest[0] != ':' {
		return line
	}
	return to + rest
}

// dedupeConsecutiveNames replaces a line's quoted text with
// "[same as above]" when it equals the previous non-placeholder line's
// quoted text, per spec.md §4.2 step 4. Mutates lines in place.
func dedupeConsecutiveNames(lines []string) {
	last := ""
	for i, line := range lines {
		m := quotedRe.FindString(line)
		if m == "" {
			continue
		}
		if last != "" && m == last {
			lines[i] = quotedRe.ReplaceAllLiteralString(line, "[same as above]")
			continue
		}
		last = m
	}
}
