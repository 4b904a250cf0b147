package aria

import "strings"

// ParseContentValue tokenizes a CSS `content` property value and returns the
// author-intended text alternative. It understands quoted strings,
// attr(name) (resolved via attrLookup), and the `<prefix> / <alt>` slash
// separator (content's alt-text syntax) — enough to recover the text a
// ::before/::after pseudo-element contributes to an accessible name.
// Counters, url(), image-set(), and keywords like `normal`/`none` are
// recognized and skipped rather than causing a parse error.
func ParseContentValue(raw string, attrLookup func(name string) (string, bool)) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "none" || raw == "normal" {
		return ""
	}

	toks := tokenizeContent(raw)

	// The "/" separates the main value from the alt text; when present,
	// the alt text is the accessible contribution (CSS Generated Content
	// for Paged Media / alt-text syntax).
	if i := indexOfSlash(toks); i >= 0 {
		toks = toks[i+1:]
	}

	var b strings.Builder
	for _, t := range toks {
		switch t.kind {
		case tokString:
			b.WriteString(t.value)
		case tokAttr:
			if attrLookup != nil {
				if v, ok := attrLookup(t.value); ok {
					b.WriteString(v)
				}
			}
		}
	}
	return b.String()
}

type contentTokenKind int

const (
	tokString contentTokenKind = iota
	tokAttr
	tokSlash
	tokOther
)

type contentToken struct {
	kind  contentTokenKind
	value string
}

func indexOfSlash(toks []contentToken) int {
	for i, t := range toks {
		if t.kind == tokSlash {
			return i
		}
	}
	return -1
}

// tokenizeContent is a minimal CSS value tokenizer covering exactly the
// constructs needed for accessible-name computation: quoted strings,
// attr(ident), the bare "/" separator, and everything else collapsed into
// opaque "other" tokens (counters, url(...), gradients, keywords).
func tokenizeContent(s string) []contentToken {
	var toks []contentToken
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			var b strings.Builder
			for j < n && s[j] != quote {
				if s[j] == '\\' && j+1 < n {
					j++
				}
				b.WriteByte(s[j])
				j++
			}
			toks = append(toks, contentToken{tokString, b.String()})
			i = j + 1
		case c == '/':
			toks = append(toks, contentToken{kind: tokSlash})
			i++
		case strings.HasPrefix(s[i:], "attr("):
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				i = n
				break
			}
			inner := s[i+len("attr(") : i+end]
			inner = strings.TrimSpace(strings.Fields(inner)[0])
			toks = append(toks, contentToken{tokAttr, inner})
			i += end + 1
		default:
			j := i
			for j < n && s[j] != ' ' && s[j] != '\t' && s[j] != '\n' && s[j] != '/' {
				j++
			}
			toks = append(toks, contentToken{tokOther, s[i:j]})
			i = j
		}
	}
	return toks
}
