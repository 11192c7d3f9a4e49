package subtitle

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// brace-delimited inline override sequence, e.g. {\i1\b1}
	overrideSequence = regexp.MustCompile(`\{[^}]*\}`)

	// tags recognized inside an override sequence; everything else in the
	// sequence is ignored
	overrideTag = regexp.MustCompile(`\\[ibusp][0-9]|\\r[a-zA-Z_0-9 ]*`)
)

// fragment of event text with its resolved style
type StyledFragment struct {
	Text  string
	Style Style
}

// ParseTags splits text on override sequences and returns each literal
// fragment paired with its computed style: the base style modified by
// every override sequence preceding the fragment, applied left to right.
//
// The style for each fragment is recomputed from base, so a reset tag
// anywhere before the fragment wins over earlier non-reset tags. The
// whitespace escapes \h, \n and \N pass through as literal text.
func ParseTags(text string, base Style, styles *OrderedMap[Style]) []StyledFragment {
	fragments := overrideSequence.Split(text, -1)
	if len(fragments) == 1 {
		return []StyledFragment{{Text: text, Style: base}}
	}

	overrides := overrideSequence.FindAllString(text, -1)
	result := make([]StyledFragment, len(fragments))
	var prefix strings.Builder
	for i, fragment := range fragments {
		result[i] = StyledFragment{
			Text:  fragment,
			Style: applyOverrides(prefix.String(), base, styles),
		}
		if i < len(overrides) {
			prefix.WriteString(overrides[i])
		}
	}
	return result
}

// applyOverrides folds every recognized tag in seq over a fresh copy of
// the base style.
func applyOverrides(seq string, base Style, styles *OrderedMap[Style]) Style {
	s := base
	for _, tag := range overrideTag.FindAllString(seq, -1) {
		switch {
		case tag == `\r`:
			// reset to the original line style
			s = base
		case strings.HasPrefix(tag, `\r`):
			// reset to a named style; unknown names leave the
			// accumulated style untouched
			if styles != nil {
				if named, ok := styles.Get(tag[2:]); ok {
					s = named
				}
			}
		default:
			on := strings.Contains(tag, "1")
			switch tag[1] {
			case 'i':
				s.Italic = on
			case 'b':
				s.Bold = on
			case 'u':
				s.Underline = on
			case 's':
				s.Strikeout = on
			case 'p':
				scale, err := strconv.Atoi(tag[2:])
				if err != nil {
					continue
				}
				s.Drawing = scale > 0
			}
		}
	}
	return s
}
