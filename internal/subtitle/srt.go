package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
)

type SRTReadOptions struct {
	// KeepHTMLTags keeps all HTML tags as-is instead of converting the
	// supported subset to override tags. Overrides KeepUnknownHTMLTags.
	KeepHTMLTags bool
	// KeepUnknownHTMLTags keeps tags outside the supported subset verbatim
	// instead of stripping them.
	KeepUnknownHTMLTags bool
	// KeepNewlines keeps literal newlines instead of collapsing them into
	// the \N override escape.
	KeepNewlines bool
	// KeepOriginalNewlines skips normalizing \r\n and \r to \n.
	KeepOriginalNewlines bool
	Warn                 WarnFunc
}

type SRTWriteOptions struct {
	// ApplyStyles enables wrapping styled fragments in HTML tags.
	ApplyStyles bool
	// KeepSSATags passes inline override tags through verbatim instead of
	// converting them; whitespace escapes are still expanded.
	KeepSSATags bool
	Warn        WarnFunc
}

func DefaultSRTWriteOptions() *SRTWriteOptions {
	return &SRTWriteOptions{ApplyStyles: true}
}

var (
	blankLinePattern     = regexp.MustCompile(`^\s*$`)
	bareNumberPattern    = regexp.MustCompile(`^\s*\d+\s*$`)
	trailingIndexPattern = regexp.MustCompile(`\n+ *\d+ *$`)

	// the supported HTML subset, tolerant of interior whitespace
	htmlItalicOpen     = regexp.MustCompile(`(?i)< *i *>`)
	htmlItalicClose    = regexp.MustCompile(`(?i)< */ *i *>`)
	htmlStrikeoutOpen  = regexp.MustCompile(`(?i)< *s *>`)
	htmlStrikeoutClose = regexp.MustCompile(`(?i)< */ *s *>`)
	htmlUnderlineOpen  = regexp.MustCompile(`(?i)< *u *>`)
	htmlUnderlineClose = regexp.MustCompile(`(?i)< */ *u *>`)
	htmlBoldOpen       = regexp.MustCompile(`(?i)< *b *>`)
	htmlBoldClose      = regexp.MustCompile(`(?i)< */ *b *>`)

	otherHTMLTagPattern = regexp.MustCompile(`< */? *[a-zA-Z][^>]*>`)

	repeatedNewlines = regexp.MustCompile(`\n+`)
)

// GuessSubRip reports whether data looks like a SubRip file: not
// SubStation, not WebVTT, and containing a line with exactly two
// timestamps.
func GuessSubRip(data []byte) bool {
	if bytes.Contains(data, []byte("[Script Info]")) || bytes.Contains(data, []byte("[V4+ Styles]")) {
		return false
	}
	if bytes.HasPrefix(bytes.TrimLeftFunc(data, unicode.IsSpace), []byte("WEBVTT")) {
		return false
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(timestampPattern.FindAll(line, -1)) == 2 {
			return true
		}
	}
	return false
}

// ReadSubRip parses an SRT file, replacing the event sequence of doc.
// Lines before the first cue boundary are discarded.
func ReadSubRip(doc *Document, r io.Reader, opts *SRTReadOptions) error {
	if opts == nil {
		opts = &SRTReadOptions{}
	}

	type cue struct {
		start, end int64
		lines      []string
	}
	var cues []cue

	// lines are read with their terminators so KeepOriginalNewlines can
	// preserve the input's newline convention
	reader := bufio.NewReader(r)
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" {
			stamps := timestampPattern.FindAllStringSubmatch(line, -1)
			if len(stamps) == 2 {
				cues = append(cues, cue{
					start: timesFromGroups(stamps[0]),
					end:   timesFromGroups(stamps[1]),
				})
			} else if len(cues) > 0 {
				cues[len(cues)-1].lines = append(cues[len(cues)-1].lines, line)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("error reading SubRip input: %w", readErr)
		}
	}

	doc.Events = make([]Event, 0, len(cues))
	for _, c := range cues {
		ev := NewEvent()
		ev.Start = msDuration(c.start)
		ev.End = msDuration(c.end)
		ev.Text = prepareSubRipText(c.lines, opts)
		doc.Events = append(doc.Events, ev)
	}
	return nil
}

func prepareSubRipText(lines []string, opts *SRTReadOptions) string {
	// A cue body of blank lines followed by a bare integer is the index
	// number of the next cue arriving early; the cue is really empty.
	if len(lines) >= 2 {
		allBlank := true
		for _, line := range lines[:len(lines)-1] {
			if !blankLinePattern.MatchString(line) {
				allBlank = false
				break
			}
		}
		if allBlank && bareNumberPattern.MatchString(lines[len(lines)-1]) {
			return ""
		}
	}

	s := strings.TrimSpace(strings.Join(lines, ""))
	if !opts.KeepOriginalNewlines {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	s = trailingIndexPattern.ReplaceAllString(s, "")
	if !opts.KeepHTMLTags {
		s = htmlItalicOpen.ReplaceAllString(s, `{\i1}`)
		s = htmlItalicClose.ReplaceAllString(s, `{\i0}`)
		s = htmlStrikeoutOpen.ReplaceAllString(s, `{\s1}`)
		s = htmlStrikeoutClose.ReplaceAllString(s, `{\s0}`)
		s = htmlUnderlineOpen.ReplaceAllString(s, `{\u1}`)
		s = htmlUnderlineClose.ReplaceAllString(s, `{\u0}`)
		s = htmlBoldOpen.ReplaceAllString(s, `{\b1}`)
		s = htmlBoldClose.ReplaceAllString(s, `{\b0}`)
	}
	if !(opts.KeepHTMLTags || opts.KeepUnknownHTMLTags) {
		s = otherHTMLTagPattern.ReplaceAllString(s, "")
	}
	if !opts.KeepNewlines {
		s = strings.ReplaceAll(s, "\n", `\N`)
	}
	return s
}

// WriteSubRip serializes the visible events of doc as numbered SRT cues.
// A cue whose resolved style enters drawing mode anywhere is skipped
// entirely without consuming a cue number.
func WriteSubRip(doc *Document, w io.Writer, opts *SRTWriteOptions) error {
	if opts == nil {
		opts = DefaultSRTWriteOptions()
	}
	warn := opts.Warn

	var sb strings.Builder
	lineno := 1
	for _, ev := range visibleEvents(doc.Events) {
		text, usable := prepareSubRipOutput(&ev, doc, opts)
		if !usable {
			continue
		}
		start := subRipTimestamp(durationMS(ev.Start), warn)
		end := subRipTimestamp(durationMS(ev.End), warn)
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", lineno, start, end, text)
		lineno++
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("error writing SubRip output: %w", err)
	}
	return nil
}

// prepareSubRipOutput expands whitespace escapes and converts override
// styling to the HTML subset. The second return value is false when the
// cue contains a drawing fragment, which SubRip cannot represent.
func prepareSubRipOutput(ev *Event, doc *Document, opts *SRTWriteOptions) (string, bool) {
	text := strings.ReplaceAll(ev.Text, `\h`, " ")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\N`, "\n")

	var body strings.Builder
	if opts.KeepSSATags {
		body.WriteString(text)
	} else {
		base := doc.Style(ev.Style)
		for _, fragment := range ParseTags(text, base, doc.Styles) {
			if fragment.Style.Drawing {
				return "", false
			}
			t := fragment.Text
			if opts.ApplyStyles {
				if fragment.Style.Italic {
					t = "<i>" + t + "</i>"
				}
				if fragment.Style.Underline {
					t = "<u>" + t + "</u>"
				}
				if fragment.Style.Strikeout {
					t = "<s>" + t + "</s>"
				}
			}
			body.WriteString(t)
		}
	}
	return repeatedNewlines.ReplaceAllString(strings.TrimSpace(body.String()), "\n"), true
}
