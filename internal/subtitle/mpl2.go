package subtitle

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// MPL2 is a plain-text format with decisecond timestamps:
//
//	[91][103] line one|/italic line two
var mpl2LinePattern = regexp.MustCompile(`(?m)^\[(-?\d+)\]\[(-?\d+)\](.*)`)

// GuessMPL2 reports whether data contains an MPL2-shaped line.
func GuessMPL2(data []byte) bool {
	return mpl2LinePattern.Match(data)
}

// ReadMPL2 parses an MPL2 file, replacing the event sequence of doc.
// Lines starting with a slash are italic; the pipe separates text lines.
func ReadMPL2(doc *Document, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading MPL2 input: %w", err)
	}

	matches := mpl2LinePattern.FindAllStringSubmatch(string(data), -1)
	doc.Events = make([]Event, 0, len(matches))
	for _, m := range matches {
		ev := NewEvent()
		ev.Start = msDuration(atoi64(m[1]) * 100)
		ev.End = msDuration(atoi64(m[2]) * 100)
		ev.Text = prepareMPL2Text(m[3])
		doc.Events = append(doc.Events, ev)
	}
	return nil
}

func prepareMPL2Text(text string) string {
	parts := strings.Split(text, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "/") {
			part = `{\i1}` + strings.TrimSpace(part[1:]) + `{\i0}`
		}
		out = append(out, part)
	}
	return strings.Join(out, `\N`)
}

// WriteMPL2 serializes the visible events of doc as plain text, one line
// per event. Styling is not represented.
func WriteMPL2(doc *Document, w io.Writer) error {
	var sb strings.Builder
	for _, ev := range visibleEvents(doc.Events) {
		text := strings.ReplaceAll(ev.PlainText(), "\n", "|")
		fmt.Fprintf(&sb, "[%d][%d] %s\n", durationMS(ev.Start)/100, durationMS(ev.End)/100, text)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("error writing MPL2 output: %w", err)
	}
	return nil
}
