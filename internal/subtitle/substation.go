package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultHeaderNotice is the comment block written at the top of the
// [Script Info] section unless the caller overrides it.
const DefaultHeaderNotice = "Script generated by subconv\nhttps://github.com/textsubs/subconv"

type SubStationReadOptions struct {
	Warn WarnFunc
}

type SubStationWriteOptions struct {
	// HeaderNotice replaces the default comment block. Empty means default.
	HeaderNotice string
	Warn         WarnFunc
}

// semantic type of a SubStation field, driving both coercion on read and
// serialization on write
type fieldKind int

const (
	kindText fieldKind = iota
	kindFontName
	kindTime
	kindColor
	kindBool
	kindInt
	kindFloat
	kindMarked
	kindAlignment
)

type fieldSpec struct {
	name string
	kind fieldKind
}

// positional field layouts after the style/event name, per format
var styleFields = map[Format][]fieldSpec{
	FormatASS: {
		{"Fontname", kindFontName}, {"Fontsize", kindFloat},
		{"PrimaryColour", kindColor}, {"SecondaryColour", kindColor},
		{"OutlineColour", kindColor}, {"BackColour", kindColor},
		{"Bold", kindBool}, {"Italic", kindBool},
		{"Underline", kindBool}, {"StrikeOut", kindBool},
		{"ScaleX", kindFloat}, {"ScaleY", kindFloat},
		{"Spacing", kindFloat}, {"Angle", kindFloat},
		{"BorderStyle", kindInt}, {"Outline", kindFloat}, {"Shadow", kindFloat},
		{"Alignment", kindAlignment},
		{"MarginL", kindInt}, {"MarginR", kindInt}, {"MarginV", kindInt},
		{"Encoding", kindInt},
	},
	FormatSSA: {
		{"Fontname", kindFontName}, {"Fontsize", kindFloat},
		{"PrimaryColour", kindColor}, {"SecondaryColour", kindColor},
		{"TertiaryColour", kindColor}, {"BackColour", kindColor},
		{"Bold", kindBool}, {"Italic", kindBool},
		{"BorderStyle", kindInt}, {"Outline", kindFloat}, {"Shadow", kindFloat},
		{"Alignment", kindAlignment},
		{"MarginL", kindInt}, {"MarginR", kindInt}, {"MarginV", kindInt},
		{"AlphaLevel", kindInt}, {"Encoding", kindInt},
	},
}

var eventFields = map[Format][]fieldSpec{
	FormatASS: {
		{"Layer", kindInt}, {"Start", kindTime}, {"End", kindTime},
		{"Style", kindText}, {"Name", kindText},
		{"MarginL", kindInt}, {"MarginR", kindInt}, {"MarginV", kindInt},
		{"Effect", kindText}, {"Text", kindText},
	},
	FormatSSA: {
		{"Marked", kindMarked}, {"Start", kindTime}, {"End", kindTime},
		{"Style", kindText}, {"Name", kindText},
		{"MarginL", kindInt}, {"MarginR", kindInt}, {"MarginV", kindInt},
		{"Effect", kindText}, {"Text", kindText},
	},
}

var styleFormatLine = map[Format]string{
	FormatASS: "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding",
	FormatSSA: "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, TertiaryColour, BackColour, Bold, Italic, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, AlphaLevel, Encoding",
}

var eventFormatLine = map[Format]string{
	FormatASS: "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text",
	FormatSSA: "Format: Marked, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text",
}

var (
	assStylesPattern = regexp.MustCompile(`(?i)V4\+ Styles`)
	ssaStylesPattern = regexp.MustCompile(`(?i)V4 Styles`)

	// a section heading: up to 3 bytes of BOM slack, then brackets with at
	// least one lowercase letter inside (guards against uuencoded font
	// data looking like a heading)
	sectionHeadingPattern = regexp.MustCompile(`^.{0,3}\[[^\]]*[a-z][^\]]*\]`)

	attachmentHeadingPattern = regexp.MustCompile(`^(fontname|filename):\s+(\S+)`)
)

// GuessSubStation reports whether data looks like a SubStation file and
// which dialect it is. ASS wins over SSA since "V4 Styles" is a substring
// of "V4+ Styles".
func GuessSubStation(data []byte) (Format, bool) {
	if assStylesPattern.Match(data) {
		return FormatASS, true
	}
	if ssaStylesPattern.Match(data) {
		return FormatSSA, true
	}
	return "", false
}

func parseColor(v string) (Color, error) {
	v = strings.TrimSpace(v)
	var x uint64
	var err error
	if strings.HasPrefix(v, "&") {
		if len(v) < 3 {
			return Color{}, fmt.Errorf("invalid color value: %q", v)
		}
		x, err = strconv.ParseUint(v[2:], 16, 32)
	} else {
		x, err = strconv.ParseUint(v, 10, 32)
	}
	if err != nil {
		return Color{}, fmt.Errorf("invalid color value %q: %w", v, err)
	}
	return Color{
		R: uint8(x),
		G: uint8(x >> 8),
		B: uint8(x >> 16),
		A: uint8(x >> 24),
	}, nil
}

func colorToASS(c Color) string {
	return fmt.Sprintf("&H%08X", uint32(c.A)<<24|uint32(c.B)<<16|uint32(c.G)<<8|uint32(c.R))
}

func colorToSSA(c Color) string {
	return strconv.Itoa(int(uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// parseSignedTimestamp accepts an optional leading minus sign in front of
// either timestamp grammar.
func parseSignedTimestamp(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	sign := int64(1)
	if strings.HasPrefix(v, "-") {
		v = v[1:]
		sign = -1
	}
	ms, err := parseTimestamp(v)
	if err != nil {
		return 0, err
	}
	return msDuration(sign * ms), nil
}

// parseAlignment falls back to bottom-center on failure; the fallback is
// recoverable and reported through warn.
func parseAlignment(v string, format Format, warn WarnFunc) Alignment {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	var a Alignment
	if err == nil {
		if format == FormatSSA {
			a, err = AlignmentFromSSA(n)
		} else {
			a, err = AlignmentFromNumber(n)
		}
	}
	if err != nil {
		warn.warn("failed to parse alignment, using default", "value", v)
		return AlignBottomCenter
	}
	return a
}

func setStyleField(sty *Style, f fieldSpec, raw string, format Format, warn WarnFunc) error {
	switch f.kind {
	case kindFontName:
		sty.FontName = strings.TrimSpace(raw)
	case kindFloat:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return err
		}
		switch f.name {
		case "Fontsize":
			sty.FontSize = n
		case "ScaleX":
			sty.ScaleX = n
		case "ScaleY":
			sty.ScaleY = n
		case "Spacing":
			sty.Spacing = n
		case "Angle":
			sty.Angle = n
		case "Outline":
			sty.Outline = n
		case "Shadow":
			sty.Shadow = n
		}
	case kindColor:
		c, err := parseColor(raw)
		if err != nil {
			return err
		}
		switch f.name {
		case "PrimaryColour":
			sty.PrimaryColor = c
		case "SecondaryColour":
			sty.SecondaryColor = c
		case "OutlineColour", "TertiaryColour":
			sty.OutlineColor = c
		case "BackColour":
			sty.BackColor = c
		}
	case kindBool:
		b := strings.TrimSpace(raw) == "-1"
		switch f.name {
		case "Bold":
			sty.Bold = b
		case "Italic":
			sty.Italic = b
		case "Underline":
			sty.Underline = b
		case "StrikeOut":
			sty.Strikeout = b
		}
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		switch f.name {
		case "BorderStyle":
			sty.BorderStyle = n
		case "MarginL":
			sty.MarginL = n
		case "MarginR":
			sty.MarginR = n
		case "MarginV":
			sty.MarginV = n
		case "AlphaLevel":
			sty.AlphaLevel = n
		case "Encoding":
			sty.Encoding = n
		}
	case kindAlignment:
		sty.Alignment = parseAlignment(raw, format, warn)
	default:
		return fmt.Errorf("unexpected style field %q", f.name)
	}
	return nil
}

func setEventField(ev *Event, f fieldSpec, raw string) error {
	switch f.kind {
	case kindTime:
		t, err := parseSignedTimestamp(raw)
		if err != nil {
			return err
		}
		if f.name == "Start" {
			ev.Start = t
		} else {
			ev.End = t
		}
	case kindMarked:
		ev.Marked = strings.HasSuffix(raw, "1")
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		switch f.name {
		case "Layer":
			ev.Layer = n
		case "MarginL":
			ev.MarginL = n
		case "MarginR":
			ev.MarginR = n
		case "MarginV":
			ev.MarginV = n
		}
	case kindText:
		switch f.name {
		case "Style":
			ev.Style = raw
		case "Name":
			ev.Name = raw
		case "Effect":
			ev.Effect = raw
		case "Text":
			ev.Text = raw
		}
	default:
		return fmt.Errorf("unexpected event field %q", f.name)
	}
	return nil
}

// section state for the SubStation reader
type ssSection int

const (
	sectionNone ssSection = iota
	sectionInfo
	sectionAegisub
	sectionFonts
	sectionGraphics
)

// ReadSubStation parses an SSA/ASS file into doc. All destination
// mappings and the event sequence are cleared first. Malformed metadata
// lines and attachment blocks are recovered from in place; an unparseable
// timestamp or numeric field aborts the read.
func ReadSubStation(doc *Document, r io.Reader, format Format, opts *SubStationReadOptions) error {
	if opts == nil {
		opts = &SubStationReadOptions{}
	}
	warn := opts.Warn

	doc.Events = doc.Events[:0]
	doc.Info.Clear()
	doc.AegisubProject.Clear()
	doc.Styles.Clear()
	doc.Fonts.Clear()
	doc.Graphics.Clear()

	section := sectionNone
	var attachmentName string
	var attachmentLines []string
	attachmentIsFont := false

	flushAttachment := func(intoFonts bool) {
		lines := make([]string, len(attachmentLines))
		copy(lines, attachmentLines)
		if intoFonts {
			doc.Fonts.Set(attachmentName, lines)
		} else {
			doc.Graphics.Set(attachmentName, lines)
		}
		attachmentLines = attachmentLines[:0]
		attachmentName = ""
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case sectionHeadingPattern.MatchString(line):
			// the substring checks are ordered; a heading could
			// textually contain more than one section name
			switch {
			case strings.Contains(line, "Info"):
				section = sectionInfo
			case strings.Contains(line, "Aegisub"):
				section = sectionAegisub
			case strings.Contains(line, "Fonts"):
				section = sectionFonts
			case strings.Contains(line, "Graphics"):
				section = sectionGraphics
			default:
				section = sectionNone
			}

		case section == sectionInfo || section == sectionAegisub:
			if strings.HasPrefix(line, ";") {
				continue
			}
			k, v, ok := strings.Cut(line, ":")
			if !ok {
				continue // malformed metadata line, skipped
			}
			if section == sectionInfo {
				doc.Info.Set(k, strings.TrimSpace(v))
			} else {
				doc.AegisubProject.Set(k, strings.TrimSpace(v))
			}

		case section == sectionFonts || section == sectionGraphics:
			m := attachmentHeadingPattern.FindStringSubmatch(line)
			attachmentIsFont = section == sectionFonts

			if attachmentName != "" && (m != nil || line == "") {
				// flush on blank line or new attachment heading
				flushAttachment(section == sectionFonts)
			}
			if m != nil {
				attachmentName = m[2]
			} else if line != "" {
				attachmentLines = append(attachmentLines, line)
			}

		case strings.HasPrefix(line, "Style:"):
			_, rest, _ := strings.Cut(line, ":")
			parts := strings.Split(strings.TrimSpace(rest), ",")
			name, raw := parts[0], parts[1:]
			sty := DefaultStyle
			fields := styleFields[format]
			for i := 0; i < len(fields) && i < len(raw); i++ {
				if err := setStyleField(&sty, fields[i], raw[i], format, warn); err != nil {
					return fmt.Errorf("line %d: style field %s: %w", lineNum, fields[i].name, err)
				}
			}
			doc.Styles.Set(name, sty)

		case strings.HasPrefix(line, "Dialogue:") || strings.HasPrefix(line, "Comment:"):
			evType, rest, _ := strings.Cut(line, ":")
			fields := eventFields[format]
			raw := strings.SplitN(strings.TrimSpace(rest), ",", len(fields))
			ev := NewEvent()
			for i := 0; i < len(fields) && i < len(raw); i++ {
				if err := setEventField(&ev, fields[i], raw[i]); err != nil {
					return fmt.Errorf("line %d: event field %s: %w", lineNum, fields[i].name, err)
				}
			}
			ev.Type = EventType(evType)
			doc.Events = append(doc.Events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SubStation input: %w", err)
	}

	if attachmentName != "" {
		// attachment still open at EOF
		flushAttachment(attachmentIsFont)
	}
	return nil
}

// styleFieldValue and eventFieldValue look up the typed value behind a
// wire field name. An unknown name returns nil, which substationField
// rejects as a fatal write error.
func styleFieldValue(sty *Style, name string) any {
	switch name {
	case "Fontname":
		return sty.FontName
	case "Fontsize":
		return sty.FontSize
	case "PrimaryColour":
		return sty.PrimaryColor
	case "SecondaryColour":
		return sty.SecondaryColor
	case "OutlineColour", "TertiaryColour":
		return sty.OutlineColor
	case "BackColour":
		return sty.BackColor
	case "Bold":
		return sty.Bold
	case "Italic":
		return sty.Italic
	case "Underline":
		return sty.Underline
	case "StrikeOut":
		return sty.Strikeout
	case "ScaleX":
		return sty.ScaleX
	case "ScaleY":
		return sty.ScaleY
	case "Spacing":
		return sty.Spacing
	case "Angle":
		return sty.Angle
	case "BorderStyle":
		return sty.BorderStyle
	case "Outline":
		return sty.Outline
	case "Shadow":
		return sty.Shadow
	case "Alignment":
		return sty.Alignment
	case "MarginL":
		return sty.MarginL
	case "MarginR":
		return sty.MarginR
	case "MarginV":
		return sty.MarginV
	case "AlphaLevel":
		return sty.AlphaLevel
	case "Encoding":
		return sty.Encoding
	}
	return nil
}

func eventFieldValue(ev *Event, name string) any {
	switch name {
	case "Layer":
		return ev.Layer
	case "Marked":
		return ev.Marked
	case "Start":
		return ev.Start
	case "End":
		return ev.End
	case "Style":
		return ev.Style
	case "Name":
		return ev.Name
	case "MarginL":
		return ev.MarginL
	case "MarginR":
		return ev.MarginR
	case "MarginV":
		return ev.MarginV
	case "Effect":
		return ev.Effect
	case "Text":
		return ev.Text
	}
	return nil
}

// substationField serializes one field value. The switch is closed over
// semantic kinds; a value of the wrong type is a fatal write error, not
// bad input.
func substationField(f fieldSpec, v any, format Format, warn WarnFunc) (string, error) {
	switch f.kind {
	case kindText, kindFontName:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case kindTime:
		if d, ok := v.(time.Duration); ok {
			return subStationTimestamp(durationMS(d), warn), nil
		}
	case kindColor:
		if c, ok := v.(Color); ok {
			if format == FormatSSA {
				return colorToSSA(c), nil
			}
			return colorToASS(c), nil
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			if b {
				return "-1", nil
			}
			return "0", nil
		}
	case kindInt:
		if n, ok := v.(int); ok {
			return strconv.Itoa(n), nil
		}
	case kindFloat:
		if n, ok := v.(float64); ok {
			return formatFloat(n), nil
		}
	case kindMarked:
		if b, ok := v.(bool); ok {
			if b {
				return "Marked=1", nil
			}
			return "Marked=0", nil
		}
	case kindAlignment:
		if a, ok := v.(Alignment); ok {
			if format == FormatSSA {
				n, err := a.SSA()
				if err != nil {
					return "", err
				}
				return strconv.Itoa(n), nil
			}
			return strconv.Itoa(int(a)), nil
		}
	}
	return "", fmt.Errorf("unexpected value %v (%T) when writing SubStation field %q", v, v, f.name)
}

func writeAttachmentSection(sb *strings.Builder, heading, keyword string, attachments *OrderedMap[[]string]) {
	sb.WriteString("\n[" + heading + "]\n")
	names := attachments.Keys()
	sort.Strings(names)
	for _, name := range names {
		lines, _ := attachments.Get(name)
		sb.WriteString(keyword + ": " + name + "\n")
		for _, line := range lines {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
}

// WriteSubStation serializes doc in the fixed SubStation section order.
// Comment events keep their Comment: prefix so a round trip through this
// codec preserves them.
func WriteSubStation(doc *Document, w io.Writer, format Format, opts *SubStationWriteOptions) error {
	if opts == nil {
		opts = &SubStationWriteOptions{}
	}
	warn := opts.Warn
	notice := opts.HeaderNotice
	if notice == "" {
		notice = DefaultHeaderNotice
	}

	var sb strings.Builder
	sb.WriteString("[Script Info]\n")
	for _, line := range strings.Split(notice, "\n") {
		sb.WriteString("; " + line + "\n")
	}

	if format == FormatASS {
		doc.Info.Set("ScriptType", "v4.00+")
	} else {
		doc.Info.Set("ScriptType", "v4.00")
	}
	for _, k := range doc.Info.Keys() {
		v, _ := doc.Info.Get(k)
		sb.WriteString(k + ": " + v + "\n")
	}

	if doc.AegisubProject.Len() > 0 {
		sb.WriteString("\n[Aegisub Project Garbage]\n")
		for _, k := range doc.AegisubProject.Keys() {
			v, _ := doc.AegisubProject.Get(k)
			sb.WriteString(k + ": " + v + "\n")
		}
	}

	if format == FormatASS {
		sb.WriteString("\n[V4+ Styles]\n")
	} else {
		sb.WriteString("\n[V4 Styles]\n")
	}
	sb.WriteString(styleFormatLine[format] + "\n")
	for _, name := range doc.Styles.Keys() {
		sty, _ := doc.Styles.Get(name)
		fields := styleFields[format]
		vals := make([]string, 0, len(fields)+1)
		vals = append(vals, "Style: "+name)
		for _, f := range fields {
			s, err := substationField(f, styleFieldValue(&sty, f.name), format, warn)
			if err != nil {
				return fmt.Errorf("style %q: %w", name, err)
			}
			vals = append(vals, s)
		}
		sb.WriteString(strings.Join(vals, ",") + "\n")
	}

	if doc.Fonts.Len() > 0 {
		writeAttachmentSection(&sb, "Fonts", "fontname", doc.Fonts)
	}
	if doc.Graphics.Len() > 0 {
		writeAttachmentSection(&sb, "Graphics", "filename", doc.Graphics)
	}

	sb.WriteString("\n[Events]\n")
	sb.WriteString(eventFormatLine[format] + "\n")
	for i := range doc.Events {
		ev := &doc.Events[i]
		fields := eventFields[format]
		vals := make([]string, 0, len(fields))
		for _, f := range fields {
			s, err := substationField(f, eventFieldValue(ev, f.name), format, warn)
			if err != nil {
				return fmt.Errorf("event %d: %w", i+1, err)
			}
			vals = append(vals, s)
		}
		sb.WriteString(string(ev.Type) + ": " + strings.Join(vals, ",") + "\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("error writing SubStation output: %w", err)
	}
	return nil
}
