package subtitle

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

const assSample = `[Script Info]
; Script generated by somebody else
Title: Example script
this line has no separator
WrapStyle: 0

[Aegisub Project Garbage]
Audio File: audio.mp3

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1
Style: Top,Georgia,24,&H0000FF00,&H000000FF,&H00000000,&H00000000,-1,-1,0,0,100,100,0,0,1,2,2,8,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:03.50,Default,,0,0,0,,Hello, world, again
Comment: 0,0:00:05.00,0:00:06.00,Top,narrator,0,0,0,,note to self
Dialogue: 0,-0:00:01.00,0:00:02.00,Default,,0,0,0,,starts before zero
`

func TestGuessSubStation(t *testing.T) {
	cases := []struct {
		name   string
		data   string
		format Format
		ok     bool
	}{
		{"ass", "[Script Info]\n\n[V4+ Styles]\n", FormatASS, true},
		{"ssa", "[Script Info]\n\n[V4 Styles]\n", FormatSSA, true},
		{"ass lowercase", "[v4+ styles]\n", FormatASS, true},
		{"srt", "1\n00:00:01,000 --> 00:00:02,000\nhi\n", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			format, ok := GuessSubStation([]byte(tc.data))
			if format != tc.format || ok != tc.ok {
				t.Errorf("got (%q, %v), want (%q, %v)", format, ok, tc.format, tc.ok)
			}
		})
	}
}

func TestReadSubStationASS(t *testing.T) {
	doc := NewDocument()
	if err := ReadSubStation(doc, strings.NewReader(assSample), FormatASS, nil); err != nil {
		t.Fatal(err)
	}

	if v, _ := doc.Info.Get("Title"); v != "Example script" {
		t.Errorf("title: got %q", v)
	}
	if _, ok := doc.Info.Get("this line has no separator"); ok {
		t.Errorf("malformed metadata line should be skipped")
	}
	if v, _ := doc.AegisubProject.Get("Audio File"); v != "audio.mp3" {
		t.Errorf("aegisub section: got %q", v)
	}

	if doc.Styles.Len() != 2 {
		t.Fatalf("styles: got %d", doc.Styles.Len())
	}
	def, _ := doc.Styles.Get("Default")
	if def != DefaultStyle {
		t.Errorf("default style: got %+v", def)
	}
	top, _ := doc.Styles.Get("Top")
	if top.FontName != "Georgia" || top.FontSize != 24 {
		t.Errorf("top font: got %q %v", top.FontName, top.FontSize)
	}
	if !top.Bold || !top.Italic || top.Underline {
		t.Errorf("top flags: bold=%v italic=%v underline=%v",
			top.Bold, top.Italic, top.Underline)
	}
	if top.PrimaryColor != (Color{G: 255}) {
		t.Errorf("top primary color: got %+v", top.PrimaryColor)
	}
	if top.Alignment != AlignTopCenter {
		t.Errorf("top alignment: got %d", top.Alignment)
	}

	if len(doc.Events) != 3 {
		t.Fatalf("events: got %d", len(doc.Events))
	}
	first := doc.Events[0]
	if first.Start != time.Second || first.End != 3500*time.Millisecond {
		t.Errorf("first times: %v - %v", first.Start, first.End)
	}
	if first.Text != "Hello, world, again" {
		t.Errorf("commas in text must survive the field split, got %q", first.Text)
	}
	if first.Type != EventDialogue {
		t.Errorf("first type: got %q", first.Type)
	}
	second := doc.Events[1]
	if second.Type != EventComment || second.Name != "narrator" || second.Style != "Top" {
		t.Errorf("comment event: %+v", second)
	}
	if doc.Events[2].Start != -time.Second {
		t.Errorf("negative timestamp: got %v", doc.Events[2].Start)
	}
}

func TestReadSubStationSSA(t *testing.T) {
	const sample = `[Script Info]
ScriptType: v4.00

[V4 Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, TertiaryColour, BackColour, Bold, Italic, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, AlphaLevel, Encoding
Style: Default,Arial,20,16777215,255,65280,0,0,0,1,2,2,2,10,10,10,0,1

[Events]
Format: Marked, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: Marked=1,0:00:01.00,0:00:02.00,Default,,0,0,0,,marked line
Dialogue: Marked=0,0:00:03.00,0:00:04.00,Default,,0,0,0,,unmarked line
`
	doc := NewDocument()
	if err := ReadSubStation(doc, strings.NewReader(sample), FormatSSA, nil); err != nil {
		t.Fatal(err)
	}

	sty, _ := doc.Styles.Get("Default")
	if sty.PrimaryColor != (Color{R: 255, G: 255, B: 255}) {
		t.Errorf("decimal primary color: got %+v", sty.PrimaryColor)
	}
	if sty.SecondaryColor != (Color{R: 255}) {
		t.Errorf("decimal secondary color: got %+v", sty.SecondaryColor)
	}
	// TertiaryColour maps onto the outline color slot
	if sty.OutlineColor != (Color{G: 255}) {
		t.Errorf("tertiary color: got %+v", sty.OutlineColor)
	}
	// legacy code 2 is bottom-center in both schemes
	if sty.Alignment != AlignBottomCenter {
		t.Errorf("alignment: got %d", sty.Alignment)
	}

	if len(doc.Events) != 2 {
		t.Fatalf("events: got %d", len(doc.Events))
	}
	if !doc.Events[0].Marked || doc.Events[1].Marked {
		t.Errorf("marked flags: %v %v", doc.Events[0].Marked, doc.Events[1].Marked)
	}
}

func TestReadSubStationLegacyAlignment(t *testing.T) {
	const sample = `[V4 Styles]
Style: Mid,Arial,20,16777215,255,65280,0,0,0,1,2,2,10,10,10,10,0,1
`
	doc := NewDocument()
	if err := ReadSubStation(doc, strings.NewReader(sample), FormatSSA, nil); err != nil {
		t.Fatal(err)
	}
	sty, _ := doc.Styles.Get("Mid")
	if sty.Alignment != AlignMiddleCenter {
		t.Errorf("legacy code 10: got %d", sty.Alignment)
	}
}

func TestReadSubStationAlignmentFallback(t *testing.T) {
	// 4 is not a legacy SSA alignment code
	const sample = `[V4 Styles]
Style: Bad,Arial,20,16777215,255,65280,0,0,0,1,2,2,4,10,10,10,0,1
`
	var warnings []string
	warn := func(msg string, keysAndValues ...any) {
		warnings = append(warnings, msg)
	}
	doc := NewDocument()
	opts := &SubStationReadOptions{Warn: warn}
	if err := ReadSubStation(doc, strings.NewReader(sample), FormatSSA, opts); err != nil {
		t.Fatal(err)
	}
	sty, _ := doc.Styles.Get("Bad")
	if sty.Alignment != AlignBottomCenter {
		t.Errorf("fallback alignment: got %d", sty.Alignment)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
}

func TestReadSubStationBadTimestamp(t *testing.T) {
	const sample = `[Events]
Dialogue: 0,nonsense,0:00:02.00,Default,,0,0,0,,text
`
	doc := NewDocument()
	err := ReadSubStation(doc, strings.NewReader(sample), FormatASS, nil)
	if err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should carry the line number, got %v", err)
	}
}

func TestReadSubStationAttachments(t *testing.T) {
	const sample = `[Fonts]
fontname: arial.ttf
ABCDEF
GHIJKL

fontname: georgia.ttf
MNOPQR

[Graphics]
filename: logo.png
STUVWX
`
	doc := NewDocument()
	if err := ReadSubStation(doc, strings.NewReader(sample), FormatASS, nil); err != nil {
		t.Fatal(err)
	}

	if doc.Fonts.Len() != 2 {
		t.Fatalf("fonts: got %d", doc.Fonts.Len())
	}
	arial, _ := doc.Fonts.Get("arial.ttf")
	if !reflect.DeepEqual(arial, []string{"ABCDEF", "GHIJKL"}) {
		t.Errorf("arial.ttf lines: got %v", arial)
	}
	georgia, _ := doc.Fonts.Get("georgia.ttf")
	if !reflect.DeepEqual(georgia, []string{"MNOPQR"}) {
		t.Errorf("georgia.ttf lines: got %v", georgia)
	}

	// the graphics attachment is still open at end of input
	logo, ok := doc.Graphics.Get("logo.png")
	if !ok {
		t.Fatal("logo.png should be flushed at EOF")
	}
	if !reflect.DeepEqual(logo, []string{"STUVWX"}) {
		t.Errorf("logo.png lines: got %v", logo)
	}
}

func TestReadSubStationClearsDocument(t *testing.T) {
	doc := NewDocument()
	doc.Events = append(doc.Events, NewEvent())
	doc.Info.Set("Title", "stale")
	doc.Fonts.Set("stale.ttf", []string{"XYZ"})

	const sample = `[Script Info]
Title: fresh
`
	if err := ReadSubStation(doc, strings.NewReader(sample), FormatASS, nil); err != nil {
		t.Fatal(err)
	}
	if len(doc.Events) != 0 {
		t.Errorf("stale events should be cleared")
	}
	if doc.Fonts.Len() != 0 {
		t.Errorf("stale fonts should be cleared")
	}
	if v, _ := doc.Info.Get("Title"); v != "fresh" {
		t.Errorf("title: got %q", v)
	}
	if doc.Styles.Len() != 0 {
		t.Errorf("preloaded style table should be cleared on read")
	}
}

func TestWriteSubStationLayout(t *testing.T) {
	doc := NewDocument()
	doc.Info.Set("Title", "layout test")
	doc.AegisubProject.Set("Audio File", "audio.mp3")
	doc.Fonts.Set("arial.ttf", []string{"ABCDEF"})

	ev := NewEvent()
	ev.Start = time.Second
	ev.End = 2 * time.Second
	ev.Text = "hello"
	doc.Events = append(doc.Events, ev)

	note := NewEvent()
	note.Type = EventComment
	note.Text = "a comment"
	doc.Events = append(doc.Events, note)

	var sb strings.Builder
	if err := WriteSubStation(doc, &sb, FormatASS, nil); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.HasPrefix(out, "[Script Info]\n; Script generated by subconv\n") {
		t.Errorf("header: got %q", out[:60])
	}
	if !strings.Contains(out, "ScriptType: v4.00+\n") {
		t.Errorf("missing ScriptType")
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,hello\n") {
		t.Errorf("dialogue line missing:\n%s", out)
	}
	if !strings.Contains(out, "Comment: ") {
		t.Errorf("comment events must keep their prefix")
	}
	if !strings.Contains(out, "fontname: arial.ttf\nABCDEF\n") {
		t.Errorf("font attachment missing")
	}

	// fixed section order
	sections := []string{"[Script Info]", "[Aegisub Project Garbage]", "[V4+ Styles]", "[Fonts]", "[Events]"}
	prev := -1
	for _, s := range sections {
		idx := strings.Index(out, s)
		if idx < 0 {
			t.Fatalf("section %s missing", s)
		}
		if idx < prev {
			t.Errorf("section %s out of order", s)
		}
		prev = idx
	}
}

func TestWriteSubStationHeaderNotice(t *testing.T) {
	doc := NewDocument()
	var sb strings.Builder
	opts := &SubStationWriteOptions{HeaderNotice: "custom line one\ncustom line two"}
	if err := WriteSubStation(doc, &sb, FormatASS, opts); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, "; custom line one\n; custom line two\n") {
		t.Errorf("custom notice missing:\n%s", out)
	}
	if strings.Contains(out, "subconv") {
		t.Errorf("default notice should be replaced")
	}
}

func TestWriteSubStationSSA(t *testing.T) {
	doc := NewDocument()
	ev := NewEvent()
	ev.Marked = true
	ev.Text = "ssa line"
	doc.Events = append(doc.Events, ev)

	var sb strings.Builder
	if err := WriteSubStation(doc, &sb, FormatSSA, nil); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.Contains(out, "[V4 Styles]\n") || strings.Contains(out, "V4+ Styles") {
		t.Errorf("wrong styles heading:\n%s", out)
	}
	if !strings.Contains(out, "ScriptType: v4.00\n") {
		t.Errorf("missing SSA ScriptType")
	}
	if !strings.Contains(out, "Dialogue: Marked=1,") {
		t.Errorf("marked field missing:\n%s", out)
	}
	// SSA colors are plain decimals, white is 16777215
	if !strings.Contains(out, ",16777215,") {
		t.Errorf("decimal color missing:\n%s", out)
	}
}

func TestSubStationRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.Info.Set("Title", "round trip")

	sty := DefaultStyle
	sty.FontName = "Georgia"
	sty.Italic = true
	sty.PrimaryColor = Color{R: 10, G: 20, B: 30, A: 40}
	sty.Alignment = AlignTopRight
	doc.Styles.Set("Fancy", sty)

	ev := NewEvent()
	ev.Start = 1500 * time.Millisecond
	ev.End = 4230 * time.Millisecond
	ev.Style = "Fancy"
	ev.Layer = 2
	ev.Text = `{\i1}styled{\i0} text, with commas`
	doc.Events = append(doc.Events, ev)

	note := NewEvent()
	note.Type = EventComment
	note.Text = "keep me"
	doc.Events = append(doc.Events, note)

	var sb strings.Builder
	if err := WriteSubStation(doc, &sb, FormatASS, nil); err != nil {
		t.Fatal(err)
	}

	got := NewDocument()
	if err := ReadSubStation(got, strings.NewReader(sb.String()), FormatASS, nil); err != nil {
		t.Fatal(err)
	}

	for _, name := range doc.Styles.Keys() {
		want, _ := doc.Styles.Get(name)
		have, ok := got.Styles.Get(name)
		if !ok {
			t.Fatalf("style %q lost", name)
		}
		if have != want {
			t.Errorf("style %q: got %+v, want %+v", name, have, want)
		}
	}
	if !reflect.DeepEqual(got.Events, doc.Events) {
		t.Errorf("events: got %+v, want %+v", got.Events, doc.Events)
	}
	if v, _ := got.Info.Get("Title"); v != "round trip" {
		t.Errorf("title: got %q", v)
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"&H00FFFFFF", Color{R: 255, G: 255, B: 255}},
		{"&HAABBCCDD", Color{R: 0xDD, G: 0xCC, B: 0xBB, A: 0xAA}},
		{"16777215", Color{R: 255, G: 255, B: 255}},
		{"255", Color{R: 255}},
		{"0", Color{}},
	}
	for _, tc := range cases {
		got, err := parseColor(tc.in)
		if err != nil {
			t.Fatalf("parseColor(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("parseColor(%q): got %+v, want %+v", tc.in, got, tc.want)
		}
	}

	if _, err := parseColor("&H"); err == nil {
		t.Errorf("bare prefix should fail")
	}
	if _, err := parseColor("not a color"); err == nil {
		t.Errorf("garbage should fail")
	}
}

func TestColorSerialization(t *testing.T) {
	c := Color{R: 0xDD, G: 0xCC, B: 0xBB, A: 0xAA}
	if got := colorToASS(c); got != "&HAABBCCDD" {
		t.Errorf("colorToASS: got %q", got)
	}
	if got := colorToSSA(Color{R: 255, G: 255, B: 255}); got != "16777215" {
		t.Errorf("colorToSSA: got %q", got)
	}
}
