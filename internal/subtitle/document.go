package subtitle

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// four-channel color as stored in SubStation styles; alpha 0 means opaque
type Color struct {
	R, G, B, A uint8
}

// numpad-style grid position used by ASS files
type Alignment int

const (
	AlignBottomLeft Alignment = iota + 1
	AlignBottomCenter
	AlignBottomRight
	AlignMiddleLeft
	AlignMiddleCenter
	AlignMiddleRight
	AlignTopLeft
	AlignTopCenter
	AlignTopRight
)

// legacy SSA alignment codes indexed by ASS alignment minus one
var ssaAlignment = [9]int{1, 2, 3, 9, 10, 11, 5, 6, 7}

func (a Alignment) valid() bool {
	return a >= AlignBottomLeft && a <= AlignTopRight
}

// SSA converts to the legacy numeric alignment scheme.
func (a Alignment) SSA() (int, error) {
	if !a.valid() {
		return 0, fmt.Errorf("invalid alignment value: %d", int(a))
	}
	return ssaAlignment[a-1], nil
}

// AlignmentFromSSA converts a legacy SSA alignment code to an Alignment.
func AlignmentFromSSA(n int) (Alignment, error) {
	for i, code := range ssaAlignment {
		if code == n {
			return Alignment(i + 1), nil
		}
	}
	return 0, fmt.Errorf("invalid SSA alignment value: %d", n)
}

// AlignmentFromNumber validates an ASS alignment code.
func AlignmentFromNumber(n int) (Alignment, error) {
	a := Alignment(n)
	if !a.valid() {
		return 0, fmt.Errorf("invalid alignment value: %d", n)
	}
	return a, nil
}

// named bundle of presentation attributes referenced by events
type Style struct {
	FontName       string
	FontSize       float64
	PrimaryColor   Color
	SecondaryColor Color
	OutlineColor   Color
	BackColor      Color
	Bold           bool
	Italic         bool
	Underline      bool
	Strikeout      bool
	ScaleX         float64
	ScaleY         float64
	Spacing        float64
	Angle          float64
	BorderStyle    int
	Outline        float64
	Shadow         float64
	Alignment      Alignment
	MarginL        int
	MarginR        int
	MarginV        int
	AlphaLevel     int
	Encoding       int

	// Drawing is set by override tags (\p) during tag resolution.
	// It is never serialized as a style field.
	Drawing bool
}

// DefaultStyle is the fallback used when an event references a style name
// that is missing from the document's style table.
var DefaultStyle = Style{
	FontName:       "Arial",
	FontSize:       20,
	PrimaryColor:   Color{R: 255, G: 255, B: 255},
	SecondaryColor: Color{R: 255},
	OutlineColor:   Color{},
	BackColor:      Color{},
	ScaleX:         100,
	ScaleY:         100,
	BorderStyle:    1,
	Outline:        2,
	Shadow:         2,
	Alignment:      AlignBottomCenter,
	MarginL:        10,
	MarginR:        10,
	MarginV:        10,
	Encoding:       1,
}

// EventType distinguishes rendered dialogue from comment lines.
type EventType string

const (
	EventDialogue EventType = "Dialogue"
	EventComment  EventType = "Comment"
)

// one subtitle line; Text may contain override sequences and the
// whitespace escapes \h, \n and \N
type Event struct {
	Start   time.Duration
	End     time.Duration
	Style   string
	Name    string
	MarginL int
	MarginR int
	MarginV int
	Effect  string
	Layer   int
	Marked  bool
	Text    string
	Type    EventType
}

// NewEvent returns an Event with the field defaults used when a parsed
// line omits trailing fields.
func NewEvent() Event {
	return Event{
		End:   10 * time.Second,
		Style: "Default",
		Type:  EventDialogue,
	}
}

func (e *Event) IsComment() bool {
	return e.Type == EventComment
}

var plainTextTags = regexp.MustCompile(`\{[^}]*\}`)

// PlainText returns the event text with override sequences stripped and
// whitespace escapes expanded.
func (e *Event) PlainText() string {
	text := plainTextTags.ReplaceAllString(e.Text, "")
	text = strings.ReplaceAll(text, `\h`, " ")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\N`, "\n")
	return text
}

// string-keyed map preserving insertion order
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

// Set inserts or updates a key. An updated key keeps its insertion position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap[V]) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[V]) Clear() {
	m.keys = m.keys[:0]
	for k := range m.values {
		delete(m.values, k)
	}
}

// in-memory subtitle document shared by all codecs
type Document struct {
	Events         []Event
	Styles         *OrderedMap[Style]
	Info           *OrderedMap[string]
	AegisubProject *OrderedMap[string]
	Fonts          *OrderedMap[[]string]
	Graphics       *OrderedMap[[]string]
}

func NewDocument() *Document {
	doc := &Document{
		Styles:         NewOrderedMap[Style](),
		Info:           NewOrderedMap[string](),
		AegisubProject: NewOrderedMap[string](),
		Fonts:          NewOrderedMap[[]string](),
		Graphics:       NewOrderedMap[[]string](),
	}
	doc.Styles.Set("Default", DefaultStyle)
	return doc
}

// Style resolves a style name, falling back to DefaultStyle when the name
// is missing from the table. Events hold style names, not references, so
// dangling names are tolerated here.
func (d *Document) Style(name string) Style {
	if sty, ok := d.Styles.Get(name); ok {
		return sty
	}
	return DefaultStyle
}

// visibleEvents filters out comment events; formats without a comment
// concept only serialize these.
func visibleEvents(events []Event) []Event {
	visible := make([]Event, 0, len(events))
	for _, ev := range events {
		if !ev.IsComment() {
			visible = append(visible, ev)
		}
	}
	return visible
}

// WarnFunc receives recoverable parse and serialization conditions. The
// signature matches logging.Logger.Warnw so the CLI can pass it directly.
// A nil WarnFunc discards warnings.
type WarnFunc func(msg string, keysAndValues ...any)

func (f WarnFunc) warn(msg string, keysAndValues ...any) {
	if f != nil {
		f(msg, keysAndValues...)
	}
}
