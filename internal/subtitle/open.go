package subtitle

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported subtitle format.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatASS  Format = "ass"
	FormatSSA  Format = "ssa"
	FormatMPL2 Format = "mpl2"
)

// DetectFormat inspects raw bytes and guesses their format. The
// SubStation predicate runs first since it also disambiguates against
// SubRip and WebVTT content.
func DetectFormat(data []byte) (Format, bool) {
	if format, ok := GuessSubStation(data); ok {
		return format, true
	}
	if GuessSubRip(data) {
		return FormatSRT, true
	}
	if GuessMPL2(data) {
		return FormatMPL2, true
	}
	return "", false
}

// FormatFromExtension maps a file extension to a format.
func FormatFromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".ass":
		return FormatASS, true
	case ".ssa":
		return FormatSSA, true
	case ".mpl2":
		return FormatMPL2, true
	default:
		return "", false
	}
}

// ExtensionForFormat returns the conventional file extension.
func ExtensionForFormat(format Format) string {
	switch format {
	case FormatASS:
		return ".ass"
	case FormatSSA:
		return ".ssa"
	case FormatMPL2:
		return ".mpl2"
	default:
		return ".srt"
	}
}
