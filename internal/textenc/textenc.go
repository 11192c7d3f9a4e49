package textenc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Decode converts raw file bytes to UTF-8. An empty name sniffs the byte
// order mark and falls back to passing the data through unchanged.
func Decode(data []byte, name string) ([]byte, error) {
	if name == "" {
		return sniff(data)
	}

	var decoder *encoding.Decoder
	switch strings.ToUpper(name) {
	case "UTF-8", "UTF8":
		return bytes.TrimPrefix(data, bomUTF8), nil
	case "UTF-16LE":
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case "UTF-16BE":
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case "UTF-16":
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case "ISO-8859-1", "LATIN1":
		decoder = charmap.ISO8859_1.NewDecoder()
	case "WINDOWS-1252", "CP1252":
		decoder = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported input encoding: %q", name)
	}
	return decode(data, decoder)
}

func sniff(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return bytes.TrimPrefix(data, bomUTF8), nil
	case bytes.HasPrefix(data, bomUTF16BE):
		return decode(data[2:], unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder())
	case bytes.HasPrefix(data, bomUTF16LE):
		return decode(data[2:], unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	default:
		return data, nil
	}
}

func decode(data []byte, decoder *encoding.Decoder) ([]byte, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	return out, nil
}
