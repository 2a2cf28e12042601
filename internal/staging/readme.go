package staging

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// DecodeText converts raw file bytes to a UTF-8 string. UTF-16 input is
// recognized by its byte-order mark; bytes that are not valid UTF-8 fall back
// to a Latin-1 interpretation, which cannot fail.
func DecodeText(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF16BE):
		decoder := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		decoded, err := decoder.Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		decoded, err := decoder.Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	case bytes.HasPrefix(raw, bomUTF8):
		raw = raw[len(bomUTF8):]
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
