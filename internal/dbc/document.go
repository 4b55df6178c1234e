package dbc

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LookupEncoding resolves a charset label such as "windows-1252" or
// "iso-8859-1". UTF-8 (and the empty label) returns nil, which makes
// Decode validate strictly instead of transcoding.
func LookupEncoding(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	return enc, nil
}

// Decode turns raw document bytes into text. With a nil encoding the input
// must be valid UTF-8 (a leading BOM is dropped); otherwise it is transcoded
// from enc, honouring a byte order mark if present.
func Decode(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		b := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(b) {
			return "", &DocumentError{Offset: firstInvalidUTF8(b)}
		}
		return string(b), nil
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), raw)
	if err != nil {
		return "", &DocumentError{Offset: -1, Err: err}
	}
	return string(out), nil
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
