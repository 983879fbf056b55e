package oxml

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

func isUTF8Label(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return true
	}
	return false
}

// noBOMUnicode reports a 16 or 32 bit Unicode label. Without a byte order
// mark such a declaration was read as ASCII, so the input is not
// really in that encoding.
func noBOMUnicode(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.HasPrefix(name, "utf-16") || strings.HasPrefix(name, "utf-32")
}

// lookupEncoding resolves an encoding label. IANA names are tried first,
// then the WHATWG labels browsers accept in HTML documents.
func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
}

// detectBOM inspects the first bytes of the input. A UTF-8 mark is
// skipped, UTF-16 marks switch to transcoding.
func (b *bufreader) detectBOM() error {
	p := b.peek(3)
	switch {
	case len(p) == 3 && p[0] == 0xEF && p[1] == 0xBB && p[2] == 0xBF:
		b.r += 3
		b.fixed = true
	case len(p) > 0 && p[0] == 0xEF:
		return ErrBadBOM
	case len(p) >= 2 && (p[0] == 0xFE && p[1] == 0xFF || p[0] == 0xFF && p[1] == 0xFE):
		b.transcode(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	}
	return nil
}

// setEncoding switches the remaining input to the named encoding unless
// the encoding was already fixed by a byte order mark or an earlier call.
func (b *bufreader) setEncoding(name string) error {
	if b.fixed {
		return nil
	}
	if isUTF8Label(name) || noBOMUnicode(name) {
		b.fixed = true
		return nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return err
	}
	if enc == unicode.UTF8 {
		b.fixed = true
		return nil
	}
	b.transcode(enc.NewDecoder())
	return nil
}
