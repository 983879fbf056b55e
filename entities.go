package oxml

import (
	"html"
	"strconv"
	"strings"
	"unicode/utf8"
)

// longest reference we look for a ';' in, "&#x10FFFF;" plus some slack
const maxEntityLen = 32

var xmlEntities = map[string]rune{
	"lt":   '<',
	"gt":   '>',
	"amp":  '&',
	"quot": '"',
	"apos": '\'',
}

// isXMLChar reports whether r is allowed in XML text.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

func parseCharRef(ref []byte) (rune, bool) {
	if len(ref) < 2 || ref[0] != '#' {
		return 0, false
	}
	digits, base := ref[1:], 10
	if digits[0] == 'x' || digits[0] == 'X' {
		digits, base = digits[1:], 16
	}
	if len(digits) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(string(digits), base, 32)
	if err != nil {
		return -1, true
	}
	return rune(n), true
}

// convertEntities decodes references in b in place. Every decoded
// reference is at least as long as its replacement, so writes never
// overtake reads. Malformed references are reported and left as written.
func (thiz *tokenizer) convertEntities(b []byte, start Position) ([]byte, error) {
	i := indexByte(b, '&')
	if i < 0 {
		return b, nil
	}
	p := advancePos(start, b[:i])
	w := i
	for r := i; r < len(b); {
		c := b[r]
		if c != '&' {
			b[w] = c
			w++
			r++
			p = advancePos(p, b[r-1:r])
			continue
		}
		end := -1
		for k := r + 1; k < len(b) && k-r <= maxEntityLen; k++ {
			if b[k] == ';' {
				end = k
				break
			}
			if b[k] == '&' || isWhitespace(b[k]) {
				break
			}
		}
		if end < 0 {
			if err := thiz.report(newSyntaxError(Lexical, p,
				msgInvalidFormat+"special character does not end with a semicolon")); err != nil {
				return nil, err
			}
			b[w] = '&'
			w++
			r++
			p.Column++
			p.Offset++
			continue
		}
		ref := b[r+1 : end]
		var decoded [utf8.UTFMax * 2]byte
		n, err := thiz.resolveEntity(ref, p, decoded[:])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			// keep the literal reference
			w += copy(b[w:], b[r:end+1])
		} else {
			w += copy(b[w:], decoded[:n])
		}
		p.Column += end + 1 - r
		p.Offset += int64(end + 1 - r)
		r = end + 1
	}
	return b[:w], nil
}

// resolveEntity writes the replacement of ref to dst and returns its
// length, or -1 when the reference stays literal.
func (thiz *tokenizer) resolveEntity(ref []byte, p Position, dst []byte) (int, error) {
	if r, ok := parseCharRef(ref); ok {
		if !isXMLChar(r) {
			return -1, thiz.report(newSyntaxError(Lexical, p,
				msgInvalidCharacters+"invalid character reference '&%s;'", ref))
		}
		return utf8.EncodeRune(dst, r), nil
	}
	if r, ok := xmlEntities[string(ref)]; ok {
		return utf8.EncodeRune(dst, r), nil
	}
	if thiz.cfg.Recovery == RecoverSmart {
		lit := "&" + string(ref) + ";"
		// a legacy prefix such as "&not" in "&notit;" leaves the rest of
		// the name and the ';' behind
		s := html.UnescapeString(lit)
		partial := strings.HasSuffix(s, ";") && lit != "&semi;"
		if s != lit && !partial && len(s) <= len(lit) && len(s) <= len(dst) {
			return copy(dst, s), nil
		}
	}
	return -1, thiz.report(newSyntaxError(Lexical, p,
		msgInvalidFormat+"unknown entity '&%s;'", ref))
}

// advancePos moves p over the bytes in b.
func advancePos(p Position, b []byte) Position {
	for _, c := range b {
		p.Offset++
		if c == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
	}
	return p
}
