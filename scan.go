package oxml

import (
	"bytes"

	"github.com/klauspost/cpuid/v2"
)

// canUseVectorScan selects the runtime's vectorised byte search for
// bulk scans. Without SSE4.2 or ASIMD a plain loop is as fast on the
// short runs typical for markup.
var canUseVectorScan = cpuid.CPU.Supports(cpuid.SSE42) || cpuid.CPU.Supports(cpuid.ASIMD)

func indexByte(b []byte, c byte) int {
	if canUseVectorScan {
		return bytes.IndexByte(b, c)
	}
	return indexByteGeneric(b, c)
}

func indexByteGeneric(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func onlyWhitespace(b []byte) bool {
	for _, c := range b {
		if !isWhitespace(c) {
			return false
		}
	}
	return true
}

var seps = generateTable()

func generateTable() [256]bool {
	var s [256]bool
	for _, c := range []byte("\t\n\r /=><?\"'") {
		s[c] = true
	}
	return s
}

// isSeparator reports whether b ends a name.
func isSeparator(b byte) bool {
	return seps[b]
}

func isNameStart(b byte) bool {
	return b >= 0x80 || b == '_' || b == ':' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// collapseWhitespace rewrites b in place so that every whitespace run
// becomes a single space and leading/trailing whitespace is removed.
func collapseWhitespace(b []byte) []byte {
	w := 0
	space := false
	for _, c := range b {
		if isWhitespace(c) {
			space = w > 0
			continue
		}
		if space {
			b[w] = ' '
			w++
			space = false
		}
		b[w] = c
		w++
	}
	return b[:w]
}

// removeReturns drops every carriage return from b in place.
func removeReturns(b []byte) []byte {
	i := indexByte(b, '\r')
	if i < 0 {
		return b
	}
	w := i
	for _, c := range b[i:] {
		if c != '\r' {
			b[w] = c
			w++
		}
	}
	return b[:w]
}
