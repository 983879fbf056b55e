package oxml

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const bufSize = 4096

// bufreader is a buffered byte source that tracks the position of
// the next unread byte. Scans that run out of buffered input append
// what they have seen so far to the caller's scratch slice and refill,
// so a token may span any number of reads.
type bufreader struct {
	buf []byte
	rd  io.Reader
	r   int
	w   int
	err error

	offset        int64
	line          int
	lineStart     int64
	prevLineStart int64

	// fixed is set once the input encoding may no longer change
	fixed bool
}

func (b *bufreader) reset(r io.Reader) {
	if b.buf == nil {
		b.buf = make([]byte, bufSize)
	}
	b.rd = r
	b.r = 0
	b.w = 0
	b.err = nil
	b.offset = 0
	b.line = 1
	b.lineStart = 0
	b.prevLineStart = 0
	b.fixed = false
}

func (b *bufreader) pos() Position {
	return Position{
		Line:   b.line,
		Column: int(b.offset-b.lineStart) + 1,
		Offset: b.offset,
	}
}

// read0 reads more input into the buffer. One byte before b.r is kept
// so that unreadByte works across refills.
func (b *bufreader) read0() error {
	if b.err != nil {
		return b.err
	}
	if b.r > 1 {
		keep := b.r - 1
		copy(b.buf, b.buf[keep:b.w])
		b.w -= keep
		b.r -= keep
	}
	if b.w == len(b.buf) {
		grown := make([]byte, 2*len(b.buf))
		copy(grown, b.buf[:b.w])
		b.buf = grown
	}
	for i := 0; i < 100; i++ {
		n, err := b.rd.Read(b.buf[b.w:])
		b.w += n
		if err != nil {
			b.err = err
			if n > 0 {
				return nil
			}
			return err
		}
		if n > 0 {
			return nil
		}
	}
	b.err = io.ErrNoProgress
	return b.err
}

func (b *bufreader) advance(c byte) {
	b.offset++
	if c == '\n' {
		b.line++
		b.prevLineStart = b.lineStart
		b.lineStart = b.offset
	}
}

func (b *bufreader) readByte() (byte, error) {
	for b.r == b.w {
		err := b.read0()
		if err != nil {
			return 0, err
		}
	}
	c := b.buf[b.r]
	b.r++
	b.advance(c)
	return c, nil
}

// unreadByte steps back over the byte returned by the last readByte.
func (b *bufreader) unreadByte() {
	b.r--
	b.offset--
	if b.buf[b.r] == '\n' {
		b.line--
		b.lineStart = b.prevLineStart
	}
}

// peek returns up to n buffered bytes without consuming them.
// Fewer than n bytes are only returned at the end of input.
func (b *bufreader) peek(n int) []byte {
	for b.w-b.r < n {
		if b.read0() != nil {
			break
		}
	}
	if b.w-b.r < n {
		n = b.w - b.r
	}
	return b.buf[b.r : b.r+n]
}

// consume skips n buffered bytes.
func (b *bufreader) consume(n int) {
	chunk := b.buf[b.r : b.r+n]
	if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
		b.line += bytes.Count(chunk, nl)
		if j := bytes.LastIndexByte(chunk[:i], '\n'); j >= 0 {
			b.prevLineStart = b.offset + int64(j) + 1
		} else {
			b.prevLineStart = b.lineStart
		}
		b.lineStart = b.offset + int64(i) + 1
	}
	b.offset += int64(n)
	b.r += n
}

var nl = []byte{'\n'}

// readUntil appends everything up to delim to dst and consumes delim.
// At the end of input it returns what was read together with the error.
func (b *bufreader) readUntil(dst []byte, delim byte) ([]byte, error) {
	for {
		if k := indexByte(b.buf[b.r:b.w], delim); k >= 0 {
			dst = append(dst, b.buf[b.r:b.r+k]...)
			b.consume(k + 1)
			return dst, nil
		}
		dst = append(dst, b.buf[b.r:b.w]...)
		b.consume(b.w - b.r)
		if err := b.read0(); err != nil {
			return dst, err
		}
	}
}

// readText appends everything up to the next '<' to dst, leaving the '<' unread.
func (b *bufreader) readText(dst []byte) ([]byte, error) {
	for {
		if k := indexByte(b.buf[b.r:b.w], '<'); k >= 0 {
			dst = append(dst, b.buf[b.r:b.r+k]...)
			b.consume(k)
			return dst, nil
		}
		dst = append(dst, b.buf[b.r:b.w]...)
		b.consume(b.w - b.r)
		if err := b.read0(); err != nil {
			return dst, err
		}
	}
}

// readUntilSeq appends everything up to seq to dst. The sequence itself
// is consumed unless keep is set. With fold the match ignores ASCII case.
func (b *bufreader) readUntilSeq(dst []byte, seq string, fold, keep bool) ([]byte, error) {
	first := seq[0]
	for {
		for {
			k := b.indexFirst(first, fold)
			if k >= 0 {
				dst = append(dst, b.buf[b.r:b.r+k]...)
				b.consume(k)
				break
			}
			dst = append(dst, b.buf[b.r:b.w]...)
			b.consume(b.w - b.r)
			if err := b.read0(); err != nil {
				return dst, err
			}
		}
		p := b.peek(len(seq))
		if len(p) == len(seq) && (string(p) == seq || fold && bytes.EqualFold(p, bs(seq))) {
			if !keep {
				b.consume(len(seq))
			}
			return dst, nil
		}
		if len(p) < len(seq) {
			dst = append(dst, p...)
			b.consume(len(p))
			return dst, b.err
		}
		dst = append(dst, p[0])
		b.consume(1)
	}
}

func (b *bufreader) indexFirst(c byte, fold bool) int {
	k := indexByte(b.buf[b.r:b.w], c)
	if !fold || c < 'a' || c > 'z' {
		return k
	}
	u := indexByte(b.buf[b.r:b.w], c-'a'+'A')
	if k < 0 || (u >= 0 && u < k) {
		return u
	}
	return k
}

// skipWhitespace consumes whitespace and returns the next byte without consuming it.
func (b *bufreader) skipWhitespace() (byte, error) {
	for {
		for b.r < b.w {
			c := b.buf[b.r]
			if !isWhitespace(c) {
				return c, nil
			}
			b.r++
			b.advance(c)
		}
		if err := b.read0(); err != nil {
			return 0, err
		}
	}
}

// readName appends name bytes to dst up to the next separator, which stays unread.
func (b *bufreader) readName(dst []byte) ([]byte, error) {
	for {
		for k := b.r; k < b.w; k++ {
			if isSeparator(b.buf[k]) {
				dst = append(dst, b.buf[b.r:k]...)
				b.consume(k - b.r)
				return dst, nil
			}
		}
		dst = append(dst, b.buf[b.r:b.w]...)
		b.consume(b.w - b.r)
		if err := b.read0(); err != nil {
			return dst, err
		}
	}
}

// transcode routes the rest of the input through dec. Bytes already
// buffered but not consumed are decoded as well.
func (b *bufreader) transcode(dec *encoding.Decoder) {
	rest := append([]byte(nil), b.buf[b.r:b.w]...)
	var src io.Reader = bytes.NewReader(rest)
	switch b.err {
	case nil:
		src = io.MultiReader(src, b.rd)
	case io.EOF:
	default:
		src = io.MultiReader(src, errReader{b.err})
	}
	b.rd = transform.NewReader(src, dec)
	b.w = b.r
	b.err = nil
	b.fixed = true
}

type errReader struct {
	err error
}

func (e errReader) Read([]byte) (int, error) {
	return 0, e.err
}
