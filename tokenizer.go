package oxml

import (
	"bytes"
	"io"
)

type lexKind byte

const (
	lexEOF lexKind = iota
	lexStartTag
	lexAttr
	lexTagEnd
	lexEndTag
	lexText
	lexCData
	lexComment
	lexProcInst
	lexDoctype
)

// lexeme is one lexical unit. data points into the tokenizer's scratch
// buffer and is overwritten by the next call to next.
type lexeme struct {
	kind        lexKind
	name        Name
	data        []byte
	singleQuote bool
	selfClosing bool
	// eof is set on text that ran into the end of input
	eof bool
	pos Position
}

// tokenizer splits the input into lexemes. Lexical errors are passed
// to report, a non-nil return aborts the current call.
type tokenizer struct {
	bufreader
	cfg    Config
	names  *NameCache
	report func(*SyntaxError) error

	bb []byte

	// inside a start tag, attributes come next
	inTag bool
	// when set the next text runs up to "</" + rawEnd
	rawEnd string
}

func (thiz *tokenizer) resetTokenizer(r io.Reader) {
	thiz.reset(r)
	thiz.bb = thiz.bb[:0]
	thiz.inTag = false
	thiz.rawEnd = ""
}

// eofError turns a read error into a fatal syntax error unless it is io.EOF.
func (thiz *tokenizer) eofError(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

func (thiz *tokenizer) next(l *lexeme) error {
	thiz.bb = thiz.bb[:0]
	*l = lexeme{}
	if thiz.inTag {
		return thiz.nextAttr(l)
	}
	if thiz.rawEnd != "" {
		return thiz.rawText(l)
	}
	for {
		l.pos = thiz.pos()
		c, err := thiz.readByte()
		if err != nil {
			l.kind = lexEOF
			return thiz.eofError(err)
		}
		if c != '<' {
			thiz.unreadByte()
			return thiz.text(l)
		}
		c, err = thiz.readByte()
		if err != nil {
			if err = thiz.eofError(err); err != nil {
				return err
			}
			l.kind = lexText
			l.eof = true
			l.data = append(thiz.bb, '<')
			return thiz.report(newSyntaxError(Lexical, l.pos, msgNotTerminated+"element not terminated"))
		}
		switch c {
		case '?':
			return thiz.procInst(l)
		case '!':
			done, err := thiz.bang(l)
			if err != nil || done {
				return err
			}
		case '/':
			done, err := thiz.endTag(l)
			if err != nil || done {
				return err
			}
		default:
			thiz.unreadByte()
			if isNameStart(c) {
				return thiz.startTag(l)
			}
			if err = thiz.report(newSyntaxError(Lexical, l.pos,
				msgUnexpectedChar+"'<' is not followed by an element name")); err != nil {
				return err
			}
			thiz.bb = append(thiz.bb, '<')
			return thiz.text(l)
		}
	}
}

// name interns the bytes in thiz.bb[from:] applying the configured
// name casing and truncates bb back to from.
func (thiz *tokenizer) name(from int) Name {
	b := thiz.bb[from:]
	if thiz.cfg.NameCase == NameLower {
		for i, c := range b {
			if 'A' <= c && c <= 'Z' {
				b[i] = c + 'a' - 'A'
			}
		}
	}
	n := thiz.names.Intern(b)
	thiz.bb = thiz.bb[:from]
	return n
}

func (thiz *tokenizer) startTag(l *lexeme) error {
	var err error
	thiz.bb, err = thiz.readName(thiz.bb)
	l.kind = lexStartTag
	l.name = thiz.name(0)
	thiz.inTag = true
	return thiz.eofError(err)
}

func (thiz *tokenizer) nextAttr(l *lexeme) error {
	for {
		l.pos = thiz.pos()
		c, err := thiz.skipWhitespace()
		if err != nil {
			if err = thiz.eofError(err); err != nil {
				return err
			}
			thiz.inTag = false
			l.kind = lexTagEnd
			l.pos = thiz.pos()
			return thiz.report(newSyntaxError(Lexical, l.pos, msgNotTerminated+"start tag not terminated"))
		}
		l.pos = thiz.pos()
		switch c {
		case '>':
			thiz.consume(1)
			thiz.inTag = false
			l.kind = lexTagEnd
			return nil
		case '/':
			thiz.consume(1)
			if p := thiz.peek(1); len(p) == 1 && p[0] == '>' {
				thiz.consume(1)
				thiz.inTag = false
				l.kind = lexTagEnd
				l.selfClosing = true
				return nil
			}
			if err = thiz.report(newSyntaxError(Lexical, l.pos,
				msgUnexpectedChar+"'/' must be followed by '>'")); err != nil {
				return err
			}
		case '<':
			thiz.inTag = false
			l.kind = lexTagEnd
			return thiz.report(newSyntaxError(Lexical, l.pos, msgNotTerminated+"start tag not terminated"))
		case '=', '"', '\'', '?':
			thiz.consume(1)
			if err = thiz.report(newSyntaxError(Lexical, l.pos,
				msgUnexpectedChar+"attribute name expected")); err != nil {
				return err
			}
		default:
			return thiz.attr(l)
		}
	}
}

func (thiz *tokenizer) attr(l *lexeme) error {
	var err error
	thiz.bb, err = thiz.readName(thiz.bb)
	l.kind = lexAttr
	l.name = thiz.name(0)
	if err != nil {
		return thiz.eofError(err)
	}
	c, err := thiz.skipWhitespace()
	if err != nil {
		return thiz.eofError(err)
	}
	if c != '=' {
		l.data = thiz.bb[:0]
		return thiz.report(newSyntaxError(Lexical, thiz.pos(), msgUnexpectedChar+"no attribute value"))
	}
	eq := thiz.pos()
	thiz.consume(1)
	c, err = thiz.skipWhitespace()
	if err != nil {
		return thiz.eofError(err)
	}
	start := thiz.pos()
	switch c {
	case '"', '\'':
		thiz.consume(1)
		start = thiz.pos()
		l.singleQuote = c == '\''
		thiz.bb, err = thiz.readUntil(thiz.bb, c)
		if err != nil {
			if err = thiz.eofError(err); err != nil {
				return err
			}
			if err = thiz.report(newSyntaxError(Lexical, start,
				msgNotTerminated+"quoted value not terminated")); err != nil {
				return err
			}
		}
	case '>', '/':
		l.data = thiz.bb[:0]
		return thiz.report(newSyntaxError(Lexical, eq, msgUnexpectedChar+"no attribute value"))
	default:
		if err = thiz.report(newSyntaxError(Lexical, eq,
			msgUnexpectedChar+"attribute value not in quotes")); err != nil {
			return err
		}
		thiz.bb, err = thiz.readUnquoted(thiz.bb)
		if err = thiz.eofError(err); err != nil {
			return err
		}
	}
	l.data = thiz.bb
	if thiz.cfg.ConvertEntities {
		l.data, err = thiz.convertEntities(l.data, start)
	}
	return err
}

func (thiz *tokenizer) readUnquoted(dst []byte) ([]byte, error) {
	for {
		c, err := thiz.readByte()
		if err != nil {
			return dst, err
		}
		if isWhitespace(c) || c == '>' || c == '/' {
			thiz.unreadByte()
			return dst, nil
		}
		dst = append(dst, c)
	}
}

func (thiz *tokenizer) endTag(l *lexeme) (bool, error) {
	var err error
	thiz.bb, err = thiz.readName(thiz.bb)
	if err != nil {
		if err = thiz.eofError(err); err != nil {
			return true, err
		}
	}
	if len(thiz.bb) == 0 {
		if err = thiz.report(newSyntaxError(Lexical, l.pos,
			msgInvalidFormat+"end tag name expected")); err != nil {
			return true, err
		}
		_, err = thiz.readUntil(thiz.bb, '>')
		return false, thiz.eofError(err)
	}
	l.kind = lexEndTag
	l.name = thiz.name(0)
	c, err := thiz.skipWhitespace()
	if err != nil {
		if err = thiz.eofError(err); err != nil {
			return true, err
		}
		return true, thiz.report(newSyntaxError(Lexical, l.pos, msgNotTerminated+"end tag not terminated"))
	}
	if c != '>' {
		if err = thiz.report(newSyntaxError(Lexical, thiz.pos(),
			msgUnexpectedChar+"end tag '%s' must be closed with '>'", l.name)); err != nil {
			return true, err
		}
	}
	_, err = thiz.readUntil(thiz.bb, '>')
	return true, thiz.eofError(err)
}

const (
	cdataOpen      = "[CDATA["
	doctypeKeyword = "DOCTYPE"
)

// bang handles everything starting with "<!".
func (thiz *tokenizer) bang(l *lexeme) (bool, error) {
	p := thiz.peek(len(cdataOpen))
	switch {
	case bytes.HasPrefix(p, bs("--")):
		thiz.consume(2)
		return true, thiz.delimited(l, lexComment, "-->", "comment not terminated")
	case bytes.HasPrefix(p, bs("-")):
		thiz.consume(1)
		if err := thiz.report(newSyntaxError(Lexical, l.pos,
			msgInvalidFormat+"bad comment format, expected <!--")); err != nil {
			return true, err
		}
		return true, thiz.delimited(l, lexComment, "-->", "comment not terminated")
	case len(p) == len(cdataOpen) && bytes.EqualFold(p, bs(cdataOpen)):
		if string(p) != cdataOpen {
			if err := thiz.report(newSyntaxError(Lexical, l.pos,
				msgCaseError+"expected CDATA all in caps")); err != nil {
				return true, err
			}
		}
		thiz.consume(len(cdataOpen))
		return true, thiz.delimited(l, lexCData, "]]>", "CDATA not terminated")
	}
	p = thiz.peek(len(doctypeKeyword))
	if len(p) == len(doctypeKeyword) && bytes.EqualFold(p, bs(doctypeKeyword)) {
		if string(p) != doctypeKeyword {
			if err := thiz.report(newSyntaxError(Lexical, l.pos,
				msgCaseError+"expected DOCTYPE all in caps")); err != nil {
				return true, err
			}
		}
		thiz.consume(len(doctypeKeyword))
		return true, thiz.doctype(l)
	}
	if len(p) > 0 && isWhitespace(p[0]) {
		if err := thiz.report(newSyntaxError(Lexical, l.pos,
			msgUnexpectedChar+"<!DOCTYPE can not include spaces")); err != nil {
			return true, err
		}
	} else if err := thiz.report(newSyntaxError(Lexical, l.pos,
		msgInvalidFormat+"DOCTYPE, CDATA, or comment expected")); err != nil {
		return true, err
	}
	_, err := thiz.readUntil(thiz.bb, '>')
	return false, thiz.eofError(err)
}

func (thiz *tokenizer) delimited(l *lexeme, kind lexKind, end, msg string) error {
	var err error
	l.kind = kind
	thiz.bb, err = thiz.readUntilSeq(thiz.bb, end, false, false)
	l.data = thiz.bb
	if err != nil {
		if err = thiz.eofError(err); err != nil {
			return err
		}
		return thiz.report(newSyntaxError(Lexical, l.pos, "%s%s", msgNotTerminated, msg))
	}
	return nil
}

// doctype reads up to the closing '>' skipping over quoted strings and an
// internal subset in brackets.
func (thiz *tokenizer) doctype(l *lexeme) error {
	l.kind = lexDoctype
	depth := 0
	var quote byte
	for {
		c, err := thiz.readByte()
		if err != nil {
			l.data = thiz.bb
			if err = thiz.eofError(err); err != nil {
				return err
			}
			return thiz.report(newSyntaxError(Lexical, l.pos, msgNotTerminated+"DOCTYPE not terminated"))
		}
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '>' && depth <= 0:
			l.data = thiz.bb
			return nil
		}
		thiz.bb = append(thiz.bb, c)
	}
}

func (thiz *tokenizer) procInst(l *lexeme) error {
	var err error
	thiz.bb, err = thiz.readName(thiz.bb)
	l.kind = lexProcInst
	if len(thiz.bb) == 0 {
		if rerr := thiz.report(newSyntaxError(Lexical, l.pos,
			msgInvalidFormat+"instruction target expected")); rerr != nil {
			return rerr
		}
	}
	l.name = thiz.name(0)
	if err != nil {
		return thiz.eofError(err)
	}
	thiz.bb, err = thiz.readUntilSeq(thiz.bb, "?>", false, false)
	l.data = bytes.TrimSpace(thiz.bb)
	if err != nil {
		if err = thiz.eofError(err); err != nil {
			return err
		}
		return thiz.report(newSyntaxError(Lexical, l.pos, msgNotTerminated+"instruction not terminated"))
	}
	return nil
}

func (thiz *tokenizer) text(l *lexeme) error {
	var err error
	l.kind = lexText
	thiz.bb, err = thiz.readText(thiz.bb)
	l.data = thiz.bb
	if err != nil {
		if err = thiz.eofError(err); err != nil {
			return err
		}
		l.eof = true
	}
	if thiz.cfg.ConvertEntities {
		l.data, err = thiz.convertEntities(l.data, l.pos)
	}
	return err
}

// rawText reads the body of a raw text element such as <script>.
// The closing tag is left for the next call.
func (thiz *tokenizer) rawText(l *lexeme) error {
	var err error
	end := "</" + thiz.rawEnd
	thiz.rawEnd = ""
	l.kind = lexText
	l.pos = thiz.pos()
	thiz.bb, err = thiz.readUntilSeq(thiz.bb, end, true, true)
	l.data = thiz.bb
	if err != nil {
		if err = thiz.eofError(err); err != nil {
			return err
		}
		l.eof = true
	}
	return nil
}

// attrScanner reads pseudo-attributes from an instruction body.
type attrScanner struct {
	b   []byte
	i   int
	pos Position
}

// next returns the next name/value pair. ok is false at the end of the
// body or when the body is not a well-formed attribute list.
func (s *attrScanner) next() (name, value []byte, single bool, pos Position, ok bool) {
	for s.i < len(s.b) && isWhitespace(s.b[s.i]) {
		s.i++
	}
	if s.i >= len(s.b) {
		return nil, nil, false, pos, false
	}
	pos = advancePos(s.pos, s.b[:s.i])
	start := s.i
	for s.i < len(s.b) && !isSeparator(s.b[s.i]) {
		s.i++
	}
	name = s.b[start:s.i]
	for s.i < len(s.b) && isWhitespace(s.b[s.i]) {
		s.i++
	}
	if len(name) == 0 || s.i >= len(s.b) || s.b[s.i] != '=' {
		return nil, nil, false, pos, false
	}
	s.i++
	for s.i < len(s.b) && isWhitespace(s.b[s.i]) {
		s.i++
	}
	if s.i >= len(s.b) || (s.b[s.i] != '"' && s.b[s.i] != '\'') {
		return nil, nil, false, pos, false
	}
	q := s.b[s.i]
	s.i++
	end := bytes.IndexByte(s.b[s.i:], q)
	if end < 0 {
		return nil, nil, false, pos, false
	}
	value = s.b[s.i : s.i+end]
	s.i += end + 1
	return name, value, q == '\'', pos, true
}

// wellFormedAttrs reports whether the whole body is an attribute list.
func wellFormedAttrs(b []byte) bool {
	s := attrScanner{b: b}
	for {
		start := s.i
		if _, _, _, _, ok := s.next(); !ok {
			s.i = start
			break
		}
	}
	for s.i < len(s.b) && isWhitespace(s.b[s.i]) {
		s.i++
	}
	return s.i >= len(s.b)
}
