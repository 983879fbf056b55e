package oxml

import (
	"io"

	"github.com/charmbracelet/log"
)

// Decoder decodes an XML input stream into Token values.
type Decoder interface {
	// NextToken decodes and stores the next Token into
	// the provided Token pointer. It returns io.EOF after the last
	// token. Under RecoverStrict the first violation is returned as a
	// *SyntaxError and every later call returns the same error.
	// Token.ByteData is only valid until the next call.
	NextToken(t *Token) error

	// Reset resets the Decoder to the given io.Reader.
	Reset(r io.Reader)

	// Position returns the position after the last consumed byte.
	Position() Position

	// Names returns the interning cache of this session.
	Names() *NameCache

	// NamespaceOf returns the namespace bound to the prefix of n in the
	// scope of the most recently started element.
	NamespaceOf(n Name) string
}

type docState byte

const (
	stateProlog docState = iota
	stateInDoc
	stateAfterRoot
)

type frame struct {
	name     Name
	hint     *Hint
	preserve bool
	// the element's own events are suppressed
	silent bool
	// the element opened a blocked subtree
	blocking bool
}

type decoder struct {
	tokenizer
	policy policy
	ns     *NamespaceModifier
	log    *log.Logger

	stack []frame
	queue []Token
	qhead int
	lex   lexeme

	state       docState
	seenDoctype bool
	blocked     int
	started     bool
	done        bool
	failed      error
}

// NewDecoder creates a new Decoder reading from r with the given configuration.
func NewDecoder(r io.Reader, cfg Config) Decoder {
	d := &decoder{
		policy: newPolicy(cfg),
		ns:     NewNamespaceModifier(),
		log:    cfg.Logger,
		stack:  make([]frame, 0, 32),
		queue:  make([]Token, 0, 8),
	}
	d.ns.Mode = cfg.Prefix
	d.ns.Prefix = cfg.StripPrefix
	d.cfg = cfg
	d.names = NewNameCache()
	d.report = d.violation
	d.bb = make([]byte, 0, 256)
	d.Reset(r)
	return d
}

func (thiz *decoder) Reset(r io.Reader) {
	thiz.resetTokenizer(r)
	thiz.names.Reset()
	thiz.ns.Reset()
	thiz.stack = thiz.stack[:0]
	thiz.queue = thiz.queue[:0]
	thiz.qhead = 0
	thiz.state = stateProlog
	thiz.seenDoctype = false
	thiz.blocked = 0
	thiz.started = false
	thiz.done = false
	thiz.failed = nil
}

func (thiz *decoder) Position() Position {
	return thiz.pos()
}

func (thiz *decoder) Names() *NameCache {
	return thiz.names
}

func (thiz *decoder) NamespaceOf(n Name) string {
	return thiz.ns.NamespaceOf(n)
}

func (thiz *decoder) NextToken(t *Token) error {
	for thiz.qhead == len(thiz.queue) {
		if thiz.failed != nil {
			return thiz.failed
		}
		if thiz.done {
			return io.EOF
		}
		thiz.queue = thiz.queue[:0]
		thiz.qhead = 0
		if err := thiz.step(); err != nil {
			thiz.failed = err
			thiz.queue = thiz.queue[:0]
			return err
		}
	}
	*t = thiz.queue[thiz.qhead]
	thiz.qhead++
	return nil
}

// step consumes one lexeme and queues the resulting tokens.
func (thiz *decoder) step() error {
	if !thiz.started {
		thiz.started = true
		if err := thiz.begin(); err != nil {
			return err
		}
	}
	l := &thiz.lex
	if err := thiz.next(l); err != nil {
		return err
	}
	switch l.kind {
	case lexEOF:
		return thiz.onEOF(l.pos)
	case lexStartTag:
		return thiz.onStart(l)
	case lexAttr:
		return thiz.onAttr(l)
	case lexTagEnd:
		return thiz.onTagEnd(l)
	case lexEndTag:
		return thiz.onEnd(l.name, l.pos)
	case lexText:
		return thiz.onText(l)
	case lexCData:
		thiz.emit(Token{Kind: TokenTypeCData, ByteData: l.data, Pos: l.pos})
	case lexComment:
		thiz.emit(Token{Kind: TokenTypeComment, ByteData: l.data, Pos: l.pos})
	case lexProcInst:
		return thiz.onProcInst(l)
	case lexDoctype:
		return thiz.onDoctype(l)
	}
	return nil
}

// begin handles a byte order mark and the configured encoding.
func (thiz *decoder) begin() error {
	pos := thiz.pos()
	if err := thiz.detectBOM(); err != nil {
		return thiz.violation(&SyntaxError{Kind: Fatal, Msg: msgBadBOM + "invalid byte order mark", Pos: pos, Err: err})
	}
	if thiz.cfg.Encoding == "" {
		return nil
	}
	if err := thiz.setEncoding(thiz.cfg.Encoding); err != nil {
		return thiz.violation(&SyntaxError{Kind: Fatal, Msg: msgInvalidEncoding + err.Error(), Pos: pos, Err: err})
	}
	thiz.fixed = true
	return nil
}

// violation reports e. It returns e when the parse has to stop.
func (thiz *decoder) violation(e *SyntaxError) error {
	if thiz.log != nil {
		thiz.log.Debug("violation", "kind", e.Kind, "msg", e.Msg, "line", e.Pos.Line, "column", e.Pos.Column)
	}
	if e.Kind == Fatal || !thiz.policy.continues(e) {
		return e
	}
	thiz.queue = append(thiz.queue, Token{Kind: TokenTypeError, ByteData: []byte(e.Msg), Pos: e.Pos})
	return nil
}

func (thiz *decoder) emit(t Token) {
	if thiz.blocked > 0 {
		return
	}
	thiz.queue = append(thiz.queue, t)
}

func (thiz *decoder) top() (Name, bool) {
	if len(thiz.stack) == 0 {
		return Name{}, false
	}
	return thiz.stack[len(thiz.stack)-1].name, true
}

func (thiz *decoder) closeTop(pos Position) error {
	f := thiz.stack[len(thiz.stack)-1]
	thiz.stack = thiz.stack[:len(thiz.stack)-1]
	thiz.ns.pop()
	if f.blocking {
		thiz.blocked--
	}
	if !f.silent {
		thiz.emit(Token{Kind: TokenTypeEndElement, Name: f.name, Pos: pos})
	}
	if len(thiz.stack) == 0 {
		thiz.state = stateAfterRoot
	}
	return nil
}

// applyPrefix strips the prefix of n according to Config.Prefix.
func (thiz *decoder) applyPrefix(n Name) Name {
	if !thiz.ns.stripped(n) {
		return n
	}
	return thiz.names.InternString(n.Local)
}

func (thiz *decoder) onStart(l *lexeme) error {
	name := thiz.applyPrefix(l.name)
	if len(thiz.stack) == 0 {
		if thiz.state == stateAfterRoot {
			if err := thiz.violation(newSyntaxError(Structural, l.pos, msgOutOfOrder+"multiple top level elements")); err != nil {
				return err
			}
		}
		thiz.state = stateInDoc
	}
	hint, err := thiz.policy.beforeStart(thiz, name, l.pos)
	if err != nil {
		return err
	}
	if hint != nil && hint.Overlay == OverlayAbort {
		if thiz.log != nil {
			thiz.log.Debug("abort", "element", name.String(), "line", l.pos.Line, "column", l.pos.Column)
		}
		thiz.inTag = false
		thiz.done = true
		thiz.queue = append(thiz.queue, Token{Kind: TokenTypeAbort, Name: name, Pos: l.pos})
		return nil
	}
	f := frame{name: name, hint: hint}
	if len(thiz.stack) > 0 {
		f.preserve = thiz.stack[len(thiz.stack)-1].preserve
	}
	if hint != nil {
		switch hint.Overlay {
		case OverlayInactive:
			f.silent = true
		case OverlayBlock:
			f.silent = true
			f.blocking = true
		}
	}
	if !f.silent {
		thiz.emit(Token{Kind: TokenTypeStartElement, Name: name, Pos: l.pos})
	}
	if f.blocking {
		thiz.blocked++
	}
	thiz.stack = append(thiz.stack, f)
	thiz.ns.push(name)
	return nil
}

func (thiz *decoder) onAttr(l *lexeme) error {
	f := &thiz.stack[len(thiz.stack)-1]
	name := l.name
	switch {
	case name.Prefix == "xmlns":
		thiz.ns.addNamespaceBinding(name.Local, string(l.data))
	case name.Prefix == "" && name.Local == "xmlns":
		thiz.ns.addNamespaceBinding("", string(l.data))
	case name.Prefix == "xml" && name.Local == "space":
		f.preserve = string(l.data) == "preserve"
	}
	if !f.silent {
		thiz.emit(Token{
			Kind:        TokenTypeAttribute,
			Name:        thiz.applyPrefix(name),
			ByteData:    l.data,
			SingleQuote: l.singleQuote,
			Pos:         l.pos,
		})
	}
	return nil
}

func (thiz *decoder) onTagEnd(l *lexeme) error {
	f := &thiz.stack[len(thiz.stack)-1]
	if l.selfClosing || (f.hint != nil && f.hint.Void) {
		return thiz.closeTop(l.pos)
	}
	if f.hint != nil && f.hint.RawText {
		thiz.rawEnd = f.name.String()
	}
	return nil
}

func (thiz *decoder) onEnd(name Name, pos Position) error {
	name = thiz.applyPrefix(name)
	i := len(thiz.stack) - 1
	for ; i >= 0; i-- {
		if thiz.policy.same(thiz.stack[i].name, name) {
			break
		}
	}
	if i < 0 {
		handled, err := thiz.policy.strayEnd(thiz, name, pos)
		if err != nil || handled {
			return err
		}
		err = thiz.violation(newSyntaxError(Structural, pos,
			msgStartEndMismatch+"element '%s' closed but not opened", name))
		if err != nil {
			return err
		}
		thiz.emit(Token{Kind: TokenTypeStartElement, Name: name, Pos: pos})
		thiz.emit(Token{Kind: TokenTypeEndElement, Name: name, Pos: pos})
		return nil
	}
	// innermost open elements are closed first, one error each
	for len(thiz.stack)-1 > i {
		open := thiz.stack[len(thiz.stack)-1].name
		err := thiz.violation(newSyntaxError(Structural, pos,
			msgStartEndMismatch+"element '%s' close does not match '%s' open", name, open))
		if err != nil {
			return err
		}
		if err := thiz.closeTop(pos); err != nil {
			return err
		}
	}
	return thiz.closeTop(pos)
}

func (thiz *decoder) onText(l *lexeme) error {
	data := l.data
	preserve := len(thiz.stack) > 0 && thiz.stack[len(thiz.stack)-1].preserve
	if !preserve {
		switch thiz.cfg.Skip {
		case SkipReturn:
			data = removeReturns(data)
		case SkipWhite:
			data = collapseWhitespace(data)
		}
	}
	if l.eof && len(thiz.stack) > 0 && !onlyWhitespace(data) {
		err := thiz.violation(newSyntaxError(Lexical, l.pos, msgNotTerminated+"text not terminated"))
		if err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return nil
	}
	if thiz.cfg.Skip != SkipOff && !preserve && onlyWhitespace(data) {
		return nil
	}
	thiz.emit(Token{Kind: TokenTypeText, ByteData: data, Pos: l.pos})
	return nil
}

func (thiz *decoder) onProcInst(l *lexeme) error {
	target := l.name
	decl := target.Prefix == "" && target.Local == "xml"
	if decl && (thiz.seenDoctype || thiz.state != stateProlog) {
		err := thiz.violation(newSyntaxError(Structural, l.pos, msgOutOfOrder+"xml declaration must come first"))
		if err != nil {
			return err
		}
	}
	thiz.emit(Token{Kind: TokenTypeProcInst, Name: target, Pos: l.pos})
	var enc []byte
	if wellFormedAttrs(l.data) {
		s := attrScanner{b: l.data, pos: l.pos}
		for {
			name, value, single, pos, ok := s.next()
			if !ok {
				break
			}
			n := thiz.names.Intern(name)
			if decl && n.Prefix == "" && n.Local == "encoding" {
				enc = value
			}
			thiz.emit(Token{Kind: TokenTypeAttribute, Name: n, ByteData: value, SingleQuote: single, Pos: pos})
		}
	} else {
		thiz.emit(Token{Kind: TokenTypeText, ByteData: l.data, Pos: l.pos})
	}
	thiz.emit(Token{Kind: TokenTypeEndProcInst, Name: target, Pos: l.pos})
	if enc == nil {
		return nil
	}
	if err := thiz.setEncoding(string(enc)); err != nil {
		return thiz.violation(&SyntaxError{Kind: Fatal, Msg: msgInvalidEncoding + err.Error(), Pos: l.pos, Err: err})
	}
	return nil
}

func (thiz *decoder) onDoctype(l *lexeme) error {
	if thiz.state != stateProlog {
		err := thiz.violation(newSyntaxError(Structural, l.pos, msgOutOfOrder+"DOCTYPE can not come after an element"))
		if err != nil {
			return err
		}
	}
	thiz.seenDoctype = true
	thiz.emit(Token{Kind: TokenTypeDoctype, ByteData: l.data, Pos: l.pos})
	return nil
}

func (thiz *decoder) onEOF(pos Position) error {
	for len(thiz.stack) > 0 {
		open := thiz.stack[len(thiz.stack)-1].name
		err := thiz.violation(newSyntaxError(Structural, pos, msgStartEndMismatch+"element '%s' not closed", open))
		if err != nil {
			return err
		}
		if err = thiz.closeTop(pos); err != nil {
			return err
		}
	}
	thiz.done = true
	return nil
}
