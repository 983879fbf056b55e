package oxml

import (
	"errors"
	"io"
	"unsafe"
)

// pre-allocate all constant byte slices that we write
var (
	angleOpen       = bs("<")
	angleClose      = bs(">")
	slashAngleClose = bs("/>")
	angleOpenSlash  = bs("</")
	space           = bs(" ")
	equal           = bs("=")
	angleOpenQuest  = bs("<?")
	questAngleClose = bs("?>")
	colon           = bs(":")
	singleQuote     = bs("'")
	doubleQuote     = bs("\"")
	cdataStart      = bs("<![CDATA[")
	cdataEnd        = bs("]]>")
	commentStart    = bs("<!--")
	commentEnd      = bs("-->")
	doctypeStart    = bs("<!DOCTYPE")
	newline         = bs("\n")
)

// Attr is an attribute of a start element as seen by a Middleware.
type Attr struct {
	Name        Name
	SingleQuote bool
	Value       []byte
}

// Middleware allows to pre-process elements before they are written.
type Middleware interface {
	// StartElement is called with the complete start tag and may rewrite
	// the name and return a modified attribute list.
	StartElement(name *Name, attrs []Attr) ([]Attr, error)

	// EndElement is called before an end tag is written and may rewrite its name.
	EndElement(name *Name) error

	// Reset resets the state of a Middleware.
	Reset()
}

var errAttrOutsideTag = errors.New("attribute token outside of a start element")

// Encoder encodes Token values to an io.Writer.
// Text and attribute values are escaped unless Raw is set.
type Encoder struct {
	// The io.Writer we encode/write into.
	w io.Writer

	// Raw writes text and attribute values as they are. Use it with a
	// Decoder that does not convert entities.
	Raw bool

	// Indent, when not empty, puts every element that does not follow
	// text on a new line indented by its depth.
	Indent string

	// Whether the last written tag was a start tag.
	// This is used to delay encoding the ending ">" or "/>" string
	// based on whether the element is immediately closed afterwards.
	lastStartElement bool

	// a start tag collects its attributes until the next non-attribute token
	pending bool
	start   Name
	attrs   []Attr
	values  []byte

	open []Name

	inProcInst bool
	afterText  bool
	written    bool

	middlewares []Middleware
}

// NewEncoder creates a new Encoder with the given middlewares and returns a pointer to it.
func NewEncoder(w io.Writer, middlewares ...Middleware) *Encoder {
	return &Encoder{
		w:           w,
		attrs:       make([]Attr, 0, 16),
		values:      make([]byte, 0, 256),
		open:        make([]Name, 0, 32),
		middlewares: middlewares,
	}
}

// Reset resets this Encoder to write into the provided io.Writer
// and resets all middlewares.
func (thiz *Encoder) Reset(w io.Writer) {
	thiz.w = w
	thiz.lastStartElement = false
	thiz.pending = false
	thiz.attrs = thiz.attrs[:0]
	thiz.values = thiz.values[:0]
	thiz.open = thiz.open[:0]
	thiz.inProcInst = false
	thiz.afterText = false
	thiz.written = false
	for _, middleware := range thiz.middlewares {
		middleware.Reset()
	}
}

// EncodeToken first calls any Middleware and then
// writes the byte-representation of that Token to the io.Writer
// of this Encoder. TokenTypeError and TokenTypeAbort tokens are ignored.
func (thiz *Encoder) EncodeToken(t *Token) error {
	if t.Kind == TokenTypeAttribute {
		return thiz.encodeAttribute(t)
	}
	if err := thiz.flushStart(); err != nil {
		return err
	}
	switch t.Kind {
	case TokenTypeStartElement:
		if err := thiz.endLastStartElement(); err != nil {
			return err
		}
		thiz.pending = true
		thiz.start = t.Name
		thiz.attrs = thiz.attrs[:0]
		thiz.values = thiz.values[:0]
		return nil
	case TokenTypeEndElement:
		return thiz.encodeEndElement()
	case TokenTypeText:
		if thiz.inProcInst {
			return thiz.writeAll(space, t.ByteData)
		}
		thiz.afterText = true
		return thiz.encodeEscaped(t.ByteData, false)
	case TokenTypeCData:
		return thiz.encodeWrapped(cdataStart, t.ByteData, cdataEnd)
	case TokenTypeComment:
		return thiz.encodeWrapped(commentStart, t.ByteData, commentEnd)
	case TokenTypeDoctype:
		return thiz.encodeWrapped(doctypeStart, t.ByteData, angleClose)
	case TokenTypeProcInst:
		return thiz.encodeProcInst(t)
	case TokenTypeEndProcInst:
		thiz.inProcInst = false
		return thiz.writeAll(questAngleClose)
	case TokenTypeError, TokenTypeAbort:
		return nil
	}
	return errors.New("unknown token kind")
}

// Flush writes a pending start tag. It is only needed when the
// output has to be inspected before the next token is encoded.
func (thiz *Encoder) Flush() error {
	return thiz.flushStart()
}

func (thiz *Encoder) encodeAttribute(t *Token) error {
	if thiz.inProcInst {
		return thiz.writeAttr(t.Name, t.ByteData, t.SingleQuote)
	}
	if !thiz.pending {
		return errAttrOutsideTag
	}
	// ByteData does not outlive the next decoded token, keep a copy
	off := len(thiz.values)
	thiz.values = append(thiz.values, t.ByteData...)
	thiz.attrs = append(thiz.attrs, Attr{
		Name:        t.Name,
		SingleQuote: t.SingleQuote,
		Value:       thiz.values[off:len(thiz.values):len(thiz.values)],
	})
	return nil
}

func (thiz *Encoder) flushStart() error {
	if !thiz.pending {
		return nil
	}
	thiz.pending = false
	var err error
	attrs := thiz.attrs
	for _, middleware := range thiz.middlewares {
		attrs, err = middleware.StartElement(&thiz.start, attrs)
		if err != nil {
			return err
		}
	}
	if err = thiz.writeIndent(len(thiz.open)); err != nil {
		return err
	}
	if err = thiz.writeAll(angleOpen); err != nil {
		return err
	}
	if err = thiz.writeName(thiz.start); err != nil {
		return err
	}
	for _, attr := range attrs {
		if err = thiz.writeAttr(attr.Name, attr.Value, attr.SingleQuote); err != nil {
			return err
		}
	}
	thiz.open = append(thiz.open, thiz.start)
	// DO NOT write the ending ">" character, because the element
	// could get closed right away with the next EndElement token.
	thiz.lastStartElement = true
	thiz.afterText = false
	return nil
}

func (thiz *Encoder) encodeEndElement() error {
	if len(thiz.open) == 0 {
		return errors.New("end element without start element")
	}
	name := thiz.open[len(thiz.open)-1]
	thiz.open = thiz.open[:len(thiz.open)-1]
	for _, middleware := range thiz.middlewares {
		if err := middleware.EndElement(&name); err != nil {
			return err
		}
	}
	if thiz.lastStartElement {
		// the last seen token was a StartElement, so this
		// token can only be its accompanying EndElement.
		thiz.lastStartElement = false
		return thiz.writeAll(slashAngleClose)
	}
	if !thiz.afterText {
		if err := thiz.writeIndent(len(thiz.open)); err != nil {
			return err
		}
	}
	thiz.afterText = false
	if err := thiz.writeAll(angleOpenSlash); err != nil {
		return err
	}
	if err := thiz.writeName(name); err != nil {
		return err
	}
	return thiz.writeAll(angleClose)
}

func (thiz *Encoder) writeIndent(depth int) error {
	if thiz.Indent == "" || thiz.afterText {
		return nil
	}
	if !thiz.written {
		return nil
	}
	if err := thiz.writeAll(newline); err != nil {
		return err
	}
	for i := 0; i < depth; i++ {
		if _, err := io.WriteString(thiz.w, thiz.Indent); err != nil {
			return err
		}
	}
	return nil
}

func (thiz *Encoder) writeAll(parts ...[]byte) error {
	for _, p := range parts {
		if _, err := thiz.w.Write(p); err != nil {
			return err
		}
	}
	thiz.written = true
	return nil
}

func (thiz *Encoder) writeName(n Name) error {
	if n.Prefix != "" {
		if err := thiz.writeAll(bs(n.Prefix), colon); err != nil {
			return err
		}
	}
	return thiz.writeAll(bs(n.Local))
}

func (thiz *Encoder) writeAttr(n Name, value []byte, useSingleQuote bool) error {
	if err := thiz.writeAll(space); err != nil {
		return err
	}
	if err := thiz.writeName(n); err != nil {
		return err
	}
	quote := doubleQuote
	if useSingleQuote {
		quote = singleQuote
	}
	if err := thiz.writeAll(equal, quote); err != nil {
		return err
	}
	if err := thiz.encodeEscaped(value, true); err != nil {
		return err
	}
	return thiz.writeAll(quote)
}

// encodeEscaped writes s escaping markup characters unless Raw is set.
func (thiz *Encoder) encodeEscaped(s []byte, attr bool) error {
	if err := thiz.endLastStartElementIf(!attr); err != nil {
		return err
	}
	if thiz.Raw {
		return thiz.writeAll(s)
	}
	last := 0
	for i, c := range s {
		var esc []byte
		switch c {
		case '<':
			esc = escLt
		case '>':
			esc = escGt
		case '&':
			esc = escAmp
		case '"':
			if attr {
				esc = escQuot
			}
		case '\'':
			if attr {
				esc = escApos
			}
		case '\n', '\r', '\t':
			if attr {
				esc = escWhitespace[c]
			}
		}
		if esc == nil {
			continue
		}
		if err := thiz.writeAll(s[last:i], esc); err != nil {
			return err
		}
		last = i + 1
	}
	return thiz.writeAll(s[last:])
}

var (
	escLt         = bs("&lt;")
	escGt         = bs("&gt;")
	escAmp        = bs("&amp;")
	escQuot       = bs("&quot;")
	escApos       = bs("&apos;")
	escWhitespace = map[byte][]byte{'\n': bs("&#xA;"), '\r': bs("&#xD;"), '\t': bs("&#x9;")}
)

func (thiz *Encoder) encodeWrapped(open, data, close []byte) error {
	if err := thiz.endLastStartElement(); err != nil {
		return err
	}
	return thiz.writeAll(open, data, close)
}

func (thiz *Encoder) endLastStartElementIf(cond bool) error {
	if !cond {
		return nil
	}
	return thiz.endLastStartElement()
}

func (thiz *Encoder) endLastStartElement() error {
	if thiz.lastStartElement {
		// end the last StartElement with its ">"
		thiz.lastStartElement = false
		return thiz.writeAll(angleClose)
	}
	return nil
}

func (thiz *Encoder) encodeProcInst(t *Token) error {
	if err := thiz.endLastStartElement(); err != nil {
		return err
	}
	if err := thiz.writeIndent(len(thiz.open)); err != nil {
		return err
	}
	thiz.inProcInst = true
	if err := thiz.writeAll(angleOpenQuest); err != nil {
		return err
	}
	return thiz.writeName(t.Name)
}

// bs returns the bytes of s without copying. The result must not be modified.
func bs(s string) []byte {
	if s == "" {
		return []byte{}
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
