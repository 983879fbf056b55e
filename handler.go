package oxml

import "io"

// A handler passed to Parse implements any subset of the following
// interfaces. Hooks that are not implemented are not called.
// Returning an error from a hook stops the parse with that error.

// StartElementHandler is called when an element opens.
type StartElementHandler interface {
	StartElement(name Name) error
}

// EndElementHandler is called when an element closes, also for
// elements closed by recovery.
type EndElementHandler interface {
	EndElement(name Name) error
}

// AttrHandler receives attribute values as raw bytes.
type AttrHandler interface {
	Attr(name Name, value []byte) error
}

// AttrValueHandler receives attribute values as SaxValue. It takes
// precedence over AttrHandler.
type AttrValueHandler interface {
	AttrValue(name Name, value SaxValue) error
}

// TextHandler receives text as raw bytes.
type TextHandler interface {
	Text(data []byte) error
}

// ValueHandler receives text as SaxValue. It takes precedence over TextHandler.
type ValueHandler interface {
	Value(value SaxValue) error
}

// CDataHandler receives the content of a CDATA section.
type CDataHandler interface {
	CData(data []byte) error
}

// CommentHandler receives the text of a comment.
type CommentHandler interface {
	Comment(data []byte) error
}

// InstructHandler is called for a processing instruction. Its
// pseudo-attributes go to the attribute hooks, a body that is no
// attribute list goes to the text hooks.
type InstructHandler interface {
	Instruct(target Name) error
}

// EndInstructHandler is called at the end of a processing instruction.
type EndInstructHandler interface {
	EndInstruct(target Name) error
}

// DoctypeHandler receives the DOCTYPE declaration body.
type DoctypeHandler interface {
	Doctype(data []byte) error
}

// ErrorHandler receives recovered violations in tolerant and smart mode.
type ErrorHandler interface {
	ParseError(msg string, pos Position) error
}

// AbortHandler is called when an element with OverlayAbort starts.
type AbortHandler interface {
	Abort(name Name) error
}

// LocationHandler is told the position of every event before the event hook runs.
type LocationHandler interface {
	Location(pos Position)
}

// dispatcher holds the hooks of one handler, indexed by token kind.
type dispatcher struct {
	calls    [tokenTypeCount]func(t *Token) error
	location LocationHandler
	names    *NameCache
}

func newDispatcher(h any, names *NameCache) *dispatcher {
	d := &dispatcher{names: names}
	if x, ok := h.(StartElementHandler); ok {
		d.calls[TokenTypeStartElement] = func(t *Token) error { return x.StartElement(t.Name) }
	}
	if x, ok := h.(EndElementHandler); ok {
		d.calls[TokenTypeEndElement] = func(t *Token) error { return x.EndElement(t.Name) }
	}
	if x, ok := h.(AttrValueHandler); ok {
		d.calls[TokenTypeAttribute] = func(t *Token) error { return x.AttrValue(t.Name, d.value(t)) }
	} else if x, ok := h.(AttrHandler); ok {
		d.calls[TokenTypeAttribute] = func(t *Token) error { return x.Attr(t.Name, t.ByteData) }
	}
	if x, ok := h.(ValueHandler); ok {
		d.calls[TokenTypeText] = func(t *Token) error { return x.Value(d.value(t)) }
	} else if x, ok := h.(TextHandler); ok {
		d.calls[TokenTypeText] = func(t *Token) error { return x.Text(t.ByteData) }
	}
	if x, ok := h.(CDataHandler); ok {
		d.calls[TokenTypeCData] = func(t *Token) error { return x.CData(t.ByteData) }
	}
	if x, ok := h.(CommentHandler); ok {
		d.calls[TokenTypeComment] = func(t *Token) error { return x.Comment(t.ByteData) }
	}
	if x, ok := h.(InstructHandler); ok {
		d.calls[TokenTypeProcInst] = func(t *Token) error { return x.Instruct(t.Name) }
	}
	if x, ok := h.(EndInstructHandler); ok {
		d.calls[TokenTypeEndProcInst] = func(t *Token) error { return x.EndInstruct(t.Name) }
	}
	if x, ok := h.(DoctypeHandler); ok {
		d.calls[TokenTypeDoctype] = func(t *Token) error { return x.Doctype(t.ByteData) }
	}
	if x, ok := h.(ErrorHandler); ok {
		d.calls[TokenTypeError] = func(t *Token) error { return x.ParseError(string(t.ByteData), t.Pos) }
	}
	if x, ok := h.(AbortHandler); ok {
		d.calls[TokenTypeAbort] = func(t *Token) error { return x.Abort(t.Name) }
	}
	d.location, _ = h.(LocationHandler)
	return d
}

func (thiz *dispatcher) value(t *Token) SaxValue {
	return SaxValue{data: t.ByteData, names: thiz.names}
}

func (thiz *dispatcher) dispatch(t *Token) error {
	if thiz.location != nil {
		thiz.location.Location(t.Pos)
	}
	if call := thiz.calls[t.Kind]; call != nil {
		return call(t)
	}
	return nil
}

// Parse reads r with the given configuration and calls the hooks h
// implements for every event. It returns nil at the end of input or
// after an abort, the first violation in strict mode, or the first
// error returned by a hook.
func Parse(r io.Reader, h any, cfg Config) error {
	dec := NewDecoder(r, cfg)
	d := newDispatcher(h, dec.Names())
	var t Token
	for {
		if err := dec.NextToken(&t); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := d.dispatch(&t); err != nil {
			return err
		}
	}
}
