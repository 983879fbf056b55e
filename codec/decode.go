package codec

import (
	"encoding/base64"
	"errors"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/HBTGmbH/oxml"
)

// Decode reads one value from r.
func Decode(r io.Reader, opts ...Option) (Value, error) {
	o := newOptions(opts)
	d := &decoder{
		dec:  oxml.NewDecoder(r, o.parse),
		o:    o,
		refs: make(map[uint64]Value),
	}
	return d.document()
}

// DecodeString reads one value from s.
func DecodeString(s string, opts ...Option) (Value, error) {
	return Decode(strings.NewReader(s), opts...)
}

// tag is an opened element with the attributes the vocabulary uses.
type tag struct {
	name  string
	field string
	class string
	id    uint64
	hasID bool
	pos   oxml.Position
}

type decoder struct {
	dec oxml.Decoder
	o   options

	tok    oxml.Token
	peeked bool
	inPI   bool

	refs   map[uint64]Value
	nextID uint64
	// inside a discarded subtree ids are counted but not bound
	discard int
	depth   int
}

func (d *decoder) document() (Value, error) {
	for {
		t, err := d.read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, newError(d.dec.Position(), ErrNoValue, "")
			}
			return nil, err
		}
		if t.Kind != oxml.TokenTypeStartElement {
			continue
		}
		_, v, err := d.value(t)
		return v, err
	}
}

// read returns the next token that matters to the vocabulary.
// Comments, doctypes and instructions are skipped.
func (d *decoder) read() (*oxml.Token, error) {
	if d.peeked {
		d.peeked = false
		return &d.tok, nil
	}
	for {
		if err := d.dec.NextToken(&d.tok); err != nil {
			var se *oxml.SyntaxError
			if errors.As(err, &se) {
				return nil, &Error{Pos: se.Pos, Err: err}
			}
			return nil, err
		}
		switch d.tok.Kind {
		case oxml.TokenTypeProcInst:
			d.inPI = true
		case oxml.TokenTypeEndProcInst:
			d.inPI = false
		case oxml.TokenTypeComment, oxml.TokenTypeDoctype:
		case oxml.TokenTypeError:
			d.trace(d.tok.Pos, "parse error", string(d.tok.ByteData))
		case oxml.TokenTypeAbort:
			return nil, newError(d.tok.Pos, io.ErrUnexpectedEOF, "parse aborted at %s", d.tok.Name)
		default:
			if !d.inPI {
				return &d.tok, nil
			}
		}
	}
}

// readInner is read where the end of input is an error.
func (d *decoder) readInner() (*oxml.Token, error) {
	t, err := d.read()
	if errors.Is(err, io.EOF) {
		return nil, newError(d.dec.Position(), io.ErrUnexpectedEOF, "")
	}
	return t, err
}

func (d *decoder) trace(pos oxml.Position, msg string, detail string) {
	if d.o.logger != nil {
		d.o.logger.Debug(msg, "detail", detail, "line", pos.Line, "column", pos.Column)
	}
}

// fail reports a problem per the effort policy. It returns an error
// only under EffortStrict.
func (d *decoder) fail(e *Error) error {
	if d.o.effort == EffortStrict {
		return e
	}
	d.trace(e.Pos, "value discarded", e.Error())
	return nil
}

// open reads the attributes of the start element t.
func (d *decoder) open(t *oxml.Token) (tag, error) {
	tg := tag{name: t.Name.String(), pos: t.Pos}
	for {
		a, err := d.readInner()
		if err != nil {
			return tg, err
		}
		if a.Kind != oxml.TokenTypeAttribute {
			d.peeked = true
			return tg, nil
		}
		switch {
		case a.Name.Is("a"):
			tg.field = string(a.ByteData)
		case a.Name.Is("c"):
			tg.class = string(a.ByteData)
		case a.Name.Is("i"):
			id, err := strconv.ParseUint(string(a.ByteData), 10, 64)
			if err != nil {
				if err = d.fail(newError(a.Pos, ErrInvalidLiteral, "id %q", a.ByteData)); err != nil {
					return tg, err
				}
				continue
			}
			tg.id, tg.hasID = id, true
		}
	}
}

// assign hands out the id of a list, map or record.
func (d *decoder) assign(tg *tag) uint64 {
	d.nextID++
	if tg.hasID {
		return tg.id
	}
	return d.nextID
}

func (d *decoder) bind(id uint64, v Value) {
	if d.discard == 0 {
		d.refs[id] = v
	}
}

// value decodes the element started by t and returns its field name.
func (d *decoder) value(t *oxml.Token) (string, Value, error) {
	tg, err := d.open(t)
	if err != nil {
		return "", nil, err
	}
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > d.o.maxDepth {
		return tg.field, nil, newError(tg.pos, ErrDepth, "limit %d", d.o.maxDepth)
	}
	var v Value
	switch tg.name {
	case "z":
		err = d.empty(&tg)
	case "y", "n":
		v, err = tg.name == "y", d.empty(&tg)
	case "a":
		v, err = d.list(&tg)
	case "h":
		v, err = d.mapping(&tg)
	case "o", "u":
		v, err = d.record(&tg)
	case "r":
		v, err = d.interval(&tg)
	case "p":
		v, err = d.reference(&tg)
	case "i", "j", "f", "s", "b", "m", "d", "t", "D", "g":
		var text string
		if text, err = d.text(&tg); err == nil {
			v, err = d.scalar(&tg, text)
		}
	default:
		if err = d.fail(newError(tg.pos, ErrUnknownTag, "<%s>", tg.name)); err == nil {
			d.discard++
			err = d.children(func(string, Value) error { return nil })
			d.discard--
		}
	}
	return tg.field, v, err
}

// empty skips everything up to the end of an element without content.
func (d *decoder) empty(tg *tag) error {
	_, err := d.text(tg)
	return err
}

// text collects the character data of a scalar element.
func (d *decoder) text(tg *tag) (string, error) {
	var sb strings.Builder
	for {
		t, err := d.readInner()
		if err != nil {
			return "", err
		}
		switch t.Kind {
		case oxml.TokenTypeText, oxml.TokenTypeCData:
			sb.Write(t.ByteData)
		case oxml.TokenTypeEndElement:
			return sb.String(), nil
		case oxml.TokenTypeStartElement:
			if err = d.fail(newError(t.Pos, ErrInvalidLiteral, "element in <%s>", tg.name)); err != nil {
				return "", err
			}
			d.discard++
			_, _, err = d.value(t)
			d.discard--
			if err != nil {
				return "", err
			}
		}
	}
}

// children decodes child elements up to the end of the current element.
// Whitespace between them is ignored.
func (d *decoder) children(fn func(field string, v Value) error) error {
	for {
		t, err := d.readInner()
		if err != nil {
			return err
		}
		switch t.Kind {
		case oxml.TokenTypeEndElement:
			return nil
		case oxml.TokenTypeStartElement:
			field, v, err := d.value(t)
			if err != nil {
				return err
			}
			if err = fn(field, v); err != nil {
				return err
			}
		}
	}
}

func (d *decoder) list(tg *tag) (Value, error) {
	l := &List{}
	d.bind(d.assign(tg), l)
	err := d.children(func(_ string, v Value) error {
		l.Items = append(l.Items, v)
		return nil
	})
	return l, err
}

func (d *decoder) mapping(tg *tag) (Value, error) {
	m := &Map{}
	d.bind(d.assign(tg), m)
	var (
		key    Value
		hasKey bool
	)
	err := d.children(func(_ string, v Value) error {
		if !hasKey {
			key, hasKey = v, true
			return nil
		}
		m.Entries = append(m.Entries, Entry{Key: key, Value: v})
		hasKey = false
		return nil
	})
	if err != nil {
		return m, err
	}
	if hasKey {
		return m, d.fail(newError(tg.pos, ErrInvalidLiteral, "map key %v without value", key))
	}
	return m, nil
}

func (d *decoder) record(tg *tag) (Value, error) {
	id := d.assign(tg)
	class, err := d.class(tg)
	if err != nil {
		return nil, err
	}
	if class == nil {
		d.discard++
		err = d.children(func(string, Value) error { return nil })
		d.discard--
		return nil, err
	}
	rec := &Record{Class: class}
	d.bind(id, rec)
	err = d.children(func(field string, v Value) error {
		if class.Placeholder {
			d.o.registry.addField(class, field)
		}
		rec.Fields = append(rec.Fields, Field{Name: field, Value: v})
		return nil
	})
	return rec, err
}

// class resolves the c attribute. It returns nil when the record is
// to be discarded.
func (d *decoder) class(tg *tag) (*Class, error) {
	if c, ok := d.o.registry.Lookup(tg.class); ok {
		return c, nil
	}
	if d.o.effort == EffortAutoDefine && tg.class != "" {
		c := d.o.registry.autoDefine(tg.class, tg.name == "u")
		d.trace(tg.pos, "class defined", tg.class)
		return c, nil
	}
	return nil, d.fail(newError(tg.pos, ErrUnknownClass, "%q", tg.class))
}

func (d *decoder) interval(tg *tag) (Value, error) {
	r := &Range{}
	err := d.children(func(field string, v Value) error {
		switch field {
		case "begin":
			r.Begin = v
		case "end":
			r.End = v
		case "exclude_end":
			b, _ := v.(bool)
			r.ExcludeEnd = b
		}
		return nil
	})
	return r, err
}

func (d *decoder) reference(tg *tag) (Value, error) {
	if err := d.empty(tg); err != nil {
		return nil, err
	}
	if !tg.hasID {
		return nil, d.fail(newError(tg.pos, ErrInvalidReference, "missing id"))
	}
	v, ok := d.refs[tg.id]
	if !ok {
		return nil, d.fail(newError(tg.pos, ErrInvalidReference, "id %d", tg.id))
	}
	return v, nil
}

func (d *decoder) scalar(tg *tag, text string) (Value, error) {
	switch tg.name {
	case "i":
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		} else if errors.Is(err, strconv.ErrRange) {
			return d.bigInt(tg, text)
		}
	case "j":
		return d.bigInt(tg, text)
	case "f":
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, nil
		}
	case "s":
		return text, nil
	case "m":
		return Symbol(text), nil
	case "b", "d":
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			break
		}
		if tg.name == "d" {
			return Symbol(raw), nil
		}
		return string(raw), nil
	case "t":
		if t, err := oxml.ParseTime(strings.TrimSpace(text)); err == nil {
			return t, nil
		}
	case "D":
		if date, err := ParseDate(strings.TrimSpace(text)); err == nil {
			return date, nil
		}
	case "g":
		if i := strings.LastIndexByte(text, '/'); len(text) > 1 && text[0] == '/' && i > 0 {
			return &Pattern{Source: text[1:i], Flags: text[i+1:]}, nil
		}
	}
	return nil, d.fail(newError(tg.pos, ErrInvalidLiteral, "<%s>%s</%s>", tg.name, text, tg.name))
}

func (d *decoder) bigInt(tg *tag, text string) (Value, error) {
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, d.fail(newError(tg.pos, ErrInvalidLiteral, "<%s>%s</%s>", tg.name, text, tg.name))
	}
	return n, nil
}
