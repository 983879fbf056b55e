package codec

import (
	"bytes"
	"encoding/base64"
	"io"
	"math/big"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/HBTGmbH/oxml"
)

// Encode writes v to w.
func Encode(w io.Writer, v Value, opts ...Option) error {
	o := newOptions(opts)
	e := &encoder{
		enc:      oxml.NewEncoder(w),
		o:        o,
		names:    oxml.NewNameCache(),
		visiting: make(map[any]bool),
	}
	e.enc.Indent = o.indent
	if o.circular {
		e.ids = make(map[any]uint64)
	}
	if o.xmlDecl {
		if err := e.decl(); err != nil {
			return err
		}
	}
	if err := e.value(v, ""); err != nil {
		return err
	}
	return e.enc.Flush()
}

// EncodeToString returns the encoding of v.
func EncodeToString(v Value, opts ...Option) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type encoder struct {
	enc   *oxml.Encoder
	o     options
	names *oxml.NameCache
	tok   oxml.Token

	// composites on the current path, for cycle detection
	visiting map[any]bool
	// ids of composites already written, only WithCircular
	ids    map[any]uint64
	nextID uint64
	depth  int
}

func (e *encoder) emit(kind byte, name string, data []byte) error {
	e.tok = oxml.Token{Kind: kind, ByteData: data}
	if name != "" {
		e.tok.Name = e.names.InternString(name)
	}
	return e.enc.EncodeToken(&e.tok)
}

func (e *encoder) decl() error {
	if err := e.emit(oxml.TokenTypeProcInst, "xml", nil); err != nil {
		return err
	}
	if err := e.emit(oxml.TokenTypeAttribute, "version", []byte("1.0")); err != nil {
		return err
	}
	return e.emit(oxml.TokenTypeEndProcInst, "xml", nil)
}

// start writes a start tag with the field attribute when field is set.
func (e *encoder) start(name, field string) error {
	if err := e.emit(oxml.TokenTypeStartElement, name, nil); err != nil {
		return err
	}
	if field != "" {
		return e.emit(oxml.TokenTypeAttribute, "a", []byte(field))
	}
	return nil
}

func (e *encoder) end(name string) error {
	return e.emit(oxml.TokenTypeEndElement, name, nil)
}

// leaf writes a complete element with text content.
func (e *encoder) leaf(name, field, text string) error {
	if err := e.start(name, field); err != nil {
		return err
	}
	if text != "" {
		if err := e.emit(oxml.TokenTypeText, "", []byte(text)); err != nil {
			return err
		}
	}
	return e.end(name)
}

// fail applies the effort policy to an encode problem. Under tolerant
// efforts the value is written as nil.
func (e *encoder) fail(err error, format string, args []any, field string) error {
	ce := newError(oxml.Position{}, err, format, args...)
	if e.o.effort == EffortStrict {
		return ce
	}
	if e.o.logger != nil {
		e.o.logger.Debug("value replaced by nil", "err", ce)
	}
	return e.leaf("z", field, "")
}

func (e *encoder) value(v Value, field string) error {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.o.maxDepth {
		return newError(oxml.Position{}, ErrDepth, "limit %d", e.o.maxDepth)
	}
	switch v := v.(type) {
	case nil:
		return e.leaf("z", field, "")
	case bool:
		if v {
			return e.leaf("y", field, "")
		}
		return e.leaf("n", field, "")
	case int64:
		return e.leaf("i", field, strconv.FormatInt(v, 10))
	case *big.Int:
		if v == nil {
			return e.leaf("z", field, "")
		}
		return e.leaf("j", field, v.String())
	case float64:
		return e.leaf("f", field, strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		if friendly(v) {
			return e.leaf("s", field, v)
		}
		return e.leaf("b", field, base64.StdEncoding.EncodeToString([]byte(v)))
	case Symbol:
		if friendly(string(v)) {
			return e.leaf("m", field, string(v))
		}
		return e.leaf("d", field, base64.StdEncoding.EncodeToString([]byte(v)))
	case time.Time:
		return e.leaf("t", field, v.Format(time.RFC3339Nano))
	case Date:
		return e.leaf("D", field, v.String())
	case *Pattern:
		if v == nil {
			return e.leaf("z", field, "")
		}
		return e.leaf("g", field, v.String())
	case *Range:
		if v == nil {
			return e.leaf("z", field, "")
		}
		return e.interval(v, field)
	case *List:
		if v == nil {
			return e.leaf("z", field, "")
		}
		return e.composite(v, "a", field, "", func() error {
			for _, item := range v.Items {
				if err := e.value(item, ""); err != nil {
					return err
				}
			}
			return nil
		})
	case *Map:
		if v == nil {
			return e.leaf("z", field, "")
		}
		return e.composite(v, "h", field, "", func() error {
			for _, entry := range v.Entries {
				if err := e.value(entry.Key, ""); err != nil {
					return err
				}
				if err := e.value(entry.Value, ""); err != nil {
					return err
				}
			}
			return nil
		})
	case *Record:
		if v == nil {
			return e.leaf("z", field, "")
		}
		return e.record(v, field)
	}
	return e.fail(ErrUnsupportedKind, "%T", []any{v}, field)
}

// composite writes a list, map or record. ptr identifies the value for
// cycle detection and back-references.
func (e *encoder) composite(ptr any, name, field, class string, body func() error) error {
	if e.ids != nil {
		if id, ok := e.ids[ptr]; ok {
			if err := e.start("p", field); err != nil {
				return err
			}
			if err := e.emit(oxml.TokenTypeAttribute, "i", []byte(strconv.FormatUint(id, 10))); err != nil {
				return err
			}
			return e.end("p")
		}
	} else if e.visiting[ptr] {
		return e.fail(ErrCycle, "%s", []any{KindOf(ptr)}, field)
	}
	if err := e.start(name, field); err != nil {
		return err
	}
	if class != "" {
		if err := e.emit(oxml.TokenTypeAttribute, "c", []byte(class)); err != nil {
			return err
		}
	}
	if e.ids != nil {
		e.nextID++
		e.ids[ptr] = e.nextID
		if err := e.emit(oxml.TokenTypeAttribute, "i", []byte(strconv.FormatUint(e.nextID, 10))); err != nil {
			return err
		}
	}
	e.visiting[ptr] = true
	err := body()
	delete(e.visiting, ptr)
	if err != nil {
		return err
	}
	return e.end(name)
}

func (e *encoder) record(r *Record, field string) error {
	if r.Class == nil {
		return e.fail(ErrUnknownClass, "record without class", nil, field)
	}
	name := "o"
	if r.Class.Struct {
		name = "u"
	}
	return e.composite(r, name, field, r.Class.Name, func() error {
		for _, f := range r.Fields {
			if err := e.value(f.Value, f.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *encoder) interval(r *Range, field string) error {
	if err := e.start("r", field); err != nil {
		return err
	}
	if err := e.value(r.Begin, "begin"); err != nil {
		return err
	}
	if err := e.value(r.End, "end"); err != nil {
		return err
	}
	if err := e.value(r.ExcludeEnd, "exclude_end"); err != nil {
		return err
	}
	return e.end("r")
}

// friendly reports whether s survives as element text. Everything else
// is written base64 encoded.
func friendly(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r < 0x20 || r == 0x7F:
			return false
		case r == 0xFFFE || r == 0xFFFF:
			return false
		}
	}
	return true
}
