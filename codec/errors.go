package codec

import (
	"errors"
	"fmt"

	"github.com/HBTGmbH/oxml"
)

var (
	ErrUnknownClass     = errors.New("unknown class")
	ErrUnknownTag       = errors.New("unknown tag")
	ErrInvalidLiteral   = errors.New("invalid literal")
	ErrInvalidReference = errors.New("invalid reference")
	ErrCycle            = errors.New("cycle detected")
	ErrDepth            = errors.New("maximum depth exceeded")
	ErrUnsupportedKind  = errors.New("unsupported kind")
	ErrNoValue          = errors.New("document contains no value")
)

// Error is a codec error. Pos is zero for encode errors.
type Error struct {
	Pos    oxml.Position
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Pos.Line == 0 {
		return "codec: " + msg
	}
	return fmt.Sprintf("codec: %s at line %d, column %d", msg, e.Pos.Line, e.Pos.Column)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(pos oxml.Position, err error, format string, args ...any) *Error {
	return &Error{Pos: pos, Err: err, Detail: fmt.Sprintf(format, args...)}
}
