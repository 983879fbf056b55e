package oxml

import (
	"errors"
	"fmt"
)

var (
	// ErrBadBOM is returned when the input starts with a malformed byte order mark.
	ErrBadBOM = errors.New("bad byte order mark")
	// ErrUnsupportedEncoding is returned when a declared or configured
	// encoding is not known.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrUnexpectedEOF is wrapped by errors about tokens cut off by the end of input.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
)

// ErrorKind classifies a SyntaxError.
type ErrorKind byte

const (
	// Lexical errors are malformed tokens.
	Lexical ErrorKind = iota
	// Structural errors are start/end mismatches and out of order constructs.
	Structural
	// Semantic errors come from the HTML hints table.
	Semantic
	// Fatal errors end the parse in every recovery mode.
	Fatal
)

func (k ErrorKind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Structural:
		return "structural"
	case Semantic:
		return "semantic"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// message prefixes
const (
	msgBadBOM            = "Bad BOM: "
	msgNotTerminated     = "Not Terminated: "
	msgInvalidFormat     = "Invalid Format: "
	msgCaseError         = "Case Error: "
	msgOutOfOrder        = "Out of Order: "
	msgUnexpectedChar    = "Unexpected Character: "
	msgStartEndMismatch  = "Start End Mismatch: "
	msgInvalidElement    = "Invalid Element: "
	msgInvalidEncoding   = "Invalid Encoding: "
	msgInvalidCharacters = "Invalid Character: "
)

// SyntaxError is a positioned parse error. In tolerant and smart mode
// it is delivered as a TokenTypeError token, in strict mode it is
// returned by Decoder.NextToken.
type SyntaxError struct {
	Kind ErrorKind
	Msg  string
	Pos  Position
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Msg, e.Pos.Line, e.Pos.Column)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func newSyntaxError(kind ErrorKind, pos Position, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Pos:  pos,
	}
}
