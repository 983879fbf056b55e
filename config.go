package oxml

import "github.com/charmbracelet/log"

// RecoveryMode selects how a Decoder reacts to malformed input.
type RecoveryMode byte

const (
	// RecoverTolerant reports every violation as a TokenTypeError token
	// and continues with a best-effort fix-up.
	RecoverTolerant RecoveryMode = iota
	// RecoverStrict returns the first violation as an error.
	RecoverStrict
	// RecoverSmart is RecoverTolerant plus HTML structural rules.
	RecoverSmart
)

// SkipMode controls whitespace handling in text.
type SkipMode byte

const (
	// SkipNone keeps text as is but drops whitespace-only runs.
	SkipNone SkipMode = iota
	// SkipReturn additionally removes carriage returns.
	SkipReturn
	// SkipWhite collapses whitespace runs into a single space and trims text.
	SkipWhite
	// SkipOff emits all text, including whitespace-only runs.
	SkipOff
)

// NameCase controls how element and attribute names are reported.
type NameCase byte

const (
	// NamePreserve reports names as written.
	NamePreserve NameCase = iota
	// NameLower reports names lower-cased.
	NameLower
)

// PrefixMode controls namespace prefixes on element and attribute names.
type PrefixMode byte

const (
	// PrefixPreserve keeps all prefixes.
	PrefixPreserve PrefixMode = iota
	// PrefixStripAll removes every prefix except "xmlns".
	PrefixStripAll
	// PrefixStripOne removes only Config.StripPrefix.
	PrefixStripOne
)

// Config is the immutable set of options of a parse session.
// The zero value is not useful, use DefaultConfig and override fields.
type Config struct {
	// Encoding overrides the input encoding. A byte order mark still wins.
	Encoding string

	Recovery RecoveryMode
	Skip     SkipMode
	NameCase NameCase
	Prefix   PrefixMode

	// StripPrefix is the prefix removed under PrefixStripOne.
	StripPrefix string

	// ConvertEntities decodes character and entity references in
	// text and attribute values.
	ConvertEntities bool

	// Hints replaces HTMLHints() for RecoverSmart.
	Hints *Hints

	// Logger receives debug traces of recovery decisions. Nil is silent.
	Logger *log.Logger
}

// DefaultConfig returns the default configuration: tolerant recovery,
// entity conversion enabled, names and prefixes preserved.
func DefaultConfig() Config {
	return Config{
		Recovery:        RecoverTolerant,
		Skip:            SkipNone,
		NameCase:        NamePreserve,
		Prefix:          PrefixPreserve,
		ConvertEntities: true,
	}
}

func (c Config) hints() *Hints {
	if c.Recovery != RecoverSmart {
		return nil
	}
	if c.Hints != nil {
		return c.Hints
	}
	return HTMLHints()
}
