package oxml

// Name is a name with a possible prefix like "xmlns:blubb"
// or simply without prefix like "a".
// Names handed out by a Decoder are interned: the same text
// always yields the same Slot within one session.
type Name struct {
	Local  string
	Prefix string

	// Slot is the interning cache slot of the full qualified text,
	// or -1 for names that were not produced by a NameCache.
	Slot int32
}

// String returns the qualified form "prefix:local".
func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Is reports whether n has the given qualified text, ignoring the slot.
func (n Name) Is(qname string) bool {
	if n.Prefix == "" {
		return n.Local == qname
	}
	return len(qname) == len(n.Prefix)+1+len(n.Local) &&
		qname[:len(n.Prefix)] == n.Prefix &&
		qname[len(n.Prefix)] == ':' &&
		qname[len(n.Prefix)+1:] == n.Local
}

// LocalName builds a Name without prefix that is not bound to any cache.
func LocalName(local string) Name {
	return Name{Local: local, Slot: -1}
}

// Position is a location in the input.
// Line and Column are 1-based, Column counts bytes. Offset is 0-based.
type Position struct {
	Line   int
	Column int
	Offset int64
}

// constants for Token.Kind
const (
	TokenTypeInvalid = iota
	TokenTypeStartElement
	TokenTypeAttribute
	TokenTypeEndElement
	TokenTypeText
	TokenTypeCData
	TokenTypeComment
	TokenTypeProcInst
	TokenTypeEndProcInst
	TokenTypeDoctype
	TokenTypeError
	TokenTypeAbort

	tokenTypeCount
)

var tokenTypeNames = [tokenTypeCount]string{
	TokenTypeInvalid:      "invalid",
	TokenTypeStartElement: "start",
	TokenTypeAttribute:    "attr",
	TokenTypeEndElement:   "end",
	TokenTypeText:         "text",
	TokenTypeCData:        "cdata",
	TokenTypeComment:      "comment",
	TokenTypeProcInst:     "instruct",
	TokenTypeEndProcInst:  "end_instruct",
	TokenTypeDoctype:      "doctype",
	TokenTypeError:        "error",
	TokenTypeAbort:        "abort",
}

// TokenTypeName returns a short lowercase name for a Token.Kind.
func TokenTypeName(kind byte) string {
	if int(kind) < len(tokenTypeNames) {
		return tokenTypeNames[kind]
	}
	return "invalid"
}

// Token represents the union of all possible token types
// and their respective information.
type Token struct {
	Kind byte

	// only for TokenTypeStartElement, TokenTypeEndElement, TokenTypeAttribute,
	// TokenTypeProcInst, TokenTypeEndProcInst and TokenTypeAbort
	Name Name

	// the attribute value for TokenTypeAttribute, the content for TokenTypeText,
	// TokenTypeCData, TokenTypeComment and TokenTypeDoctype and the message
	// for TokenTypeError.
	// It is only valid until the next call to Decoder.NextToken.
	ByteData []byte

	// only for TokenTypeAttribute
	SingleQuote bool

	// Pos is the position of the first character of the token.
	Pos Position
}
