package codec

import (
	"github.com/charmbracelet/log"

	"github.com/HBTGmbH/oxml"
)

// Effort selects how unknown classes and malformed data are handled.
type Effort byte

const (
	// EffortStrict fails on the first problem.
	EffortStrict Effort = iota
	// EffortTolerant replaces the offending value with nil. The subtree
	// of a record with an unknown class is discarded.
	EffortTolerant
	// EffortAutoDefine is EffortTolerant, except that unknown classes are
	// defined as placeholders in the registry.
	EffortAutoDefine
)

func (e Effort) String() string {
	switch e {
	case EffortStrict:
		return "strict"
	case EffortTolerant:
		return "tolerant"
	case EffortAutoDefine:
		return "auto_define"
	}
	return "unknown"
}

// DefaultMaxDepth is the nesting limit used when WithMaxDepth is not given.
const DefaultMaxDepth = 1000

type options struct {
	effort   Effort
	registry *Registry
	circular bool
	maxDepth int
	xmlDecl  bool
	indent   string
	logger   *log.Logger
	parse    oxml.Config
}

func newOptions(opts []Option) options {
	parse := oxml.DefaultConfig()
	parse.Recovery = oxml.RecoverStrict
	parse.Skip = oxml.SkipOff
	o := options{
		maxDepth: DefaultMaxDepth,
		parse:    parse,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	return o
}

// Option configures Decode and Encode.
type Option func(*options)

func WithEffort(e Effort) Option {
	return func(o *options) { o.effort = e }
}

// WithRegistry sets the classes records are resolved against. Without
// it every decode starts from an empty registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithCircular makes Encode write ids on lists, maps and records and a
// back-reference for every repeated occurrence. Without it a cycle is
// an ErrCycle.
func WithCircular(on bool) Option {
	return func(o *options) { o.circular = on }
}

// WithMaxDepth limits the nesting depth on encode and decode.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithXMLDecl makes Encode start with an XML declaration.
func WithXMLDecl(on bool) Option {
	return func(o *options) { o.xmlDecl = on }
}

// WithIndent makes Encode put nested elements on their own lines.
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}

// WithLogger traces discarded values at debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithParseConfig replaces the parser configuration used by Decode.
// The default is strict recovery with all text kept.
func WithParseConfig(cfg oxml.Config) Option {
	return func(o *options) { o.parse = cfg }
}
