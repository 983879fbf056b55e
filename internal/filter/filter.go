// Package filter selects parse events with expr-lang predicates such as
//
//	Kind == "start" && Local in ["td", "th"] && Line > 10
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/HBTGmbH/oxml"
)

// Event is the environment a predicate is evaluated against.
type Event struct {
	Kind   string
	Name   string
	Local  string
	Prefix string
	Data   string
	Line   int
	Column int
	Depth  int
}

// FromToken builds the Event for t at the given element depth.
func FromToken(t *oxml.Token, depth int) Event {
	return Event{
		Kind:   oxml.TokenTypeName(t.Kind),
		Name:   t.Name.String(),
		Local:  t.Name.Local,
		Prefix: t.Name.Prefix,
		Data:   string(t.ByteData),
		Line:   t.Pos.Line,
		Column: t.Pos.Column,
		Depth:  depth,
	}
}

// Filter is a compiled predicate. It is safe for concurrent use.
type Filter struct {
	src string
	prg *vm.Program
}

// Compile compiles a predicate. An empty source matches every event.
func Compile(src string) (*Filter, error) {
	if src == "" {
		return &Filter{}, nil
	}
	prg, err := expr.Compile(src, expr.Env(Event{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &Filter{src: src, prg: prg}, nil
}

// Match evaluates the predicate for e.
func (f *Filter) Match(e Event) (bool, error) {
	if f.prg == nil {
		return true, nil
	}
	out, err := expr.Run(f.prg, e)
	if err != nil {
		return false, fmt.Errorf("run filter %q: %w", f.src, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
