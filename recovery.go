package oxml

import "strings"

// structure is the view of the element stack a policy works on.
type structure interface {
	// top returns the innermost open element.
	top() (Name, bool)
	// closeTop pops the innermost element and emits its end event.
	closeTop(pos Position) error
	// violation reports e and returns an error if parsing must stop.
	violation(e *SyntaxError) error
}

// policy decides how the driver reacts to violations and which
// element rules apply.
type policy interface {
	// continues reports whether parsing goes on after e.
	continues(e *SyntaxError) bool
	// beforeStart runs before an element is opened and returns the
	// rules for it, nil when there are none.
	beforeStart(s structure, name Name, pos Position) (*Hint, error)
	// strayEnd handles an end tag that matches no open element and
	// reports whether it dealt with the tag.
	strayEnd(s structure, name Name, pos Position) (bool, error)
	// same reports whether an end tag name closes an open element name.
	same(open, end Name) bool
}

func newPolicy(cfg Config) policy {
	switch cfg.Recovery {
	case RecoverStrict:
		return strictPolicy{}
	case RecoverSmart:
		return &smartPolicy{table: cfg.hints()}
	}
	return tolerantPolicy{}
}

func exactName(a, b Name) bool {
	return a.Local == b.Local && a.Prefix == b.Prefix
}

type strictPolicy struct{}

func (strictPolicy) continues(*SyntaxError) bool { return false }

func (strictPolicy) beforeStart(structure, Name, Position) (*Hint, error) { return nil, nil }

func (strictPolicy) strayEnd(structure, Name, Position) (bool, error) { return false, nil }

func (strictPolicy) same(open, end Name) bool { return exactName(open, end) }

type tolerantPolicy struct{}

func (tolerantPolicy) continues(e *SyntaxError) bool { return e.Kind != Fatal }

func (tolerantPolicy) beforeStart(structure, Name, Position) (*Hint, error) { return nil, nil }

func (tolerantPolicy) strayEnd(structure, Name, Position) (bool, error) { return false, nil }

func (tolerantPolicy) same(open, end Name) bool { return exactName(open, end) }

// smartPolicy applies a Hints table on top of tolerant recovery.
type smartPolicy struct {
	table *Hints
}

func (thiz *smartPolicy) continues(e *SyntaxError) bool { return e.Kind != Fatal }

func (thiz *smartPolicy) same(open, end Name) bool {
	return strings.EqualFold(open.Local, end.Local) && strings.EqualFold(open.Prefix, end.Prefix)
}

func (thiz *smartPolicy) beforeStart(s structure, name Name, pos Position) (*Hint, error) {
	qname := name.String()
	h := thiz.table.lookup(qname)
	if h == nil {
		return nil, s.violation(newSyntaxError(Semantic, pos,
			msgInvalidElement+"%s is not a valid element type for a %s document type.",
			qname, thiz.table.vocabulary))
	}
	if h.Overlay == OverlayAbort {
		return h, nil
	}
	top, ok := s.top()
	if !ok {
		return h, nil
	}
	if !h.Nest && strings.EqualFold(top.String(), qname) {
		err := s.violation(newSyntaxError(Semantic, pos,
			msgInvalidElement+"%s can not be nested in a %s document, closing previous.",
			qname, thiz.table.vocabulary))
		if err != nil {
			return nil, err
		}
		if err = s.closeTop(pos); err != nil {
			return nil, err
		}
		if top, ok = s.top(); !ok {
			return h, nil
		}
	}
	if !h.allowsParent(top.String()) {
		err := s.violation(newSyntaxError(Semantic, pos,
			msgInvalidElement+"%s can not be a child of a %s in a %s document.",
			qname, top.String(), thiz.table.vocabulary))
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (thiz *smartPolicy) strayEnd(s structure, name Name, pos Position) (bool, error) {
	h := thiz.table.lookup(name.String())
	if h == nil || !h.Void {
		return false, nil
	}
	return true, s.violation(newSyntaxError(Structural, pos,
		msgStartEndMismatch+"element '%s' should not have a separate close element", name))
}
