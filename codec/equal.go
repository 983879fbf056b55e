package codec

import (
	"math"
	"math/big"
	"time"
)

// Equal reports whether a and b are structurally equal. Records are
// equal when they share the class and have equal fields in the same
// order. Cyclic graphs are compared without recursing forever: a pair
// already under comparison counts as equal. NaN equals NaN.
func Equal(a, b Value) bool {
	e := equality{seen: make(map[[2]any]bool)}
	return e.equal(a, b)
}

type equality struct {
	seen map[[2]any]bool
}

// enter reports whether the pair is not yet under comparison and marks it.
func (e *equality) enter(a, b any) bool {
	k := [2]any{a, b}
	if e.seen[k] {
		return false
	}
	e.seen[k] = true
	return true
}

func (e *equality) equal(a, b Value) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb || ka == KindUnknown {
		return false
	}
	switch ka {
	case KindNil:
		return true
	case KindBigInt:
		return a.(*big.Int).Cmp(b.(*big.Int)) == 0
	case KindFloat:
		fa, fb := a.(float64), b.(float64)
		return fa == fb || math.IsNaN(fa) && math.IsNaN(fb)
	case KindTime:
		return a.(time.Time).Equal(b.(time.Time))
	case KindRange:
		ra, rb := a.(*Range), b.(*Range)
		return ra.ExcludeEnd == rb.ExcludeEnd && e.equal(ra.Begin, rb.Begin) && e.equal(ra.End, rb.End)
	case KindPattern:
		return *a.(*Pattern) == *b.(*Pattern)
	case KindList:
		la, lb := a.(*List), b.(*List)
		if la == lb || !e.enter(la, lb) {
			return true
		}
		if len(la.Items) != len(lb.Items) {
			return false
		}
		for i := range la.Items {
			if !e.equal(la.Items[i], lb.Items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		ma, mb := a.(*Map), b.(*Map)
		if ma == mb || !e.enter(ma, mb) {
			return true
		}
		if len(ma.Entries) != len(mb.Entries) {
			return false
		}
		for i := range ma.Entries {
			if !e.equal(ma.Entries[i].Key, mb.Entries[i].Key) || !e.equal(ma.Entries[i].Value, mb.Entries[i].Value) {
				return false
			}
		}
		return true
	case KindRecord:
		ra, rb := a.(*Record), b.(*Record)
		if ra == rb || !e.enter(ra, rb) {
			return true
		}
		if !sameClass(ra.Class, rb.Class) || len(ra.Fields) != len(rb.Fields) {
			return false
		}
		for i := range ra.Fields {
			if ra.Fields[i].Name != rb.Fields[i].Name || !e.equal(ra.Fields[i].Value, rb.Fields[i].Value) {
				return false
			}
		}
		return true
	}
	return a == b
}

// sameClass compares classes by identity, or by name when they come
// from different registries.
func sameClass(a, b *Class) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return classKey(a.Name) == classKey(b.Name)
}
