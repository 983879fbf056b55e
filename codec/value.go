// Package codec maps typed value graphs to and from a compact XML
// vocabulary of single-letter element names.
//
//	<h><m>name</m><s>Ann</s><m>tags</m><a><s>x</s><i>1</i></a></h>
//
// Lists, maps and records may be shared or cyclic: with WithCircular
// the encoder assigns ids and writes back-references, and the decoder
// resolves every reference to the very instance that carries the id.
package codec

import (
	"fmt"
	"math/big"
	"time"
)

// Value is one of nil, bool, int64, *big.Int, float64, string, Symbol,
// time.Time, Date, *List, *Map, *Range, *Pattern or *Record.
type Value = any

// Kind discriminates the supported values.
type Kind byte

const (
	KindUnknown Kind = iota
	KindNil
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindString
	KindSymbol
	KindTime
	KindDate
	KindRange
	KindPattern
	KindList
	KindMap
	KindRecord
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindNil:     "nil",
	KindBool:    "bool",
	KindInt:     "int",
	KindBigInt:  "bigint",
	KindFloat:   "float",
	KindString:  "string",
	KindSymbol:  "symbol",
	KindTime:    "time",
	KindDate:    "date",
	KindRange:   "range",
	KindPattern: "pattern",
	KindList:    "list",
	KindMap:     "map",
	KindRecord:  "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// KindOf returns the kind of v, KindUnknown for unsupported types.
func KindOf(v Value) Kind {
	switch v := v.(type) {
	case nil:
		return KindNil
	case bool:
		return KindBool
	case int64:
		return KindInt
	case *big.Int:
		if v == nil {
			return KindNil
		}
		return KindBigInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case Symbol:
		return KindSymbol
	case time.Time:
		return KindTime
	case Date:
		return KindDate
	case *Range:
		return nilOr(v == nil, KindRange)
	case *Pattern:
		return nilOr(v == nil, KindPattern)
	case *List:
		return nilOr(v == nil, KindList)
	case *Map:
		return nilOr(v == nil, KindMap)
	case *Record:
		return nilOr(v == nil, KindRecord)
	}
	return KindUnknown
}

func nilOr(isNil bool, k Kind) Kind {
	if isNil {
		return KindNil
	}
	return k
}

// Symbol is an identifier-like token, distinct from a string.
type Symbol string

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// ParseDate parses the YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// List is an ordered sequence.
type List struct {
	Items []Value
}

// NewList returns a list of the given items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   Value
	Value Value
}

// Map is a map that keeps its insertion order. Keys are compared with Equal.
type Map struct {
	Entries []Entry
}

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value stored under key or appends a new entry.
func (m *Map) Set(key, value Value) {
	for i := range m.Entries {
		if Equal(m.Entries[i].Key, key) {
			m.Entries[i].Value = value
			return
		}
	}
	m.Entries = append(m.Entries, Entry{Key: key, Value: value})
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.Entries)
}

// Range is an interval between two values.
type Range struct {
	Begin      Value
	End        Value
	ExcludeEnd bool
}

// Pattern is a regular expression source with its flags, written as
// /source/flags.
type Pattern struct {
	Source string
	Flags  string
}

func (p *Pattern) String() string {
	return "/" + p.Source + "/" + p.Flags
}

// Field is a named value of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an instance of a Class with its fields in order.
type Record struct {
	Class  *Class
	Fields []Field
}

// NewRecord creates an empty record of class c.
func NewRecord(c *Class) *Record {
	return &Record{Class: c}
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the named field or appends it.
func (r *Record) Set(name string, value Value) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}
