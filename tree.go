package oxml

import (
	"io"
	"strings"
)

// Node is a node of a Document: *Element, *CharData or *Instruction.
type Node interface {
	Position() Position
}

// Element is an element with its attributes and content.
type Element struct {
	Name     Name
	Attrs    []Attr
	Children []Node
	Pos      Position
}

func (e *Element) Position() Position { return e.Pos }

// Attr returns the value of the attribute with the given qualified name.
func (e *Element) Attr(qname string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Is(qname) {
			return string(a.Value), true
		}
	}
	return "", false
}

// Elements returns the child elements with the given qualified name,
// or all child elements if qname is empty.
func (e *Element) Elements(qname string) []*Element {
	var res []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && (qname == "" || el.Name.Is(qname)) {
			res = append(res, el)
		}
	}
	return res
}

// Text returns the concatenated text and CDATA content of e and its descendants.
func (e *Element) Text() string {
	var sb strings.Builder
	e.text(&sb)
	return sb.String()
}

func (e *Element) text(sb *strings.Builder) {
	for _, c := range e.Children {
		switch n := c.(type) {
		case *Element:
			n.text(sb)
		case *CharData:
			if n.Kind == TokenTypeText || n.Kind == TokenTypeCData {
				sb.WriteString(n.Data)
			}
		}
	}
}

// CharData is text, CDATA, a comment or a DOCTYPE, told apart by Kind.
type CharData struct {
	Kind byte
	Data string
	Pos  Position
}

func (c *CharData) Position() Position { return c.Pos }

// Instruction is a processing instruction. Body is set when the
// content is not an attribute list.
type Instruction struct {
	Target Name
	Attrs  []Attr
	Body   string
	Pos    Position
}

func (i *Instruction) Position() Position { return i.Pos }

// Diagnostic is a violation recovered from while building a Document.
type Diagnostic struct {
	Msg string
	Pos Position
}

// Document is the result of BuildTree.
type Document struct {
	// Nodes are the top level nodes in document order.
	Nodes []Node
	// Errors lists the recovered violations in document order.
	Errors []Diagnostic
	// Aborted is set when an element with OverlayAbort ended the parse.
	Aborted bool
}

// Root returns the first top level element.
func (d *Document) Root() *Element {
	for _, n := range d.Nodes {
		if el, ok := n.(*Element); ok {
			return el
		}
	}
	return nil
}

// BuildTree parses r into a Document. In strict mode the first violation
// is returned, otherwise violations are collected in Document.Errors.
func BuildTree(r io.Reader, cfg Config) (*Document, error) {
	dec := NewDecoder(r, cfg)
	doc := &Document{}
	var (
		t     Token
		stack []*Element
		pi    *Instruction
	)
	add := func(n Node) {
		if len(stack) == 0 {
			doc.Nodes = append(doc.Nodes, n)
			return
		}
		top := stack[len(stack)-1]
		top.Children = append(top.Children, n)
	}
	for {
		if err := dec.NextToken(&t); err != nil {
			if err == io.EOF {
				return doc, nil
			}
			return doc, err
		}
		switch t.Kind {
		case TokenTypeStartElement:
			el := &Element{Name: t.Name, Pos: t.Pos}
			add(el)
			stack = append(stack, el)
		case TokenTypeAttribute:
			a := Attr{Name: t.Name, SingleQuote: t.SingleQuote, Value: clone(t.ByteData)}
			if pi != nil {
				pi.Attrs = append(pi.Attrs, a)
			} else if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Attrs = append(top.Attrs, a)
			}
		case TokenTypeEndElement:
			stack = stack[:len(stack)-1]
		case TokenTypeText:
			if pi != nil {
				pi.Body = string(t.ByteData)
				continue
			}
			add(&CharData{Kind: t.Kind, Data: string(t.ByteData), Pos: t.Pos})
		case TokenTypeCData, TokenTypeComment, TokenTypeDoctype:
			add(&CharData{Kind: t.Kind, Data: string(t.ByteData), Pos: t.Pos})
		case TokenTypeProcInst:
			pi = &Instruction{Target: t.Name, Pos: t.Pos}
			add(pi)
		case TokenTypeEndProcInst:
			pi = nil
		case TokenTypeError:
			doc.Errors = append(doc.Errors, Diagnostic{Msg: string(t.ByteData), Pos: t.Pos})
		case TokenTypeAbort:
			doc.Aborted = true
		}
	}
}

// Encode writes the document to enc.
func (d *Document) Encode(enc *Encoder) error {
	for _, n := range d.Nodes {
		if err := encodeNode(enc, n); err != nil {
			return err
		}
	}
	return enc.Flush()
}

func encodeNode(enc *Encoder, n Node) error {
	var t Token
	switch n := n.(type) {
	case *Element:
		t = Token{Kind: TokenTypeStartElement, Name: n.Name}
		if err := enc.EncodeToken(&t); err != nil {
			return err
		}
		if err := encodeAttrs(enc, n.Attrs); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := encodeNode(enc, c); err != nil {
				return err
			}
		}
		t = Token{Kind: TokenTypeEndElement, Name: n.Name}
	case *CharData:
		t = Token{Kind: n.Kind, ByteData: bs(n.Data)}
	case *Instruction:
		t = Token{Kind: TokenTypeProcInst, Name: n.Target}
		if err := enc.EncodeToken(&t); err != nil {
			return err
		}
		if err := encodeAttrs(enc, n.Attrs); err != nil {
			return err
		}
		if n.Body != "" {
			t = Token{Kind: TokenTypeText, ByteData: bs(n.Body)}
			if err := enc.EncodeToken(&t); err != nil {
				return err
			}
		}
		t = Token{Kind: TokenTypeEndProcInst, Name: n.Target}
	}
	return enc.EncodeToken(&t)
}

func encodeAttrs(enc *Encoder, attrs []Attr) error {
	for _, a := range attrs {
		t := Token{Kind: TokenTypeAttribute, Name: a.Name, ByteData: a.Value, SingleQuote: a.SingleQuote}
		if err := enc.EncodeToken(&t); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
