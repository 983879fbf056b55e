package oxml

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder implements every hook and records the calls.
type recorder struct {
	calls []string
	pos   []Position
}

func (r *recorder) add(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) StartElement(name Name) error { return r.add("start %s", name) }

func (r *recorder) EndElement(name Name) error { return r.add("end %s", name) }

func (r *recorder) Attr(name Name, value []byte) error { return r.add("attr %s=%s", name, value) }

func (r *recorder) Text(data []byte) error { return r.add("text %s", data) }

func (r *recorder) CData(data []byte) error { return r.add("cdata %s", data) }

func (r *recorder) Comment(data []byte) error { return r.add("comment %s", data) }

func (r *recorder) Instruct(target Name) error { return r.add("instruct %s", target) }

func (r *recorder) EndInstruct(target Name) error { return r.add("end_instruct %s", target) }

func (r *recorder) Doctype(data []byte) error { return r.add("doctype %s", data) }

func (r *recorder) ParseError(msg string, pos Position) error {
	return r.add("error %d:%d %s", pos.Line, pos.Column, msg)
}

func (r *recorder) Abort(name Name) error { return r.add("abort %s", name) }

func (r *recorder) Location(pos Position) { r.pos = append(r.pos, pos) }

func TestParseCallsAllHooks(t *testing.T) {
	// given
	doc := "<?xml version=\"1.0\"?><!DOCTYPE r><r a=\"1\"><!--c--><![CDATA[d]]>t<?pi x?></r><x/>"
	r := &recorder{}

	// when
	err := Parse(strings.NewReader(doc), r, DefaultConfig())

	// then
	assert.Nil(t, err)
	assert.Equal(t, []string{
		"instruct xml", "attr version=1.0", "end_instruct xml",
		"doctype  r",
		"start r", "attr a=1",
		"comment c", "cdata d", "text t",
		"instruct pi", "text x", "end_instruct pi",
		"end r",
		"error 1:77 Out of Order: multiple top level elements",
		"start x", "end x",
	}, r.calls)
	assert.Len(t, r.pos, len(r.calls))
	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, r.pos[0])
}

func TestParseAbort(t *testing.T) {
	// given
	cfg := smart()
	cfg.Hints = HTMLHints().WithOverlay(map[string]Overlay{"body": OverlayAbort})
	r := &recorder{}

	// when
	err := Parse(strings.NewReader("<html><head><title>T</title></head><body>never</body></html>"), r, cfg)

	// then
	assert.Nil(t, err)
	assert.Equal(t, []string{
		"start html", "start head", "start title", "text T", "end title", "end head", "abort body",
	}, r.calls)
}

func TestParseStrictReturnsViolation(t *testing.T) {
	// given
	r := &recorder{}

	// when
	err := Parse(strings.NewReader("<a><b></a>"), r, strict())

	// then
	var se *SyntaxError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"start a", "start b"}, r.calls)
}

type stopper struct{}

var errStop = errors.New("stop")

func (stopper) StartElement(name Name) error {
	if name.Local == "b" {
		return errStop
	}
	return nil
}

func TestParseHookErrorStops(t *testing.T) {
	// when
	err := Parse(strings.NewReader("<a><b/></a>"), stopper{}, DefaultConfig())

	// then
	assert.Equal(t, errStop, err)
}

// valueHandler implements both text hooks, the value hooks win.
type valueHandler struct {
	texts   []string
	ints    []int64
	symbols []Name
}

func (h *valueHandler) Text([]byte) error {
	h.texts = append(h.texts, "raw")
	return nil
}

func (h *valueHandler) Value(v SaxValue) error {
	if i, err := v.AsInt(); err == nil {
		h.ints = append(h.ints, i)
		return nil
	}
	h.texts = append(h.texts, v.AsString())
	return nil
}

func (h *valueHandler) Attr(Name, []byte) error {
	h.texts = append(h.texts, "raw attr")
	return nil
}

func (h *valueHandler) AttrValue(_ Name, v SaxValue) error {
	h.symbols = append(h.symbols, v.AsSymbol())
	return nil
}

func TestParseValueHooksTakePrecedence(t *testing.T) {
	// given
	h := &valueHandler{}

	// when
	err := Parse(strings.NewReader("<a kind=\" item \"><n>42</n><n>x</n><m kind=\"item\"/></a>"), h, DefaultConfig())

	// then
	assert.Nil(t, err)
	assert.Equal(t, []int64{42}, h.ints)
	assert.Equal(t, []string{"x"}, h.texts)
	assert.Len(t, h.symbols, 2)
	assert.Equal(t, h.symbols[0], h.symbols[1])
	assert.Equal(t, "item", h.symbols[0].Local)
}

func TestParseWithoutHooks(t *testing.T) {
	// when
	err := Parse(strings.NewReader("<a>x</a>"), struct{}{}, DefaultConfig())

	// then
	assert.Nil(t, err)
}
