package oxml

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTree(t *testing.T) {
	// given
	doc := "<?xml version=\"1.0\"?><!--top--><shelf id=\"s1\"><book lang='en'>Go <b>fast</b></book><book/><![CDATA[x]]></shelf>"

	// when
	d, err := BuildTree(strings.NewReader(doc), DefaultConfig())

	// then
	assert.Nil(t, err)
	assert.Empty(t, d.Errors)
	assert.False(t, d.Aborted)
	assert.Len(t, d.Nodes, 3)
	pi := d.Nodes[0].(*Instruction)
	assert.Equal(t, "xml", pi.Target.String())
	assert.Equal(t, "1.0", string(pi.Attrs[0].Value))
	root := d.Root()
	assert.Equal(t, "shelf", root.Name.String())
	id, ok := root.Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "s1", id)
	books := root.Elements("book")
	assert.Len(t, books, 2)
	lang, _ := books[0].Attr("lang")
	assert.Equal(t, "en", lang)
	assert.Equal(t, "Go fast", books[0].Text())
	assert.Equal(t, "Go fastx", root.Text())
	assert.Len(t, root.Elements(""), 2)
	assert.Equal(t, Position{Line: 1, Column: 32, Offset: 31}, root.Position())
}

func TestBuildTreeCollectsErrors(t *testing.T) {
	// when
	d, err := BuildTree(strings.NewReader("<a><b></a>"), DefaultConfig())

	// then
	assert.Nil(t, err)
	assert.Equal(t, []Diagnostic{{
		Msg: "Start End Mismatch: element 'a' close does not match 'b' open",
		Pos: Position{Line: 1, Column: 7, Offset: 6},
	}}, d.Errors)
	assert.Len(t, d.Root().Elements("b"), 1)
}

func TestBuildTreeStrict(t *testing.T) {
	// when
	_, err := BuildTree(strings.NewReader("<a><b></a>"), strict())

	// then
	var se *SyntaxError
	assert.True(t, errors.As(err, &se))
}

func TestBuildTreeAborted(t *testing.T) {
	// given
	cfg := smart()
	cfg.Hints = HTMLHints().WithOverlay(map[string]Overlay{"footer": OverlayAbort})

	// when
	d, err := BuildTree(strings.NewReader("<div>a<footer>b</footer></div>"), cfg)

	// then
	assert.Nil(t, err)
	assert.True(t, d.Aborted)
	assert.Equal(t, "a", d.Root().Text())
}

func TestDocumentEncode(t *testing.T) {
	// given
	doc := "<?xml version=\"1.0\"?><!DOCTYPE r><r a=\"1 &amp; 2\"><!--c--><?pi body?>t<e/></r>"
	d, err := BuildTree(strings.NewReader(doc), DefaultConfig())
	assert.Nil(t, err)
	w := &bytes.Buffer{}

	// when
	err = d.Encode(NewEncoder(w))

	// then
	assert.Nil(t, err)
	assert.Equal(t, doc, w.String())
}
