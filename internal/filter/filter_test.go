package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HBTGmbH/oxml"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		src   string
		event Event
		want  bool
	}{
		{"", Event{Kind: "text"}, true},
		{`Kind == "start"`, Event{Kind: "start"}, true},
		{`Kind == "start"`, Event{Kind: "end"}, false},
		{`Local in ["td", "th"] && Line > 1`, Event{Local: "th", Line: 2}, true},
		{`Data contains "foo"`, Event{Data: "a foo b"}, true},
		{`Depth >= 2 || Prefix == "x"`, Event{Prefix: "y", Depth: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			// given
			f, err := Compile(tt.src)
			require.NoError(t, err)

			// when
			ok, err := f.Match(tt.event)

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`Kind +`)
	assert.Error(t, err)

	_, err = Compile(`Line`)
	assert.Error(t, err, "non boolean predicates are rejected")

	_, err = Compile(`Unknown == 1`)
	assert.Error(t, err)
}

func TestFromToken(t *testing.T) {
	// given
	tok := oxml.Token{
		Kind:     oxml.TokenTypeAttribute,
		Name:     oxml.Name{Prefix: "x", Local: "id", Slot: 1},
		ByteData: []byte("42"),
		Pos:      oxml.Position{Line: 3, Column: 7, Offset: 20},
	}

	// when
	e := FromToken(&tok, 2)

	// then
	assert.Equal(t, Event{Kind: "attr", Name: "x:id", Local: "id", Prefix: "x", Data: "42", Line: 3, Column: 7, Depth: 2}, e)
}
