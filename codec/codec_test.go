package codec_test

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/HBTGmbH/oxml"
	"github.com/HBTGmbH/oxml/codec"
)

var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	return a.Cmp(b) == 0
})

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return n
}

func TestEncodeScalars(t *testing.T) {
	tests := []struct {
		value codec.Value
		want  string
	}{
		{nil, "<z/>"},
		{true, "<y/>"},
		{false, "<n/>"},
		{int64(-42), "<i>-42</i>"},
		{mustBig("123456789012345678901234567890"), "<j>123456789012345678901234567890</j>"},
		{2.5, "<f>2.5</f>"},
		{"Ann", "<s>Ann</s>"},
		{"", "<s/>"},
		{"<&>", "<s>&lt;&amp;&gt;</s>"},
		{"a\x01b", "<b>YQFi</b>"},
		{codec.Symbol("name"), "<m>name</m>"},
		{codec.Symbol("a\x00"), "<d>YQA=</d>"},
		{time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC), "<t>2024-02-29T12:30:00Z</t>"},
		{codec.Date{Year: 2024, Month: time.February, Day: 29}, "<D>2024-02-29</D>"},
		{&codec.Pattern{Source: "a+", Flags: "i"}, "<g>/a+/i</g>"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			// when
			got, err := codec.EncodeToString(tt.value)

			// then
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalarRoundTrip(t *testing.T) {
	values := []codec.Value{
		nil, true, false,
		int64(0), int64(math.MinInt64), int64(math.MaxInt64),
		mustBig("-98765432109876543210"),
		0.1, math.Inf(-1), 1e300,
		"plain", "  spaced  ", "multi\nline\ttext", "quotes \" and '", "ctrl\x1f", "\xff\xfe",
		codec.Symbol("sym"), codec.Symbol(""),
		time.Date(2001, 9, 9, 1, 46, 40, 123456789, time.UTC),
		codec.Date{Year: 1999, Month: time.December, Day: 31},
		&codec.Pattern{Source: "^a/b$", Flags: "mx"},
	}
	for _, v := range values {
		t.Run(codec.Sprint(v), func(t *testing.T) {
			// given
			s, err := codec.EncodeToString(v)
			assert.Nil(t, err)

			// when
			got, err := codec.DecodeString(s)

			// then
			assert.Nil(t, err)
			if diff := cmp.Diff(v, got, bigIntComparer); diff != "" {
				t.Errorf("%s: mismatch (-want +got):\n%s", s, diff)
			}
		})
	}
}

func TestNaNRoundTrip(t *testing.T) {
	// given
	s, err := codec.EncodeToString(math.NaN())
	assert.Nil(t, err)

	// when
	got, err := codec.DecodeString(s)

	// then
	assert.Nil(t, err)
	assert.True(t, codec.Equal(math.NaN(), got))
}

func TestEncodeComposites(t *testing.T) {
	// given
	reg := codec.NewRegistry()
	point := reg.Define("Point", "x", "y")
	p := codec.NewRecord(point)
	p.Set("x", int64(1))
	p.Set("y", codec.NewList())
	m := &codec.Map{}
	m.Set(codec.Symbol("at"), p)
	m.Set(int64(2), &codec.Range{Begin: int64(1), End: int64(5), ExcludeEnd: true})

	// when
	got, err := codec.EncodeToString(m)

	// then
	assert.Nil(t, err)
	assert.Equal(t, "<h>"+
		"<m>at</m>"+
		"<o c=\"Point\"><i a=\"x\">1</i><a a=\"y\"/></o>"+
		"<i>2</i>"+
		"<r><i a=\"begin\">1</i><i a=\"end\">5</i><y a=\"exclude_end\"/></r>"+
		"</h>", got)
}

func TestCompositeRoundTrip(t *testing.T) {
	// given
	reg := codec.NewRegistry()
	item := reg.Define("Shop::Item", "name", "price", "tags")
	item.Struct = true
	r := codec.NewRecord(item)
	r.Set("name", "nut")
	r.Set("price", 0.25)
	r.Set("tags", codec.NewList(codec.Symbol("small"), nil))
	m := &codec.Map{}
	m.Set("items", codec.NewList(r, &codec.Range{Begin: "a", End: "z"}))
	m.Set(codec.Symbol("count"), int64(1))
	s, err := codec.EncodeToString(m, codec.WithIndent("  "))
	assert.Nil(t, err)

	// when
	got, err := codec.DecodeString(s, codec.WithRegistry(reg))

	// then
	assert.Nil(t, err)
	assert.True(t, codec.Equal(m, got), "%s\n%s", codec.Sprint(m), codec.Sprint(got))
	assert.True(t, strings.Contains(s, "<u c=\"Shop::Item\">"), s)
	if diff := cmp.Diff(codec.Sprint(m), codec.Sprint(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeIndent(t *testing.T) {
	// when
	got, err := codec.EncodeToString(codec.NewList(int64(1), codec.NewList(int64(2))), codec.WithIndent("  "))

	// then
	assert.Nil(t, err)
	assert.Equal(t, "<a>\n  <i>1</i>\n  <a>\n    <i>2</i>\n  </a>\n</a>", got)
}

func TestEncodeXMLDecl(t *testing.T) {
	// given
	s, err := codec.EncodeToString(int64(1), codec.WithXMLDecl(true))
	assert.Nil(t, err)

	// when
	got, err := codec.DecodeString(s)

	// then
	assert.Nil(t, err)
	assert.Equal(t, "<?xml version=\"1.0\"?><i>1</i>", s)
	assert.Equal(t, int64(1), got)
}

// selfReferencing builds a B whose field "self" is B itself and whose
// field "items" is a list holding B twice.
func selfReferencing(reg *codec.Registry) *codec.Record {
	b := codec.NewRecord(reg.Define("B", "self", "items"))
	b.Set("self", b)
	b.Set("items", codec.NewList(b, b))
	return b
}

func TestEncodeCycleFails(t *testing.T) {
	// given
	b := selfReferencing(codec.NewRegistry())

	// when
	_, err := codec.EncodeToString(b)

	// then
	assert.True(t, errors.Is(err, codec.ErrCycle))
}

func TestEncodeCycleTolerant(t *testing.T) {
	// given
	b := selfReferencing(codec.NewRegistry())

	// when
	got, err := codec.EncodeToString(b, codec.WithEffort(codec.EffortTolerant))

	// then
	assert.Nil(t, err)
	assert.Equal(t, "<o c=\"B\"><z a=\"self\"/><a a=\"items\"><z/><z/></a></o>", got)
}

func TestCircularRoundTripSharesInstances(t *testing.T) {
	// given
	reg := codec.NewRegistry()
	b := selfReferencing(reg)
	s, err := codec.EncodeToString(b, codec.WithCircular(true))
	assert.Nil(t, err)

	// when
	v, err := codec.DecodeString(s, codec.WithRegistry(reg))

	// then
	assert.Nil(t, err)
	assert.Equal(t, "<o c=\"B\" i=\"1\"><p a=\"self\" i=\"1\"/><a a=\"items\" i=\"2\"><p i=\"1\"/><p i=\"1\"/></a></o>", s)
	got := v.(*codec.Record)
	self, _ := got.Get("self")
	assert.Same(t, got, self)
	items, _ := got.Get("items")
	list := items.(*codec.List)
	assert.Same(t, got, list.Items[0])
	assert.Same(t, got, list.Items[1])

	// a change through one path is seen through all others
	list.Items[0].(*codec.Record).Set("name", "changed")
	name, ok := self.(*codec.Record).Get("name")
	assert.True(t, ok)
	assert.Equal(t, "changed", name)
}

func TestSharedValuesWithoutCycle(t *testing.T) {
	// given
	shared := codec.NewList(int64(1))
	outer := codec.NewList(shared, shared)

	// when
	plain, err1 := codec.EncodeToString(outer)
	circular, err2 := codec.EncodeToString(outer, codec.WithCircular(true))

	// then
	assert.Nil(t, err1)
	assert.Nil(t, err2)
	assert.Equal(t, "<a><a><i>1</i></a><a><i>1</i></a></a>", plain)
	assert.Equal(t, "<a i=\"1\"><a i=\"2\"><i>1</i></a><p i=\"2\"/></a>", circular)
	v, err := codec.DecodeString(circular)
	assert.Nil(t, err)
	got := v.(*codec.List)
	assert.Same(t, got.Items[0], got.Items[1])
}

func TestImplicitIDs(t *testing.T) {
	// when
	v, err := codec.DecodeString("<a><h><m>k</m><a/></h><a/><p i=\"3\"/><p i=\"2\"/></a>")

	// then
	assert.Nil(t, err)
	got := v.(*codec.List)
	assert.Len(t, got.Items, 4)
	m := got.Items[0].(*codec.Map)
	inner, _ := m.Get(codec.Symbol("k"))
	assert.Same(t, inner, got.Items[2])
	assert.Same(t, m, got.Items[3])
	assert.NotSame(t, got.Items[1], got.Items[2])
}

func TestUnknownReference(t *testing.T) {
	// given
	doc := "<a><p i=\"9\"/><i>1</i></a>"

	// when
	_, err := codec.DecodeString(doc)
	v, err2 := codec.DecodeString(doc, codec.WithEffort(codec.EffortTolerant))

	// then
	assert.True(t, errors.Is(err, codec.ErrInvalidReference))
	assert.Nil(t, err2)
	assert.True(t, codec.Equal(codec.NewList(nil, int64(1)), v))
}

func TestUnknownClass(t *testing.T) {
	doc := "<a><o c=\"Shop::Item\"><s a=\"name\">nut</s><o c=\"Shop::Part\" a=\"part\"/></o><i>1</i></a>"

	t.Run("strict", func(t *testing.T) {
		// when
		_, err := codec.DecodeString(doc)

		// then
		assert.True(t, errors.Is(err, codec.ErrUnknownClass))
		var ce *codec.Error
		assert.True(t, errors.As(err, &ce))
		assert.Equal(t, 4, ce.Pos.Column)
	})

	t.Run("tolerant", func(t *testing.T) {
		// when
		v, err := codec.DecodeString(doc, codec.WithEffort(codec.EffortTolerant))

		// then
		assert.Nil(t, err)
		assert.True(t, codec.Equal(codec.NewList(nil, int64(1)), v))
	})

	t.Run("auto define", func(t *testing.T) {
		// given
		reg := codec.NewRegistry()

		// when
		v, err := codec.DecodeString(doc, codec.WithEffort(codec.EffortAutoDefine), codec.WithRegistry(reg))

		// then
		assert.Nil(t, err)
		rec := v.(*codec.List).Items[0].(*codec.Record)
		assert.Equal(t, "Shop::Item", rec.Class.Name)
		assert.True(t, rec.Class.Placeholder)
		assert.Equal(t, []string{"name", "part"}, rec.Class.Fields)
		assert.Equal(t, "Shop", rec.Class.Parent.Name)
		part, _ := rec.Get("part")
		assert.Equal(t, "Shop::Part", part.(*codec.Record).Class.Name)
		assert.Equal(t, 3, reg.Len())
		c, ok := reg.Lookup("Shop.Item")
		assert.True(t, ok)
		assert.Same(t, rec.Class, c)
	})
}

func TestInvalidLiterals(t *testing.T) {
	docs := []string{
		"<a><i>abc</i></a>",
		"<a><f>1.2.3</f></a>",
		"<a><j>12x</j></a>",
		"<a><t>yesterday</t></a>",
		"<a><D>2024-13-01</D></a>",
		"<a><b>!!</b></a>",
		"<a><g>nope</g></a>",
		"<a><h><i>1</i></h></a>",
		"<a><i>1<i>2</i></i></a>",
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			// when
			_, err := codec.DecodeString(doc)
			v, err2 := codec.DecodeString(doc, codec.WithEffort(codec.EffortTolerant))

			// then
			assert.True(t, errors.Is(err, codec.ErrInvalidLiteral), "%v", err)
			assert.Nil(t, err2)
			assert.NotNil(t, v)
		})
	}
}

func TestInvalidLiteralMessage(t *testing.T) {
	// when
	_, err := codec.DecodeString("<a><i>abc</i></a>")

	// then
	assert.Equal(t, "codec: invalid literal: <i>abc</i> at line 1, column 4", err.Error())
}

func TestBigIntPromotion(t *testing.T) {
	// when
	v, err := codec.DecodeString("<i>99999999999999999999</i>")

	// then
	assert.Nil(t, err)
	if diff := cmp.Diff(mustBig("99999999999999999999"), v, bigIntComparer); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownTag(t *testing.T) {
	// given
	doc := "<a><q><i>1</i></q><i>2</i></a>"

	// when
	_, err := codec.DecodeString(doc)
	v, err2 := codec.DecodeString(doc, codec.WithEffort(codec.EffortTolerant))

	// then
	assert.True(t, errors.Is(err, codec.ErrUnknownTag))
	assert.Nil(t, err2)
	assert.True(t, codec.Equal(codec.NewList(nil, int64(2)), v))
}

func TestDiscardedSubtreeKeepsIDs(t *testing.T) {
	// ids are counted inside a discarded record so that later references still match
	doc := "<a><o c=\"Gone\"><a/></o><a/><p i=\"4\"/></a>"

	// when
	v, err := codec.DecodeString(doc, codec.WithEffort(codec.EffortTolerant))

	// then
	assert.Nil(t, err)
	got := v.(*codec.List)
	assert.Len(t, got.Items, 3)
	assert.Nil(t, got.Items[0])
	assert.Same(t, got.Items[1], got.Items[2])
}

func TestMaxDepth(t *testing.T) {
	// given
	nested := codec.NewList(codec.NewList(codec.NewList()))

	// when
	_, err1 := codec.EncodeToString(nested, codec.WithMaxDepth(2))
	_, err2 := codec.DecodeString("<a><a><a/></a></a>", codec.WithMaxDepth(2))
	_, err3 := codec.DecodeString("<a><a><a/></a></a>", codec.WithMaxDepth(3))

	// then
	assert.True(t, errors.Is(err1, codec.ErrDepth))
	assert.True(t, errors.Is(err2, codec.ErrDepth))
	assert.Nil(t, err3)
}

func TestUnsupportedKind(t *testing.T) {
	// when
	_, err := codec.EncodeToString(codec.NewList(5))
	got, err2 := codec.EncodeToString(codec.NewList(5), codec.WithEffort(codec.EffortTolerant))

	// then
	assert.True(t, errors.Is(err, codec.ErrUnsupportedKind))
	assert.Nil(t, err2)
	assert.Equal(t, "<a><z/></a>", got)
}

func TestNoValue(t *testing.T) {
	for _, doc := range []string{"", "<?xml version=\"1.0\"?>", "<!-- nothing -->"} {
		// when
		_, err := codec.DecodeString(doc)

		// then
		assert.True(t, errors.Is(err, codec.ErrNoValue), doc)
	}
}

func TestMalformedDocument(t *testing.T) {
	// when
	_, err := codec.DecodeString("<a><i>1</i>")

	// then
	var se *oxml.SyntaxError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "Start End Mismatch: element 'a' not closed", se.Msg)
}

func TestTolerantParseConfig(t *testing.T) {
	// when
	v, err := codec.DecodeString("<a><i>1</i>", codec.WithParseConfig(oxml.DefaultConfig()))

	// then
	assert.Nil(t, err)
	assert.True(t, codec.Equal(codec.NewList(int64(1)), v))
}

func TestDecodeIgnoresMarkupNoise(t *testing.T) {
	// when
	v, err := codec.DecodeString("<?xml version=\"1.0\"?>\n<!DOCTYPE a>\n<a>\n  <!-- one -->\n  <i>1</i>\n  <s><![CDATA[<x>]]></s>\n</a>\n")

	// then
	assert.Nil(t, err)
	assert.True(t, codec.Equal(codec.NewList(int64(1), "<x>"), v))
}
