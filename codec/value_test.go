package codec

import (
	"math"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/HBTGmbH/oxml"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		value Value
		want  Kind
	}{
		{nil, KindNil},
		{(*List)(nil), KindNil},
		{(*big.Int)(nil), KindNil},
		{true, KindBool},
		{int64(1), KindInt},
		{big.NewInt(1), KindBigInt},
		{1.5, KindFloat},
		{"s", KindString},
		{Symbol("s"), KindSymbol},
		{time.Time{}, KindTime},
		{Date{}, KindDate},
		{&Range{}, KindRange},
		{&Pattern{}, KindPattern},
		{&List{}, KindList},
		{&Map{}, KindMap},
		{&Record{}, KindRecord},
		{1, KindUnknown},
		{[]byte("x"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.value), "%T", tt.value)
	}
	assert.Equal(t, "record", KindRecord.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, "auto_define", EffortAutoDefine.String())
}

func TestSprint(t *testing.T) {
	// given
	reg := NewRegistry()
	p := NewRecord(reg.Define("Point"))
	p.Set("x", int64(1))
	p.Set("y", nil)
	m := &Map{}
	m.Set(Symbol("a"), &Range{Begin: int64(1), End: int64(5), ExcludeEnd: true})
	m.Set("b", &Range{Begin: 0.5, End: 2.0})
	l := NewList(int64(1), "x", Symbol("y"), p, m, Date{Year: 2024, Month: time.February, Day: 29}, &Pattern{Source: "a+", Flags: "i"})
	l.Items = append(l.Items, l)

	// when
	got := Sprint(l)

	// then
	want := `[1, "x", :y, #<Point x=1 y=nil>, {:a => 1...5, "b" => 0.5..2}, 2024-02-29, /a+/i, ^list]`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSprintSharedIsNotCycle(t *testing.T) {
	// given
	shared := NewList(true)

	// when
	got := Sprint(NewList(shared, shared))

	// then
	assert.Equal(t, "[[true], [true]]", got)
}

func TestEqual(t *testing.T) {
	// given
	regA, regB := NewRegistry(), NewRegistry()
	ra := NewRecord(regA.Define("Shop::Item"))
	rb := NewRecord(regB.Define("Shop.Item"))
	other := NewRecord(regB.Define("Other"))
	utc := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cet := utc.In(time.FixedZone("CET", 3600))

	// then
	assert.True(t, Equal(math.NaN(), math.NaN()))
	assert.True(t, Equal(utc, cet))
	assert.True(t, Equal(big.NewInt(7), new(big.Int).SetInt64(7)))
	assert.True(t, Equal(ra, rb))
	assert.False(t, Equal(ra, other))
	assert.False(t, Equal(int64(1), 1.0))
	assert.False(t, Equal(Symbol("a"), "a"))
	assert.False(t, Equal(1, 1))
	assert.False(t, Equal(NewList(int64(1)), NewList(int64(1), int64(2))))

	m1, m2 := &Map{}, &Map{}
	m1.Set("a", int64(1))
	m1.Set("b", int64(2))
	m2.Set("b", int64(2))
	m2.Set("a", int64(1))
	assert.False(t, Equal(m1, m2))
}

func TestEqualCyclic(t *testing.T) {
	// given
	a, b := NewList(int64(1)), NewList(int64(1))
	a.Items = append(a.Items, a)
	b.Items = append(b.Items, b)
	c := NewList(int64(2))
	c.Items = append(c.Items, c)

	// then
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestMapSetReplaces(t *testing.T) {
	// given
	m := &Map{}

	// when
	m.Set(int64(1), "a")
	m.Set(Symbol("1"), "b")
	m.Set(int64(1), "c")

	// then
	assert.Equal(t, 2, m.Len())
	v, ok := m.Get(int64(1))
	assert.True(t, ok)
	assert.Equal(t, "c", v)
	_, ok = m.Get("1")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	// when
	d, err := ParseDate("2024-02-29")
	_, err2 := ParseDate("2023-02-29")

	// then
	assert.Nil(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())
	assert.NotNil(t, err2)
}

func TestRegistry(t *testing.T) {
	// given
	reg := NewRegistry()

	// when
	c := reg.Define("a::b", "x")

	// then
	got, ok := reg.Lookup("a.b")
	assert.True(t, ok)
	assert.Same(t, c, got)
	_, ok = reg.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestAutoDefineKeepsDefinedClasses(t *testing.T) {
	// given
	reg := NewRegistry()
	shop := reg.Define("Shop", "owner")

	// when
	item := reg.autoDefine("Shop.Item", true)
	again := reg.autoDefine("Shop::Item", false)
	reg.addField(item, "name")
	reg.addField(item, "name")

	// then
	assert.Same(t, shop, item.Parent)
	assert.False(t, shop.Placeholder)
	assert.Same(t, item, again)
	assert.Equal(t, "Shop::Item", item.Name)
	assert.False(t, item.Struct)
	assert.Equal(t, []string{"name"}, item.Fields)
	assert.Equal(t, []string{"owner"}, shop.Fields)
}

func TestRegistryConcurrentUse(t *testing.T) {
	// given
	reg := NewRegistry()
	var wg sync.WaitGroup

	// when
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c := reg.autoDefine("A::B::C", false)
				reg.addField(c, "f")
				reg.Lookup("A::B")
			}
		}()
	}
	wg.Wait()

	// then
	assert.Equal(t, 3, reg.Len())
	c, _ := reg.Lookup("A.B.C")
	assert.Equal(t, []string{"f"}, c.Fields)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(oxml.Position{}, ErrCycle, "list"), "codec: cycle detected: list"},
		{newError(oxml.Position{Line: 2, Column: 7}, ErrUnknownClass, "%q", "X"), "codec: unknown class: \"X\" at line 2, column 7"},
		{newError(oxml.Position{Line: 1, Column: 1}, ErrNoValue, ""), "codec: document contains no value at line 1, column 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
		assert.ErrorIs(t, tt.err, tt.err.Err)
	}
}
