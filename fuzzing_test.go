package oxml_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/HBTGmbH/oxml"
	"github.com/stretchr/testify/assert"
)

var startNameRunes = []rune("_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var restNameRunes = []rune("0123456789-_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var stringRunes = []rune("/:+*#.!§$%&/[]=?`´'0123456789-_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var textRunes = []rune("\"/:+*#'.!§$%&[]=?`´'0123456789-_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var everythingRunes = []rune("<> \t\n\r\"/:+*#'.!§$%&[]=?`´'0123456789-_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randGarbage(r *rand.Rand) string {
	c := r.Intn(8000)
	b := make([]rune, c)
	for i := 0; i < c; i++ {
		b[i] = everythingRunes[r.Intn(len(everythingRunes))]
	}
	return string(b)
}

func randName(r *rand.Rand) string {
	c := 1 + r.Intn(10)
	b := make([]rune, c)
	b[0] = startNameRunes[r.Intn(len(startNameRunes))]
	for i := 1; i < c; i++ {
		b[i] = restNameRunes[r.Intn(len(restNameRunes))]
	}
	return string(b)
}

func randText(r *rand.Rand) string {
	c := 1 + r.Intn(255)
	b := make([]rune, c)
	for i := 0; i < c; i++ {
		b[i] = textRunes[r.Intn(len(textRunes))]
	}
	return string(b)
}

func randString(r *rand.Rand) string {
	c := r.Intn(30)
	b := make([]rune, c)
	for i := 0; i < c; i++ {
		b[i] = stringRunes[r.Intn(len(stringRunes))]
	}
	return string(b)
}

func buildElement(i int, b *bytes.Buffer, r *rand.Rand, lastOpen bool) bool {
	switch i {
	case 0:
		if lastOpen {
			_, _ = b.WriteString(">")
		}
		name := randName(r)
		_, _ = b.WriteString("<")
		_, _ = b.WriteString(name)
		numAttrs := r.Intn(10)
		for j := 0; j < numAttrs; j++ {
			_, _ = b.WriteString(" ")
			buildAttribute(b, r)
		}
		ended := buildElement(r.Intn(2), b, r, true)
		if !ended {
			_, _ = b.WriteString("</")
			_, _ = b.WriteString(name)
			_, _ = b.WriteString(">")
		}
		return false
	case 1:
		if lastOpen {
			_, _ = b.WriteString(">")
		}
		_, _ = b.WriteString(randText(r))
		return false
	default:
		_, _ = b.WriteString("/>")
		return true
	}
}

func buildAttribute(b *bytes.Buffer, r *rand.Rand) {
	name := randName(r)
	value := randString(r)
	randName(r)
	_, _ = b.WriteString(name)
	_, _ = b.WriteString("=\"")
	_, _ = b.WriteString(value)
	_, _ = b.WriteString("\"")
}

// fuzzConfig passes text through untouched so that the encoder output
// can be compared byte by byte with the input.
func fuzzConfig() oxml.Config {
	cfg := oxml.DefaultConfig()
	cfg.ConvertEntities = false
	return cfg
}

func TestFuzz(t *testing.T) {
	// given
	s1 := rand.NewSource(123456789)
	r := rand.New(s1)
	n := 20000

	for i := 0; i < n; i++ {
		b := &bytes.Buffer{}
		buildElement(0, b, r, false)
		xml := b.String()
		reader := bytes.NewReader(b.Bytes())
		dec := oxml.NewDecoder(reader, fuzzConfig())
		w := &bytes.Buffer{}
		modifier := oxml.NewNamespaceModifier()
		enc := oxml.NewEncoder(w, modifier)
		enc.Raw = true
		var tk oxml.Token

		// when
		for {
			err := dec.NextToken(&tk)
			if err == io.EOF {
				break
			}
			assert.Nil(t, err)
			assert.NotEqual(t, oxml.TokenTypeError, int(tk.Kind), string(tk.ByteData))
			modifier.NamespaceOf(tk.Name)
			err = enc.EncodeToken(&tk)
			assert.Nil(t, err)
		}
		assert.Nil(t, enc.Flush())

		// then
		assert.Equal(t, xml, w.String())
	}
}

func TestFuzzOneByteReads(t *testing.T) {
	// given
	s1 := rand.NewSource(987654321)
	r := rand.New(s1)
	n := 2000

	for i := 0; i < n; i++ {
		b := &bytes.Buffer{}
		buildElement(0, b, r, false)

		// when
		whole := collectKinds(t, oxml.NewDecoder(bytes.NewReader(b.Bytes()), fuzzConfig()))
		bytewise := collectKinds(t, oxml.NewDecoder(iotest.OneByteReader(bytes.NewReader(b.Bytes())), fuzzConfig()))

		// then
		assert.Equal(t, whole, bytewise)
	}
}

func collectKinds(t *testing.T, dec oxml.Decoder) []string {
	var (
		tk  oxml.Token
		res []string
	)
	for {
		err := dec.NextToken(&tk)
		if err == io.EOF {
			return res
		}
		assert.Nil(t, err)
		if err != nil {
			return res
		}
		res = append(res, oxml.TokenTypeName(tk.Kind)+" "+tk.Name.String()+" "+string(tk.ByteData))
	}
}

func TestFuzzNoPanic(t *testing.T) {
	// given
	s1 := rand.NewSource(123456789)
	r := rand.New(s1)
	n := 20000

	for _, recovery := range []oxml.RecoveryMode{oxml.RecoverTolerant, oxml.RecoverSmart, oxml.RecoverStrict} {
		for i := 0; i < n/3; i++ {
			xml := randGarbage(r)
			reader := bytes.NewReader([]byte(xml))
			cfg := oxml.DefaultConfig()
			cfg.Recovery = recovery
			dec := oxml.NewDecoder(reader, cfg)
			w := &bytes.Buffer{}
			modifier := oxml.NewNamespaceModifier()
			enc := oxml.NewEncoder(w, modifier)
			var tk oxml.Token

			// when
			for {
				err := dec.NextToken(&tk)
				if err != nil {
					break
				}
				modifier.NamespaceOf(tk.Name)
				err = enc.EncodeToken(&tk)
				if err != nil {
					break
				}
			}
			assert.Nil(t, enc.Flush())
		}
	}
}
