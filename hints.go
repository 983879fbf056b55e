package oxml

import (
	"strings"
	"sync"

	"golang.org/x/net/html/atom"
)

// Overlay changes which events an element produces under RecoverSmart.
type Overlay byte

const (
	// OverlayActive reports the element normally.
	OverlayActive Overlay = iota
	// OverlayInactive suppresses the start, attribute and end events of the
	// element itself. Its content is still reported.
	OverlayInactive
	// OverlayBlock suppresses the element and everything inside it.
	OverlayBlock
	// OverlayAbort ends the parse with a TokenTypeAbort token when the
	// element starts.
	OverlayAbort
)

// Hint describes the structural rules of one element type.
type Hint struct {
	Name string
	// Void elements have no content and no end tag.
	Void bool
	// Nest allows the element directly inside an element of the same type.
	Nest bool
	// RawText elements contain text up to the literal end tag.
	RawText bool
	// Parents lists the allowed parent elements. Empty means any.
	Parents []string
	Overlay Overlay
}

func (h *Hint) allowsParent(name string) bool {
	if len(h.Parents) == 0 {
		return true
	}
	for _, p := range h.Parents {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// Hints is an immutable table of element rules keyed by lower-cased name.
// A Hints value is safe for concurrent use.
type Hints struct {
	vocabulary string
	byAtom     map[atom.Atom]*Hint
	byName     map[string]*Hint
}

// NewHints builds a table for the named vocabulary. The vocabulary
// name appears in error messages.
func NewHints(vocabulary string, hints ...Hint) *Hints {
	h := &Hints{
		vocabulary: vocabulary,
		byAtom:     make(map[atom.Atom]*Hint, len(hints)),
		byName:     make(map[string]*Hint),
	}
	for i := range hints {
		hint := hints[i]
		h.put(&hint)
	}
	return h
}

func (thiz *Hints) put(h *Hint) {
	h.Name = strings.ToLower(h.Name)
	if a := atom.Lookup([]byte(h.Name)); a != 0 {
		thiz.byAtom[a] = h
		return
	}
	thiz.byName[h.Name] = h
}

func (thiz *Hints) clone() *Hints {
	c := &Hints{
		vocabulary: thiz.vocabulary,
		byAtom:     make(map[atom.Atom]*Hint, len(thiz.byAtom)),
		byName:     make(map[string]*Hint, len(thiz.byName)),
	}
	for k, v := range thiz.byAtom {
		c.byAtom[k] = v
	}
	for k, v := range thiz.byName {
		c.byName[k] = v
	}
	return c
}

// Vocabulary returns the vocabulary name, e.g. "HTML".
func (thiz *Hints) Vocabulary() string {
	return thiz.vocabulary
}

// Len returns the number of entries.
func (thiz *Hints) Len() int {
	return len(thiz.byAtom) + len(thiz.byName)
}

// Lookup finds the hint for name, ignoring case.
func (thiz *Hints) Lookup(name string) (Hint, bool) {
	if h := thiz.lookup(name); h != nil {
		return *h, true
	}
	return Hint{}, false
}

func (thiz *Hints) lookup(name string) *Hint {
	var buf [32]byte
	var lower []byte
	if len(name) <= len(buf) {
		lower = buf[:len(name)]
		for i := 0; i < len(name); i++ {
			c := name[i]
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			lower[i] = c
		}
	} else {
		lower = []byte(strings.ToLower(name))
	}
	if a := atom.Lookup(lower); a != 0 {
		if h, ok := thiz.byAtom[a]; ok {
			return h
		}
	}
	return thiz.byName[string(lower)]
}

// With returns a new table with the given hints added or replaced.
func (thiz *Hints) With(hints ...Hint) *Hints {
	c := thiz.clone()
	for i := range hints {
		hint := hints[i]
		c.put(&hint)
	}
	return c
}

// WithOverlay returns a new table in which the named elements carry the
// given overlay. Names not yet in the table are added.
func (thiz *Hints) WithOverlay(overlay map[string]Overlay) *Hints {
	c := thiz.clone()
	for name, o := range overlay {
		var hint Hint
		if h := thiz.lookup(name); h != nil {
			hint = *h
		} else {
			hint.Name = name
		}
		hint.Overlay = o
		c.put(&hint)
	}
	return c
}

var (
	htmlHints     *Hints
	htmlHintsOnce sync.Once
)

// HTMLHints returns the shared HTML table used by RecoverSmart.
func HTMLHints() *Hints {
	htmlHintsOnce.Do(func() {
		htmlHints = NewHints("HTML", htmlHintList()...)
	})
	return htmlHints
}

func htmlHintList() []Hint {
	var (
		audioVideo = []string{"audio", "video"}
		colgroup   = []string{"colgroup"}
		details    = []string{"details"}
		dl         = []string{"dl"}
		fieldset   = []string{"fieldset"}
		figure     = []string{"figure"}
		frameset   = []string{"frameset"}
		head       = []string{"head"}
		html       = []string{"html"}
		lists      = []string{"ol", "ul", "menu"}
		options    = []string{"optgroup", "select", "datalist"}
		ruby       = []string{"ruby"}
		table      = []string{"table"}
		rows       = []string{"table", "tbody", "thead", "tfoot"}
		tr         = []string{"tr"}
	)
	plain := []string{
		"a", "abbr", "acronym", "address", "applet", "article", "aside", "audio",
		"b", "bdi", "big", "blockquote", "button", "canvas", "center", "cite",
		"code", "colgroup", "datalist", "del", "details", "dfn", "dialog", "dir",
		"dl", "em", "fieldset", "figure", "footer", "form", "frameset", "h1",
		"h2", "h3", "h4", "h5", "h6", "header", "hgroup", "html", "i", "iframe",
		"ins", "kbd", "label", "main", "map", "mark", "menu", "meter", "nav",
		"noframes", "noscript", "object", "optgroup", "output", "p", "picture",
		"pre", "progress", "q", "ruby", "s", "samp", "select", "small", "strike",
		"strong", "sub", "sup", "table", "template", "textarea", "time", "tt",
		"u", "ul", "var", "video",
	}
	hints := make([]Hint, 0, len(plain)+48)
	for _, name := range plain {
		hints = append(hints, Hint{Name: name})
	}
	for _, name := range []string{"bdo", "div", "font", "ol", "section", "span"} {
		hints = append(hints, Hint{Name: name, Nest: true})
	}
	for _, name := range []string{"br", "command", "embed", "hr", "img", "input", "keygen", "param", "wbr"} {
		hints = append(hints, Hint{Name: name, Void: true})
	}
	return append(hints,
		Hint{Name: "area", Void: true, Parents: []string{"map"}},
		Hint{Name: "base", Void: true, Parents: head},
		Hint{Name: "basefont", Void: true, Parents: head},
		Hint{Name: "link", Void: true, Parents: head},
		Hint{Name: "meta", Void: true, Parents: head},
		Hint{Name: "col", Void: true, Parents: colgroup},
		Hint{Name: "frame", Void: true, Parents: frameset},
		Hint{Name: "source", Void: true, Parents: audioVideo},
		Hint{Name: "track", Void: true, Parents: audioVideo},
		Hint{Name: "body", Parents: html},
		Hint{Name: "head", Parents: html},
		Hint{Name: "title", Parents: head},
		Hint{Name: "caption", Parents: table},
		Hint{Name: "tbody", Parents: table},
		Hint{Name: "thead", Parents: table},
		Hint{Name: "tfoot", Parents: table},
		Hint{Name: "tr", Parents: rows},
		Hint{Name: "td", Parents: tr},
		Hint{Name: "th", Parents: tr},
		Hint{Name: "dd", Parents: dl},
		Hint{Name: "dt", Nest: true, Parents: dl},
		Hint{Name: "li", Parents: lists},
		Hint{Name: "option", Parents: options},
		Hint{Name: "legend", Parents: fieldset},
		Hint{Name: "figcaption", Parents: figure},
		Hint{Name: "summary", Parents: details},
		Hint{Name: "rp", Parents: ruby},
		Hint{Name: "rt", Parents: ruby},
		Hint{Name: "script", RawText: true},
		Hint{Name: "style", RawText: true},
	)
}
