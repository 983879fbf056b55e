package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/HBTGmbH/oxml"
)

// colorEnabled resolves the --color mode for the given writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette colours output by token kind.
type palette struct {
	kinds    map[byte]*color.Color
	location *color.Color
	added    *color.Color
	removed  *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		kinds: map[byte]*color.Color{
			oxml.TokenTypeStartElement: color.New(color.FgCyan, color.Bold),
			oxml.TokenTypeEndElement:   color.New(color.FgCyan),
			oxml.TokenTypeAttribute:    color.New(color.FgYellow),
			oxml.TokenTypeText:         color.New(color.Reset),
			oxml.TokenTypeCData:        color.New(color.FgGreen),
			oxml.TokenTypeComment:      color.New(color.FgHiBlack),
			oxml.TokenTypeProcInst:     color.New(color.FgMagenta),
			oxml.TokenTypeEndProcInst:  color.New(color.FgMagenta),
			oxml.TokenTypeDoctype:      color.New(color.FgBlue),
			oxml.TokenTypeError:        color.New(color.FgRed, color.Bold),
			oxml.TokenTypeAbort:        color.New(color.FgRed),
		},
		location: color.New(color.FgHiBlack),
		added:    color.New(color.FgGreen),
		removed:  color.New(color.FgRed),
	}
	all := []*color.Color{p.location, p.added, p.removed}
	for _, c := range p.kinds {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) kind(k byte) *color.Color {
	if c, ok := p.kinds[k]; ok {
		return c
	}
	return p.location
}
