package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HBTGmbH/oxml"
	"github.com/HBTGmbH/oxml/internal/filter"
)

func newEventsCommand(g *globals) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "events [file]",
		Short: "Print the event stream of a document",
		Long: `Print one line per event: position, kind, name and data.

Events can be selected with an expression over Kind, Name, Local, Prefix,
Data, Line, Column and Depth, for example:

  oxml events --where 'Kind == "error"' page.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.parseConfig()
			if err != nil {
				return err
			}
			f, err := filter.Compile(where)
			if err != nil {
				return err
			}
			in, _, err := input(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			out := cmd.OutOrStdout()
			return printEvents(out, oxml.NewDecoder(in, cfg), f, newPalette(colorEnabled(g.color, out)))
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "only print events matching this expression")

	return cmd
}

func printEvents(w io.Writer, dec oxml.Decoder, f *filter.Filter, p *palette) error {
	var t oxml.Token
	depth := 0
	for {
		if err := dec.NextToken(&t); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if t.Kind == oxml.TokenTypeEndElement {
			depth--
		}
		ok, err := f.Match(filter.FromToken(&t, depth))
		if err != nil {
			return err
		}
		if ok {
			if err = printEvent(w, &t, p); err != nil {
				return err
			}
		}
		if t.Kind == oxml.TokenTypeStartElement {
			depth++
		}
	}
}

func printEvent(w io.Writer, t *oxml.Token, p *palette) error {
	line := oxml.TokenTypeName(t.Kind)
	if t.Name.Local != "" {
		line += " " + t.Name.String()
	}
	if len(t.ByteData) > 0 || t.Kind == oxml.TokenTypeAttribute {
		line += " " + strconv.Quote(string(t.ByteData))
	}
	_, err := fmt.Fprintf(w, "%s %s\n",
		p.location.Sprintf("%d:%d", t.Pos.Line, t.Pos.Column),
		p.kind(t.Kind).Sprint(line))
	return err
}
