package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/HBTGmbH/oxml"
)

func newFmtCommand(g *globals) *cobra.Command {
	var (
		indent string
		minify bool
		diff   bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a document",
		Long: `Parse a document and write it back, optionally indented.

--minify shortens namespace prefixes and drops redundant declarations.
--diff prints the changes instead of the result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.parseConfig()
			if err != nil {
				return err
			}
			in, _, err := input(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			src, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var middlewares []oxml.Middleware
			if minify {
				nm := oxml.NewNamespaceModifier()
				nm.Minify = true
				middlewares = append(middlewares, nm)
			}
			formatted, err := format(src, cfg, indent, middlewares...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if diff {
				return printDiff(out, string(src), formatted, newPalette(colorEnabled(g.color, out)))
			}
			_, err = io.WriteString(out, formatted)
			return err
		},
	}

	cmd.Flags().StringVar(&indent, "indent", "", "indentation for nested elements")
	cmd.Flags().BoolVar(&minify, "minify", false, "minify namespace prefixes")
	cmd.Flags().BoolVar(&diff, "diff", false, "print a line diff against the input")

	return cmd
}

// format runs src through a Decoder and an Encoder. Errors recovered
// from are dropped, the output is well-formed.
func format(src []byte, cfg oxml.Config, indent string, middlewares ...oxml.Middleware) (string, error) {
	var buf bytes.Buffer
	dec := oxml.NewDecoder(bytes.NewReader(src), cfg)
	enc := oxml.NewEncoder(&buf, middlewares...)
	enc.Indent = indent
	enc.Raw = !cfg.ConvertEntities
	var t oxml.Token
	for {
		err := dec.NextToken(&t)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if err = enc.EncodeToken(&t); err != nil {
			return "", err
		}
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	if indent != "" {
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func printDiff(w io.Writer, from, to string, p *palette) error {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		prefix, c := " ", p.location
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, c = "+", p.added
		case diffmatchpatch.DiffDelete:
			prefix, c = "-", p.removed
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if _, err := io.WriteString(w, c.Sprint(prefix+line)); err != nil {
				return err
			}
		}
	}
	return nil
}
