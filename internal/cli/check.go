package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HBTGmbH/oxml"
	"github.com/HBTGmbH/oxml/internal/logging"
)

func newCheckCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report violations in documents",
		Long: `Parse every document and print each violation as file:line:column.

The command fails when at least one violation was found. In strict mode
only the first violation of each document is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.parseConfig()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}
			out := cmd.OutOrStdout()
			p := newPalette(colorEnabled(g.color, out))
			total := 0
			for _, arg := range args {
				n, err := checkFile(cmd, arg, cfg, p)
				if err != nil {
					return err
				}
				total += n
			}
			logging.Default().Debug("check finished", logging.FieldErrors, total)
			if total > 0 {
				return ErrIssuesFound
			}
			return nil
		},
	}

	return cmd
}

func checkFile(cmd *cobra.Command, arg string, cfg oxml.Config, p *palette) (int, error) {
	in, name, err := input(cmd, []string{arg})
	if err != nil {
		return 0, err
	}
	defer in.Close()
	doc, err := oxml.BuildTree(in, cfg)
	diags := doc.Errors
	var se *oxml.SyntaxError
	if errors.As(err, &se) {
		diags = append(diags, oxml.Diagnostic{Msg: se.Msg, Pos: se.Pos})
	} else if err != nil {
		return 0, err
	}
	out := cmd.OutOrStdout()
	for _, d := range diags {
		loc := p.location.Sprintf("%s:%d:%d:", name, d.Pos.Line, d.Pos.Column)
		if _, err = fmt.Fprintf(out, "%s %s\n", loc, p.kind(oxml.TokenTypeError).Sprint(d.Msg)); err != nil {
			return 0, err
		}
	}
	return len(diags), nil
}
