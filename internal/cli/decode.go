package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HBTGmbH/oxml/codec"
)

func newDecodeCommand(g *globals) *cobra.Command {
	var (
		effort   string
		reencode bool
	)

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a typed value document",
		Long: `Decode a document of the codec vocabulary and print the value.

With --reencode the value is written back in the vocabulary instead,
which normalizes ids and back-references.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.codecOptions()
			if err != nil {
				return err
			}
			switch effort {
			case "":
			case "strict":
				opts = append(opts, codec.WithEffort(codec.EffortStrict))
			case "tolerant":
				opts = append(opts, codec.WithEffort(codec.EffortTolerant))
			case "auto_define":
				opts = append(opts, codec.WithEffort(codec.EffortAutoDefine))
			default:
				return fmt.Errorf("invalid effort %q", effort)
			}
			in, _, err := input(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			v, err := codec.Decode(in, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if reencode {
				if err = codec.Encode(out, v, opts...); err != nil {
					return err
				}
				_, err = fmt.Fprintln(out)
				return err
			}
			_, err = fmt.Fprintln(out, codec.Sprint(v))
			return err
		},
	}

	cmd.Flags().StringVar(&effort, "effort", "", "effort policy: strict, tolerant, auto_define")
	cmd.Flags().BoolVar(&reencode, "reencode", false, "write the value back as XML")

	return cmd
}
