// Package cli provides the Cobra command structure for oxml.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/HBTGmbH/oxml"
	"github.com/HBTGmbH/oxml/codec"
	"github.com/HBTGmbH/oxml/internal/configfile"
	"github.com/HBTGmbH/oxml/internal/logging"
)

// ErrIssuesFound signals that check reported violations. It only
// determines the exit code.
var ErrIssuesFound = errors.New("issues found")

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globals are the persistent flags and the loaded configuration file.
type globals struct {
	debug      bool
	configPath string
	color      string
	recovery   string

	file *configfile.File
}

// parseConfig returns the parser configuration with the --recovery
// flag applied over the configuration file.
func (g *globals) parseConfig() (oxml.Config, error) {
	f := &configfile.File{}
	if g.file != nil {
		copied := *g.file
		f = &copied
	}
	if g.recovery != "" {
		f.Parse.Recovery = g.recovery
	}
	cfg, err := f.ParseConfig()
	if err != nil {
		return cfg, err
	}
	if g.debug {
		cfg.Logger = logging.Default()
	}
	return cfg, nil
}

func (g *globals) codecOptions() ([]codec.Option, error) {
	f := g.file
	if f == nil {
		f = &configfile.File{}
	}
	opts, err := f.CodecOptions()
	if err != nil {
		return nil, err
	}
	if g.debug {
		opts = append(opts, codec.WithLogger(logging.Default()))
	}
	return opts, nil
}

// NewRootCommand creates the root oxml command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "oxml",
		Short: "A fault tolerant XML and HTML tokenizer",
		Long: `oxml reads XML and HTML documents as a stream of events.

It can recover from malformed input in tolerant mode, apply HTML rules in
smart mode, check documents for violations, reformat them and decode the
typed value vocabulary of the codec package.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if g.configPath != "" {
				f, err := configfile.Load(g.configPath)
				if err != nil {
					return err
				}
				g.file = f
				if f.LogLevel != "" {
					logging.SetLevel(f.LogLevel)
				}
			}
			if g.debug {
				logging.SetLevel("debug")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&g.color, "color", "auto",
		"colorize output: auto, always, never")
	rootCmd.PersistentFlags().StringVar(&g.recovery, "recovery", "",
		"recovery mode: strict, tolerant, smart")

	rootCmd.AddCommand(newEventsCommand(g))
	rootCmd.AddCommand(newCheckCommand(g))
	rootCmd.AddCommand(newDecodeCommand(g))
	rootCmd.AddCommand(newFmtCommand(g))
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

// input opens the named file, or stdin for "-" and no argument.
func input(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "<stdin>", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, args[0], fmt.Errorf("open input: %w", err)
	}
	return f, args[0], nil
}
