// Command rnginline flattens a multi-file RELAX NG schema into a single
// self-contained document.
//
// Usage:
//
//	rnginline [flags] <rng-src> [rng-output]
//
// rng-src is a filesystem path or URL; with --stdin the schema is read from
// standard input instead and --base-uri is required. rng-output defaults to
// "-", standard output.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jacoelho/rnginline"
)

type cliOptions struct {
	stdin          bool
	baseURI        string
	defaultBaseURI string
	noPropagateDTL bool
	verbose        bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := &cliOptions{}
	cmd := newCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}
	return 0
}

func newCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rnginline [flags] <rng-src> [rng-output]",
		Short: "Flatten a multi-file RELAX NG schema into one document",
		Long: `rnginline fetches a RELAX NG schema and recursively replaces every
include and externalRef element with the content it references, producing a
single schema document with the same validation behavior.`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inline(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.stdin, "stdin", false, "read the schema from standard input (requires --base-uri)")
	flags.StringVar(&opts.baseURI, "base-uri", "", "base URI for resolving the input schema's relative references")
	flags.StringVar(&opts.defaultBaseURI, "default-base-uri", "", "absolute URI all resolution starts from (default: the working directory)")
	flags.BoolVar(&opts.noPropagateDTL, "no-propagate-dtl", false, "skip the datatypeLibrary propagation postprocessor")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "trace resolution steps on standard error")
	return cmd
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func inline(cmd *cobra.Command, args []string, opts *cliOptions) error {
	src, output, err := arguments(args, opts.stdin)
	if err != nil {
		return err
	}
	if opts.stdin && opts.baseURI == "" {
		return &usageError{"--stdin requires --base-uri"}
	}

	inlinerOpts := rnginline.NewOptions()
	if opts.defaultBaseURI != "" {
		inlinerOpts = inlinerOpts.WithDefaultBaseURI(opts.defaultBaseURI)
	}
	if opts.noPropagateDTL {
		inlinerOpts = inlinerOpts.WithPostProcessors()
	}
	if opts.verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
			Level(zerolog.DebugLevel).With().Timestamp().Logger()
		inlinerOpts = inlinerOpts.WithLogger(log)
	}

	inliner, err := rnginline.New(inlinerOpts)
	if err != nil {
		return err
	}

	var schema *rnginline.Schema
	if opts.stdin {
		schema, err = inliner.InlineReader(cmd.InOrStdin(), opts.baseURI)
	} else if opts.baseURI != "" {
		data, readErr := os.ReadFile(src)
		if readErr != nil {
			return readErr
		}
		schema, err = inliner.InlineBytes(data, opts.baseURI)
	} else {
		schema, err = inliner.InlineURL(src)
	}
	if err != nil {
		return err
	}

	if output == "-" {
		_, err = schema.WriteTo(cmd.OutOrStdout())
		return err
	}
	return schema.WriteFile(output)
}

// arguments splits positional arguments into source and output. Output
// defaults to "-", standard output.
func arguments(args []string, stdin bool) (src, output string, err error) {
	if stdin {
		switch len(args) {
		case 0:
			return "", "-", nil
		case 1:
			return "", args[0], nil
		default:
			return "", "", &usageError{"at most one output argument with --stdin"}
		}
	}
	switch len(args) {
	case 1:
		return args[0], "-", nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", &usageError{"a schema source argument is required"}
	}
}
