package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/arnodel/jsonfeed/internal/envconfig"
	"github.com/arnodel/jsonfeed/internal/format"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type options struct {
	charset        string
	contentType    string
	chunkSize      int
	prefetch       int
	prefetchFactor float64
	buffered       bool
	repair         bool
	schemaFile     string
	query          string
	output         string
	indent         int
	compact        bool
	color          string
	jobs           int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "jfeed [flags] [file...]",
		Short: "Decode JSON documents chunk by chunk",
		Long: `jfeed decodes each input as one JSON document, feeding it to a
non-blocking decoder in chunks, and prints the result.

Input in a charset other than UTF-8 is converted on the fly; use --charset
or --content-type to name it.`,
		Example: `  # Pretty-print a Shift_JIS document
  jfeed --charset Shift_JIS data.json

  # Extract fields with a jq query and print them as YAML
  jfeed --query '.items[] | {name, price}' --output yaml data.json

  # Check documents against a JSON Schema, four at a time
  jfeed --schema schema.json --jobs 4 *.json > /dev/null`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("prefetch") {
				opts.prefetch = 0
			}
			if !cmd.Flags().Changed("prefetch-factor") {
				opts.prefetchFactor = -1
			}
			if len(args) == 0 {
				args = []string{"-"}
			}
			out := cmd.OutOrStdout()
			colorizer, err := chooseColorizer(opts.color, out)
			if err != nil {
				return err
			}
			if colorizer != nil && out == os.Stdout {
				out = colorable.NewColorableStdout()
			}
			return run(cmd.Context(), opts, args, cmd.InOrStdin(), out, colorizer)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.charset, "charset", "UTF-8", "charset of the input")
	f.StringVar(&opts.contentType, "content-type", "", "media type of the input, e.g. 'application/json; charset=latin1' (overrides --charset)")
	f.IntVar(&opts.chunkSize, "chunk-size", int(envconfig.ChunkSize()), "size of the chunks the input is read in")
	f.IntVar(&opts.prefetch, "prefetch", int(envconfig.Prefetch()), "number of chunks requested at a time")
	f.Float64Var(&opts.prefetchFactor, "prefetch-factor", envconfig.PrefetchFactor(), "fraction of the prefetch window at which more chunks are requested")
	f.BoolVar(&opts.buffered, "buffered", false, "read the whole input before decoding it")
	f.BoolVar(&opts.repair, "repair", false, "try to repair input which is not valid JSON")
	f.StringVar(&opts.schemaFile, "schema", "", "validate each document against the JSON Schema in `FILE`")
	f.StringVarP(&opts.query, "query", "q", "", "jq query applied to each document")
	f.StringVarP(&opts.output, "output", "o", "json", "output format: json, yaml, msgpack")
	f.IntVar(&opts.indent, "indent", 2, "JSON indentation")
	f.BoolVarP(&opts.compact, "compact", "c", false, "output JSON on a single line")
	f.StringVar(&opts.color, "color", "auto", "colorize JSON output: auto, always, never")
	f.IntVarP(&opts.jobs, "jobs", "j", 4, "number of inputs decoded concurrently")

	cmd.AddCommand(newEnvCmd())
	return cmd
}

func chooseColorizer(mode string, out io.Writer) (*format.Colorizer, error) {
	switch mode {
	case "always":
		return &format.DefaultColorizer, nil
	case "never":
		return nil, nil
	case "auto":
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return &format.DefaultColorizer, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid --color value: %q (use auto, always or never)", mode)
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the environment variables jfeed reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := envconfig.AsMap()
			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			slices.Sort(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				v := vars[name]
				fmt.Fprintf(out, "%s=%v\n    %s\n", v.Name, v.Value, strings.TrimSpace(v.Description))
			}
			return nil
		},
	}
}
