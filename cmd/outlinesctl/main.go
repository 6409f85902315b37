// Command outlinesctl is a small inspection CLI for the constrained
// decoding engine, grounded on cmd/cmd.go's command-tree layout: one
// cobra.Command per subcommand, wired onto a shared root. It is ambient
// tooling for developers exercising the library by hand, not a served API
// surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmorganca/outlines-go/cmd/outlinesctl/internal/run"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "outlinesctl",
		Short: "Inspect regex/schema-constrained decoding artifacts",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	regexCmd := &cobra.Command{
		Use:   "regex <schema.json>",
		Short: "Compile a JSON Schema file to its regex form",
		Args:  cobra.ExactArgs(1),
		RunE:  run.Regex,
	}

	indexCmd := &cobra.Command{
		Use:   "index <regex>",
		Short: "Build an index against a vocabulary file and print transition-table stats",
		Args:  cobra.ExactArgs(1),
		RunE:  run.Index,
	}
	indexCmd.Flags().String("vocab", "", "path to a newline-delimited vocabulary file (required)")
	indexCmd.Flags().Uint32("eos", 0, "end-of-sequence token id")
	_ = indexCmd.MarkFlagRequired("vocab")

	guideCmd := &cobra.Command{
		Use:   "guide <regex>",
		Short: "Step a guide over whitespace-separated token ids read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  run.Guide,
	}
	guideCmd.Flags().String("vocab", "", "path to a newline-delimited vocabulary file (required)")
	guideCmd.Flags().Uint32("eos", 0, "end-of-sequence token id")
	_ = guideCmd.MarkFlagRequired("vocab")

	prettyCmd := &cobra.Command{
		Use:   "pretty <schema.json>",
		Short: "Pretty-print the DSL term a JSON Schema file lowers to",
		Args:  cobra.ExactArgs(1),
		RunE:  run.Pretty,
	}

	root.AddCommand(regexCmd, indexCmd, guideCmd, prettyCmd)
	return root
}
