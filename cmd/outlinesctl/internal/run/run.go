// Package run implements the body of each outlinesctl subcommand, kept out
// of main so the cobra wiring in main.go stays a flat command tree.
package run

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmorganca/outlines-go/dsl"
	"github.com/jmorganca/outlines-go/guide"
	"github.com/jmorganca/outlines-go/index"
	"github.com/jmorganca/outlines-go/schema"
	"github.com/jmorganca/outlines-go/vocab"
)

// Regex compiles the JSON Schema file named by args[0] and prints the
// resulting regex.
func Regex(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	pattern, err := schema.RegexFromSchema(src)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pattern)
	return nil
}

// Pretty compiles the JSON Schema file named by args[0] to a dsl.Term via
// dsl.JSON and prints its ASCII tree form.
func Pretty(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	term := dsl.JSON(src)
	fmt.Fprintln(cmd.OutOrStdout(), dsl.PrettyPrint(term))
	return nil
}

// Index builds an Index for the regex named by args[0] against the
// vocabulary file named by the --vocab flag, and prints a small summary.
func Index(cmd *cobra.Command, args []string) error {
	vocabPath, _ := cmd.Flags().GetString("vocab")
	eos, _ := cmd.Flags().GetUint32("eos")

	v, err := loadVocab(vocabPath, eos)
	if err != nil {
		return err
	}
	idx, err := index.Build(args[0], v)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "states: %d\nfinal states: %v\n", idx.NumStates(), idx.FinalStates())
	return nil
}

// Guide builds an Index for the regex named by args[0], then steps a Guide
// over whitespace-separated token ids read from stdin, printing whether
// each is accepted and the resulting status.
func Guide(cmd *cobra.Command, args []string) error {
	vocabPath, _ := cmd.Flags().GetString("vocab")
	eos, _ := cmd.Flags().GetUint32("eos")

	v, err := loadVocab(vocabPath, eos)
	if err != nil {
		return err
	}
	idx, err := index.Build(args[0], v)
	if err != nil {
		return err
	}
	g := guide.New(idx)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return fmt.Errorf("outlinesctl: invalid token id %q: %w", line, err)
		}
		if err := g.Advance(uint32(id), eos); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: rejected (%v)\n", id, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d: accepted, status=%s\n", id, g.Status())
	}
	return scanner.Err()
}

// loadVocab reads a newline-delimited vocabulary file, one token's display
// bytes per line, assigning sequential ids starting at 0 (skipping eos).
func loadVocab(path string, eos uint32) (*vocab.Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tokens := map[string][]uint32{}
	scanner := bufio.NewScanner(f)
	var id uint32
	for scanner.Scan() {
		if id == eos {
			id++
		}
		line := scanner.Text()
		tokens[line] = append(tokens[line], id)
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vocab.New(eos, tokens)
}

// marshalIndented renders an arbitrary value as indented JSON for a
// readable debug dump. No subcommand calls it.
func marshalIndented(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	return string(b), err
}
