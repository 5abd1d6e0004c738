package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/dhamidi/charstream/ebnflex"
	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

func newEbnfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ebnf",
		Short:         "EBNF grammar tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newEbnfCheckCmd())
	cmd.AddCommand(newEbnfLexCmd())

	return cmd
}

func newEbnfCheckCmd() *cobra.Command {
	var startProduction string

	cmd := &cobra.Command{
		Use:           "check <file>",
		Short:         "Parse and verify an EBNF grammar file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			f, err := os.Open(filename)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			return runCheck(cmd.ErrOrStderr(), filename, f, startProduction)
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production for verification (if empty, only checks syntax)")

	return cmd
}

// runCheck parses a grammar and, when start is set, verifies that every
// production is reachable from it. Problems are written to w one per line.
func runCheck(w io.Writer, filename string, r io.Reader, start string) error {
	grammar, err := ebnf.Parse(filename, r)
	if err != nil {
		printErrors(w, err)
		return err
	}

	if start == "" {
		return nil
	}

	if err := ebnf.Verify(grammar, start); err != nil {
		printErrors(w, err)
		return err
	}

	return nil
}

// printErrors prints each entry of an error list, or err itself.
func printErrors(w io.Writer, err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, v.Index(i).Interface())
		}
		return
	}
	fmt.Fprintln(w, err)
}

func newEbnfLexCmd() *cobra.Command {
	var skip []string

	cmd := &cobra.Command{
		Use:           "lex <grammar> <file>",
		Short:         "Tokenize a file with the token productions of an EBNF grammar",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			grammar, err := ebnflex.LoadGrammar(args[0])
			if err != nil {
				printErrors(cmd.ErrOrStderr(), err)
				return err
			}

			input, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			return runLex(cmd.OutOrStdout(), ebnflex.NewLexer(grammar, input, args[1]), skip)
		},
	}

	cmd.Flags().StringSliceVar(&skip, "skip", nil, "token kinds to leave out of the output (comma separated)")

	return cmd
}

func runLex(w io.Writer, lexer *ebnflex.Lexer, skip []string) error {
	skipped := make(map[string]bool, len(skip))
	for _, kind := range skip {
		skipped[strings.TrimSpace(kind)] = true
	}

	tokens, err := lexer.Tokenize()
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}

	failures := 0
	for _, tok := range tokens {
		if tok.Kind == ebnflex.KindError {
			failures++
		}
		if skipped[tok.Kind] {
			continue
		}
		fmt.Fprintln(w, tok)
	}

	if failures > 0 {
		return fmt.Errorf("%d unexpected characters", failures)
	}
	return nil
}
