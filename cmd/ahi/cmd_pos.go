package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/charstream/charstream"
	"github.com/spf13/cobra"
)

func newPosCmd() *cobra.Command {
	var (
		index        int
		line, column int
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "pos <file>",
		Short: "Report the index, line and column of a location in a file",
		Long: `Report the index, line and column of a location in a file.

With --index the stream is advanced by that many characters. With --line and
--column it is advanced until it reaches that line and column. Without either
the end position of the file is reported.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			cs := charstream.NewReader(f)

			switch {
			case cmd.Flags().Changed("index"):
				err = seekIndex(cs, index)
			case cmd.Flags().Changed("line") || cmd.Flags().Changed("column"):
				err = seekLineColumn(cs, line, column)
			default:
				err = seekEnd(cs)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			return writePosition(cmd.OutOrStdout(), cs.CurrentPosition(), outputFormat)
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "character index to locate")
	cmd.Flags().IntVar(&line, "line", 1, "line to locate")
	cmd.Flags().IntVar(&column, "column", 1, "column to locate")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "line", "output format (json, line)")
	cmd.MarkFlagsMutuallyExclusive("index", "line")
	cmd.MarkFlagsMutuallyExclusive("index", "column")

	return cmd
}

func seekIndex(cs *charstream.CharStream, index int) error {
	if index < 0 {
		return fmt.Errorf("negative index %d", index)
	}
	n, err := cs.AdvanceN(index)
	if errors.Is(err, charstream.ErrEndOfInput) {
		return fmt.Errorf("index %d is past the end of input (%d characters)", index, n)
	}
	return err
}

func seekLineColumn(cs *charstream.CharStream, line, column int) error {
	for {
		pos := cs.CurrentPosition()
		if pos.Line == line && pos.Column == column {
			return nil
		}
		if pos.Line > line || (pos.Line == line && pos.Column > column) {
			return fmt.Errorf("no character at %d:%d", line, column)
		}
		if _, err := cs.Advance(); err != nil {
			if errors.Is(err, charstream.ErrEndOfInput) {
				return fmt.Errorf("no character at %d:%d (input ends at %s)", line, column, pos)
			}
			return err
		}
	}
}

func seekEnd(cs *charstream.CharStream) error {
	for {
		if _, err := cs.Advance(); err != nil {
			if errors.Is(err, charstream.ErrEndOfInput) {
				return nil
			}
			return err
		}
	}
}

func writePosition(w io.Writer, pos charstream.Position, outputFormat string) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		if err := enc.Encode(pos); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "line":
		fmt.Fprintf(w, "%d %s\n", pos.Index, pos)
	default:
		return fmt.Errorf("unknown format: %s (expected json or line)", outputFormat)
	}
	return nil
}
