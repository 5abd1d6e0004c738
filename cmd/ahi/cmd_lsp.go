package main

import (
	"github.com/dhamidi/charstream/ebnflex"
	"github.com/dhamidi/charstream/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	var grammarFile string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server reporting lexical errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			grammar, err := ebnflex.LoadGrammar(grammarFile)
			if err != nil {
				return err
			}
			server := lsp.NewServer(grammar, "0.1.0")
			return server.RunStdio()
		},
	}

	cmd.Flags().StringVarP(&grammarFile, "grammar", "g", "", "EBNF grammar used to tokenize documents")
	cmd.MarkFlagRequired("grammar")

	return cmd
}
