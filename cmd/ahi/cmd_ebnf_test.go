package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dhamidi/charstream/ebnflex"
)

const lexGrammar = `
Word   = letter { letter } .
Number = [ "-" ] digit { digit } .
Space  = " " .
letter = "a" … "z" .
digit  = "0" … "9" .
`

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name    string
		grammar string
		start   string
		wantErr bool
	}{
		{"syntax only", "Word = letter { letter } .\nletter = \"a\" … \"z\" .", "", false},
		{"verified", "Word = letter { letter } .\nletter = \"a\" … \"z\" .", "Word", false},
		{"unused production without start", "Word = \"a\" .\nOther = \"b\" .", "", false},
		{"unused production", "Word = \"a\" .\nOther = \"b\" .", "Word", true},
		{"missing start", "Word = \"a\" .", "Missing", true},
		{"syntax error", "Word = \"a\"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runCheck(&buf, "test.ebnf", strings.NewReader(tt.grammar), tt.start)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && buf.Len() == 0 {
				t.Error("runCheck() printed nothing for a failing grammar")
			}
			if !tt.wantErr && buf.Len() != 0 {
				t.Errorf("runCheck() printed %q for a valid grammar", buf.String())
			}
		})
	}
}

func TestRunLex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		skip    []string
		want    string
		wantErr string
	}{
		{
			name:  "all tokens",
			input: "ab -12",
			want: `1:1 Word "ab"
1:3 Space " "
1:4 Number "-12"
1:7 EOF ""
`,
		},
		{
			name:  "skip kinds",
			input: "ab -12",
			skip:  []string{"Space", " EOF"},
			want: `1:1 Word "ab"
1:4 Number "-12"
`,
		},
		{
			name:  "error tokens",
			input: "a?!",
			want: `1:1 Word "a"
1:2 ERROR "?"
1:3 ERROR "!"
1:4 EOF ""
`,
			wantErr: "2 unexpected characters",
		},
		{
			name:    "skipped error tokens still fail",
			input:   "a?",
			skip:    []string{ebnflex.KindError, ebnflex.KindEOF},
			want:    "1:1 Word \"a\"\n",
			wantErr: "1 unexpected characters",
		},
	}

	grammar, err := ebnflex.ParseGrammar("lex.ebnf", strings.NewReader(lexGrammar))
	if err != nil {
		t.Fatalf("ParseGrammar: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runLex(&buf, ebnflex.NewLexer(grammar, []byte(tt.input), ""), tt.skip)

			if tt.wantErr == "" && err != nil {
				t.Errorf("runLex() error = %v", err)
			}
			if tt.wantErr != "" && (err == nil || err.Error() != tt.wantErr) {
				t.Errorf("runLex() error = %v, want %q", err, tt.wantErr)
			}
			if buf.String() != tt.want {
				t.Errorf("runLex() output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
