package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dhamidi/charstream/charstream"
)

func TestSeekIndex(t *testing.T) {
	cs := charstream.New("ab\ncd")
	if err := seekIndex(cs, 4); err != nil {
		t.Fatalf("seekIndex: %v", err)
	}
	if got := cs.CurrentPosition(); got != (charstream.Position{Index: 4, Line: 2, Column: 2}) {
		t.Errorf("CurrentPosition() = %+v", got)
	}

	if err := seekIndex(charstream.New("ab"), 3); err == nil {
		t.Error("seekIndex past end returned no error")
	}
	if err := seekIndex(charstream.New("ab"), -1); err == nil {
		t.Error("seekIndex(-1) returned no error")
	}
}

func TestSeekLineColumn(t *testing.T) {
	tests := []struct {
		line, column int
		wantIndex    int
		wantErr      bool
	}{
		{1, 1, 0, false},
		{1, 3, 2, false},
		{2, 1, 3, false},
		{2, 3, 5, false},
		{1, 4, 0, true},
		{3, 1, 0, true},
	}

	for _, tt := range tests {
		cs := charstream.NewReader(strings.NewReader("ab\ncd"))
		err := seekLineColumn(cs, tt.line, tt.column)
		if (err != nil) != tt.wantErr {
			t.Errorf("seekLineColumn(%d, %d) error = %v, wantErr %v", tt.line, tt.column, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && cs.CurrentPosition().Index != tt.wantIndex {
			t.Errorf("seekLineColumn(%d, %d) Index = %d, want %d", tt.line, tt.column, cs.CurrentPosition().Index, tt.wantIndex)
		}
	}
}

func TestWritePosition(t *testing.T) {
	pos := charstream.Position{Index: 5, Line: 2, Column: 3}

	var buf bytes.Buffer
	if err := writePosition(&buf, pos, "line"); err != nil {
		t.Fatalf("writePosition(line): %v", err)
	}
	if buf.String() != "5 2:3\n" {
		t.Errorf("line output = %q", buf.String())
	}

	buf.Reset()
	if err := writePosition(&buf, pos, "json"); err != nil {
		t.Fatalf("writePosition(json): %v", err)
	}
	if buf.String() != `{"index":5,"line":2,"column":3}`+"\n" {
		t.Errorf("json output = %q", buf.String())
	}

	if err := writePosition(&buf, pos, "xml"); err == nil {
		t.Error("writePosition(xml) returned no error")
	}
}
