package charstream

import "fmt"

// Position is a location in the character input.
//
// Index counts characters (not bytes) from the start of the input. Line and
// Column are 1-based.
type Position struct {
	Index  int `json:"index"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Start is the position of the first character of any input.
var Start = Position{Index: 0, Line: 1, Column: 1}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before other in the input.
func (p Position) Before(other Position) bool {
	return p.Index < other.Index
}

func (p Position) next(lineBreak bool) Position {
	if lineBreak {
		return Position{Index: p.Index + 1, Line: p.Line + 1, Column: 1}
	}
	return Position{Index: p.Index + 1, Line: p.Line, Column: p.Column + 1}
}
