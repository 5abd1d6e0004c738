// Package ebnflex provides lexical scanning based on EBNF grammars.
package ebnflex

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dhamidi/charstream/charstream"
	"golang.org/x/exp/ebnf"
)

// Token kinds produced by the lexer itself rather than by a grammar production.
const (
	KindEOF   = "EOF"
	KindError = "ERROR"
)

// Position represents a location in a named input.
type Position struct {
	Filename string
	charstream.Position
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return p.Position.String()
}

// Token represents a lexical token with its position.
type Token struct {
	Kind     string
	Literal  string
	Position Position
	End      Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

type memoKey struct {
	name   string
	offset int
}

// Lexer tokenizes input based on an EBNF grammar.
type Lexer struct {
	grammar  ebnf.Grammar
	tokens   []string
	input    []rune
	filename string
	stream   *charstream.CharStream
	memo     map[memoKey]int // match length or noMatch
	visiting map[memoKey]bool
}

// NewLexer creates a lexer for the given grammar and input.
func NewLexer(grammar ebnf.Grammar, input []byte, filename string) *Lexer {
	runes := []rune(string(input))
	return &Lexer{
		grammar:  grammar,
		tokens:   tokenProductions(grammar),
		input:    runes,
		filename: filename,
		stream:   charstream.NewRunes(runes),
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

// tokenProductions returns the names of productions starting with an
// uppercase letter, sorted so that ties between equal-length matches are
// resolved the same way on every run.
func tokenProductions(grammar ebnf.Grammar) []string {
	var names []string
	for name, prod := range grammar {
		if prod.Expr == nil || len(name) == 0 || name[0] < 'A' || name[0] > 'Z' {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return ParseGrammar(filename, f)
}

// ParseGrammar parses an EBNF grammar from r.
func ParseGrammar(filename string, r io.Reader) (ebnf.Grammar, error) {
	grammar, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return grammar, nil
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{Filename: l.filename, Position: l.stream.CurrentPosition()}
}

// NextToken returns the next token from the input.
// It tries each production in the grammar marked as a token (uppercase first letter)
// and returns the longest match. At the end of the input it returns an EOF
// token together with io.EOF.
func (l *Lexer) NextToken() (Token, error) {
	if l.stream.EOF() {
		pos := l.Position()
		return Token{Kind: KindEOF, Position: pos, End: pos}, io.EOF
	}

	start := l.stream.CurrentPosition()

	// Positions change between tokens, so cached matches are stale.
	l.memo = make(map[memoKey]int)

	var bestKind string
	var bestLen int
	for _, name := range l.tokens {
		l.visiting = make(map[memoKey]bool)
		n := l.tryMatch(l.grammar[name].Expr, start.Index)
		if n > bestLen {
			bestLen = n
			bestKind = name
		}
	}

	// Productions matching nothing at all produce no token.
	if bestLen <= 0 {
		bestKind = KindError
		bestLen = 1
	}

	if _, err := l.stream.AdvanceN(bestLen); err != nil {
		return Token{}, fmt.Errorf("advance past %s at %s: %w", bestKind, start, err)
	}
	end := l.stream.CurrentPosition()

	literal, err := l.stream.Text(start, end)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Kind:     bestKind,
		Literal:  literal,
		Position: Position{Filename: l.filename, Position: start},
		End:      Position{Filename: l.filename, Position: end},
	}, nil
}

// noMatch is returned by the match functions when expr does not match.
// Any other result, including 0, is the length of a successful match.
const noMatch = -1

// tryMatch returns the length of the match of expr at offset, or noMatch.
func (l *Lexer) tryMatch(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		return l.tryMatchToken(e.String, offset)

	case *ebnf.Range:
		return l.tryMatchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		total := 0
		for _, item := range e {
			n := l.tryMatch(item, offset+total)
			if n == noMatch {
				return noMatch
			}
			total += n
		}
		return total

	case ebnf.Alternative:
		best := noMatch
		for _, alt := range e {
			if n := l.tryMatch(alt, offset); n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		total := 0
		for {
			// Stop on an empty match too, or the loop never ends.
			n := l.tryMatch(e.Body, offset+total)
			if n <= 0 {
				break
			}
			total += n
		}
		return total

	case *ebnf.Option:
		if n := l.tryMatch(e.Body, offset); n > 0 {
			return n
		}
		return 0

	case *ebnf.Group:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Name:
		return l.tryMatchName(e.String, offset)

	case nil:
		return 0

	default:
		return noMatch
	}
}

// tryMatchName matches a named production with memoization and cycle detection.
func (l *Lexer) tryMatchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}

	if result, ok := l.memo[key]; ok {
		return result
	}

	// Left recursion: already expanding this production here.
	if l.visiting[key] {
		return noMatch
	}

	prod, ok := l.grammar[name]
	if !ok {
		l.memo[key] = noMatch
		return noMatch
	}

	l.visiting[key] = true
	result := l.tryMatch(prod.Expr, offset)
	delete(l.visiting, key)

	l.memo[key] = result
	return result
}

// Grammar literals arrive unquoted from the ebnf parser.
func (l *Lexer) tryMatchToken(token string, offset int) int {
	s := []rune(token)
	if offset+len(s) > len(l.input) {
		return noMatch
	}
	for i, ch := range s {
		if l.input[offset+i] != ch {
			return noMatch
		}
	}
	return len(s)
}

// tryMatchRange matches a character range (e.g., "a" … "z").
func (l *Lexer) tryMatchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return noMatch
	}
	lo := []rune(begin)
	hi := []rune(end)
	if len(lo) != 1 || len(hi) != 1 {
		return noMatch
	}
	ch := l.input[offset]
	if ch >= lo[0] && ch <= hi[0] {
		return 1
	}
	return noMatch
}

// Tokenize reads all tokens from input, including the final EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err == io.EOF {
			tokens = append(tokens, tok)
			break
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
