// Package charstream provides a forward-only cursor over character input that
// tracks the index, line and column of the next character to be read.
package charstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrEndOfInput is returned by Peek and Advance when no characters remain.
	ErrEndOfInput = errors.New("end of input")

	// ErrInvalidBookmark is returned by Reset for a bookmark that does not
	// belong to the stream or points past the cursor.
	ErrInvalidBookmark = errors.New("invalid bookmark")
)

// CharStream is a cursor over a sequence of characters.
//
// A CharStream is not safe for concurrent use.
type CharStream struct {
	buf    []rune
	reader *bufio.Reader
	err    error
	pos    Position
}

// Bookmark is a saved cursor position that the stream can be reset to.
type Bookmark struct {
	stream *CharStream
	pos    Position
}

// Position returns the position recorded by the bookmark.
func (b Bookmark) Position() Position {
	return b.pos
}

// New creates a stream over source.
func New(source string) *CharStream {
	return NewRunes([]rune(source))
}

// NewRunes creates a stream over the given characters. The slice must not be
// modified afterwards.
func NewRunes(source []rune) *CharStream {
	return &CharStream{buf: source, pos: Start}
}

// NewReader creates a stream that decodes UTF-8 from r as characters are
// requested. Read errors other than io.EOF are reported by Peek and Advance.
func NewReader(r io.Reader) *CharStream {
	return &CharStream{reader: bufio.NewReader(r), pos: Start}
}

// CurrentPosition returns the position of the next character, or the end
// position once the input is exhausted.
func (cs *CharStream) CurrentPosition() Position {
	return cs.pos
}

// fill makes sure the character at index i is buffered, if the input has one.
func (cs *CharStream) fill(i int) error {
	for i >= len(cs.buf) {
		if cs.reader == nil {
			return ErrEndOfInput
		}
		if cs.err != nil {
			return cs.err
		}
		ch, _, err := cs.reader.ReadRune()
		if err == io.EOF {
			cs.reader = nil
			return ErrEndOfInput
		}
		if err != nil {
			cs.err = fmt.Errorf("read character %d: %w", len(cs.buf), err)
			return cs.err
		}
		cs.buf = append(cs.buf, ch)
	}
	return nil
}

// Peek returns the next character without consuming it.
func (cs *CharStream) Peek() (rune, error) {
	if err := cs.fill(cs.pos.Index); err != nil {
		return 0, err
	}
	return cs.buf[cs.pos.Index], nil
}

// Advance consumes and returns the next character. At the end of the input it
// returns ErrEndOfInput and leaves the position unchanged.
func (cs *CharStream) Advance() (rune, error) {
	ch, err := cs.Peek()
	if err != nil {
		return 0, err
	}

	lineBreak := ch == '\n'
	if ch == '\r' {
		// \r\n is a single line break, ended by the \n.
		err := cs.fill(cs.pos.Index + 1)
		switch {
		case errors.Is(err, ErrEndOfInput):
			lineBreak = true
		case err != nil:
			return 0, err
		default:
			lineBreak = cs.buf[cs.pos.Index+1] != '\n'
		}
	}

	cs.pos = cs.pos.next(lineBreak)
	return ch, nil
}

// AdvanceN advances over up to n characters and returns how many were
// consumed. The error is nil if all n were consumed.
func (cs *CharStream) AdvanceN(n int) (int, error) {
	for i := 0; i < n; i++ {
		if _, err := cs.Advance(); err != nil {
			return i, err
		}
	}
	return n, nil
}

// EOF reports whether the input is exhausted. A stream whose reader failed
// is not at EOF; Peek returns the read error instead.
func (cs *CharStream) EOF() bool {
	_, err := cs.Peek()
	return errors.Is(err, ErrEndOfInput)
}

// Mark returns a bookmark for the current position.
func (cs *CharStream) Mark() Bookmark {
	return Bookmark{stream: cs, pos: cs.pos}
}

// Reset moves the cursor back to b.
func (cs *CharStream) Reset(b Bookmark) error {
	if b.stream != cs || cs.pos.Before(b.pos) {
		return ErrInvalidBookmark
	}
	cs.pos = b.pos
	return nil
}

// Text returns the consumed characters in [from, to).
func (cs *CharStream) Text(from, to Position) (string, error) {
	if from.Index < 0 || to.Before(from) || cs.pos.Before(to) {
		return "", fmt.Errorf("span %d..%d outside consumed input (cursor at %d)", from.Index, to.Index, cs.pos.Index)
	}
	return string(cs.buf[from.Index:to.Index]), nil
}
