package grammar

import (
	"io"
	"strings"
	"unicode"
)

// LexBuf is a rune cursor over a single line of text.
// Runes between the start and read pointers are pending until they're consumed or reset.
type LexBuf struct {
	startPtr int
	readPtr  int
	buf      []rune
}

// Mark is a saved cursor position.
type Mark struct {
	start, read int
}

func NewLexBuf(text string) *LexBuf {
	return &LexBuf{buf: []rune(text)}
}

func (b *LexBuf) Read() (rune, error) {
	c, err := b.Peek()
	if err != nil {
		return 0, err
	}
	b.readPtr++
	return c, nil
}

func (b *LexBuf) Peek() (rune, error) {
	if b.readPtr >= len(b.buf) {
		return 0, io.EOF
	}
	return b.buf[b.readPtr], nil
}

func (b *LexBuf) Unread() {
	if b.readPtr == b.startPtr {
		return
	}
	b.readPtr--
}

// Reset moves the read pointer back to the start of the pending text.
func (b *LexBuf) Reset() {
	b.readPtr = b.startPtr
}

func (b *LexBuf) Discard() {
	b.startPtr = b.readPtr
}

// Consume returns the pending text and discards it.
func (b *LexBuf) Consume() string {
	s := b.Preview()
	b.Discard()
	return s
}

func (b *LexBuf) Preview() string {
	if b.startPtr >= b.readPtr {
		return ""
	}
	return string(b.buf[b.startPtr:b.readPtr])
}

// Since returns the text from the rune offset pos up to the read pointer.
func (b *LexBuf) Since(pos int) string {
	if pos < 0 || pos >= b.readPtr {
		return ""
	}
	return string(b.buf[pos:b.readPtr])
}

// Pos is the rune offset of the read pointer.
func (b *LexBuf) Pos() int {
	return b.readPtr
}

func (b *LexBuf) EOF() bool {
	return b.readPtr >= len(b.buf)
}

func (b *LexBuf) Mark() Mark {
	return Mark{start: b.startPtr, read: b.readPtr}
}

func (b *LexBuf) Restore(m Mark) {
	b.startPtr, b.readPtr = m.start, m.read
}

// Literal reads s if it's next in the buffer, and doesn't move otherwise.
func (b *LexBuf) Literal(s string) bool {
	runes := []rune(s)
	if b.readPtr+len(runes) > len(b.buf) {
		return false
	}
	for i, r := range runes {
		if b.buf[b.readPtr+i] != r {
			return false
		}
	}
	b.readPtr += len(runes)
	return true
}

// ReadWhile reads runes as long as fn accepts them, returning how many were read.
func (b *LexBuf) ReadWhile(fn func(rune) bool) int {
	var n int
	for b.readPtr < len(b.buf) && fn(b.buf[b.readPtr]) {
		b.readPtr++
		n++
	}
	return n
}

// ReadUntil reads up to, but not including, the next occurrence of s.
// The read pointer doesn't move if s doesn't occur.
func (b *LexBuf) ReadUntil(s string) bool {
	rest := string(b.buf[b.readPtr:])
	idx := strings.Index(rest, s)
	if idx < 0 {
		return false
	}
	b.readPtr += len([]rune(rest[:idx]))
	return true
}

// ReadToEnd reads everything that's left.
func (b *LexBuf) ReadToEnd() {
	b.readPtr = len(b.buf)
}

func (b *LexBuf) SkipSpaces() int {
	n := b.ReadWhile(func(r rune) bool {
		return r != '\n' && unicode.IsSpace(r)
	})
	b.Discard()
	return n
}

// Upcoming returns at most n runes after the read pointer, for error messages.
func (b *LexBuf) Upcoming(n int) string {
	end := b.readPtr + n
	if end > len(b.buf) {
		end = len(b.buf)
	}
	return string(b.buf[b.readPtr:end])
}
