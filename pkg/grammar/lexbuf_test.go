package grammar

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"io"
	"testing"
)

func TestLexBuf_Read(t *testing.T) {
	slc := []rune{'a', 'b', 'ü', 'd'}
	buf := NewLexBuf(string(slc))

	for i := 0; i < 3; i++ {
		r, err := buf.Read()
		assert.NoError(t, err)
		assert.Equal(t, slc[i], r)
	}
	assert.Equal(t, 3, buf.Pos())
	assert.Equal(t, "abü", buf.Consume())
	assert.Equal(t, "", buf.Preview())

	r, err := buf.Read()
	assert.NoError(t, err)
	assert.Equal(t, 'd', r)
	assert.True(t, buf.EOF())

	_, err = buf.Read()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "d", buf.Consume())
}

func TestLexBuf_Unread(t *testing.T) {
	buf := NewLexBuf("abc")
	_, _ = buf.Read()
	buf.Discard()
	_, _ = buf.Read()
	buf.Unread()
	buf.Unread()
	assert.Equal(t, 1, buf.Pos(), "Unread should stop at the start pointer")

	_, _ = buf.Read()
	buf.Reset()
	assert.Equal(t, 1, buf.Pos())
}

func TestLexBuf_Literal(t *testing.T) {
	tests := map[string]struct {
		text    string
		literal string
		matches bool
		pos     int
	}{
		"match": {
			text:    "postfix/smtpd",
			literal: "postfix/",
			matches: true,
			pos:     8,
		},
		"mismatch": {
			text:    "postman/smtpd",
			literal: "postfix/",
		},
		"too short": {
			text:    "post",
			literal: "postfix/",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			buf := NewLexBuf(tc.text)
			assert.Equal(t, tc.matches, buf.Literal(tc.literal))
			assert.Equal(t, tc.pos, buf.Pos())
		})
	}
}

func TestLexBuf_ReadUntil(t *testing.T) {
	buf := NewLexBuf("lost connection after DATA (0 bytes) from host[1.2.3.4]")
	assert.True(t, buf.Literal("lost connection after "))
	buf.Discard()
	assert.True(t, buf.ReadUntil(" from "))
	assert.Equal(t, "DATA (0 bytes)", buf.Consume())
	assert.False(t, buf.ReadUntil(" to "))
	assert.Equal(t, "", buf.Preview())
}

func TestLexBuf_MarkRestore(t *testing.T) {
	buf := NewLexBuf("12:34")
	m := buf.Mark()
	assert.Equal(t, 2, buf.ReadWhile(IsDigit))
	assert.Equal(t, "12", buf.Preview())
	buf.Restore(m)
	assert.Equal(t, 0, buf.Pos())
	assert.Equal(t, "", buf.Preview())
}

func TestUnexpected(t *testing.T) {
	buf := NewLexBuf("Foo 16 13:27:38")
	err := Unexpected(buf, "month", "month name")
	assert.True(t, errors.Is(err, ErrUnexpected))
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Pos)
	assert.Equal(t, "Foo 16 13:27:38", perr.Found)
	assert.Equal(t, "unexpected input in month: expected month name at position 0, found 'Foo 16 13:27:38'", err.Error())
}
