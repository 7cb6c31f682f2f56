// Package grammar provides the shared pieces of the line grammars: a rune cursor, typed parse tree nodes, and parse errors.
package grammar

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrUnexpected = errors.New("unexpected input")
	ErrNoMatch    = errors.New("not a match")
)

// Rule names a grammar rule.
// Rule names are stable, since converters select behavior by them.
type Rule string

// ParseError reports where a line stopped matching its grammar.
type ParseError struct {
	Rule     Rule
	Pos      int
	Expected []string
	Found    string
}

func (e *ParseError) Error() string {
	found := "end of line"
	if len(e.Found) > 0 {
		found = fmt.Sprintf("'%s'", e.Found)
	}
	return fmt.Sprintf("%s in %s: expected %s at position %d, found %s", ErrUnexpected, e.Rule, strings.Join(e.Expected, " or "), e.Pos, found)
}

func (e *ParseError) Unwrap() error {
	return ErrUnexpected
}

// Unexpected creates a ParseError at the current read position of b.
func Unexpected(b *LexBuf, rule Rule, expected ...string) error {
	return &ParseError{
		Rule:     rule,
		Pos:      b.Pos(),
		Expected: expected,
		Found:    b.Upcoming(16),
	}
}

func NotAMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// Node is a node of a parse tree.
type Node interface {
	Pos() int
	Text() string
	Rule() Rule
}

// Ast is embedded by parse tree nodes to implement Node.
type Ast struct {
	AstPos  int    `json:"pos"`
	AstText string `json:"text"`
	AstRule Rule   `json:"rule"`
}

func (a *Ast) Pos() int {
	return a.AstPos
}

func (a *Ast) Text() string {
	return a.AstText
}

func (a *Ast) Rule() Rule {
	return a.AstRule
}

func (a *Ast) SetVals(pos int, text string, rule Rule) {
	a.AstPos = pos
	a.AstText = text
	a.AstRule = rule
}

func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func IsNotSpace(r rune) bool {
	return !unicode.IsSpace(r)
}
