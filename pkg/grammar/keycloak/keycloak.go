// Package keycloak parses the body of keycloak event log lines, a comma separated list of key="value" pairs.
package keycloak

import (
	"github.com/saylorsolutions/fluentecs/pkg/grammar"
	"strings"
)

const (
	RuleEvent grammar.Rule = "keycloak_event"
	RulePair  grammar.Rule = "pair"
	RuleKey   grammar.Rule = "key"
	RuleValue grammar.Rule = "quoted_value"
)

var escapes = map[rune]rune{
	'"':  '"',
	'\\': '\\',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

type Event struct {
	grammar.Ast
	Pairs []*Pair
}

// Value returns the value of the first pair with the given key.
func (e *Event) Value(key string) (string, bool) {
	for _, p := range e.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

type Pair struct {
	grammar.Ast
	Key string
	// Value is unquoted, with escape sequences resolved.
	Value string
}

// Parse matches text against the keycloak event grammar.
// The error is a *grammar.ParseError if text isn't a list of key="value" pairs.
func Parse(text string) (*Event, error) {
	b := grammar.NewLexBuf(text)
	e := new(Event)
	e.SetVals(0, text, RuleEvent)

	b.SkipSpaces()
	for {
		p, err := parsePair(b)
		if err != nil {
			return nil, err
		}
		e.Pairs = append(e.Pairs, p)

		b.SkipSpaces()
		if b.EOF() {
			return e, nil
		}
		if !b.Literal(",") {
			return nil, grammar.Unexpected(b, RuleEvent, "','", "end of line")
		}
		b.Discard()
		b.SkipSpaces()
	}
}

func isKeyRune(r rune) bool {
	return r != '=' && r != ',' && r != '"' && grammar.IsNotSpace(r)
}

func parsePair(b *grammar.LexBuf) (*Pair, error) {
	p := new(Pair)
	start := b.Pos()
	if b.ReadWhile(isKeyRune) == 0 {
		return nil, grammar.Unexpected(b, RuleKey, "key")
	}
	p.Key = b.Consume()
	if !b.Literal("=") {
		return nil, grammar.Unexpected(b, RulePair, "'='")
	}
	b.Discard()
	val, err := parseQuoted(b)
	if err != nil {
		return nil, err
	}
	p.Value = val
	p.SetVals(start, b.Since(start), RulePair)
	return p, nil
}

func parseQuoted(b *grammar.LexBuf) (string, error) {
	if !b.Literal(`"`) {
		return "", grammar.Unexpected(b, RuleValue, `'"'`)
	}
	b.Discard()
	var val strings.Builder
	for {
		c, err := b.Read()
		if err != nil {
			return "", grammar.Unexpected(b, RuleValue, `'"'`)
		}
		switch c {
		case '"':
			b.Discard()
			return val.String(), nil
		case '\\':
			esc, err := b.Read()
			if err != nil {
				return "", grammar.Unexpected(b, RuleValue, "escape sequence")
			}
			r, ok := escapes[esc]
			if !ok {
				b.Unread()
				return "", grammar.Unexpected(b, RuleValue, "escape sequence")
			}
			val.WriteRune(r)
		default:
			val.WriteRune(c)
		}
	}
}
