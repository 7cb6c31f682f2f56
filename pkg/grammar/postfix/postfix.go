// Package postfix parses postfix mail server syslog lines into a typed tree.
//
// A line has the shape
//
//	timestamp host postfix/process[pid]: [warning: ]message
//
// where the message is matched against the known shapes of the process, falling back to a generic message.
package postfix

import (
	"github.com/saylorsolutions/fluentecs/pkg/grammar"
	"strings"
	"unicode"
)

const (
	RuleLog       grammar.Rule = "postfix_log"
	RuleTimestamp grammar.Rule = "timestamp"
	RuleMonth     grammar.Rule = "month"
	RuleDay       grammar.Rule = "day"
	RuleTime      grammar.Rule = "time"
	RuleHost      grammar.Rule = "host"
	RuleProcess   grammar.Rule = "process"
	RulePid       grammar.Rule = "pid"
	RuleRemote    grammar.Rule = "remote"
	RuleKeyValue  grammar.Rule = "key_value"

	RuleSmtpdConnect        grammar.Rule = "smtpd_connect"
	RuleSmtpdDisconnect     grammar.Rule = "smtpd_disconnect"
	RuleSmtpdLostConnection grammar.Rule = "smtpd_lost_connection"
	RuleSmtpdAuthFailed     grammar.Rule = "smtpd_auth_failed"
	RuleSmtpdMailOpenStream grammar.Rule = "smtpd_mail_open_stream"
	RuleScript              grammar.Rule = "postfix_script"
	RuleAnvilRate           grammar.Rule = "anvil_max_connection_rate"
	RuleAnvilCount          grammar.Rule = "anvil_max_connection_count"
	RuleAnvilCacheSize      grammar.Rule = "anvil_max_cache_size"
	RuleMasterStarted       grammar.Rule = "master_started"
	RuleMasterReload        grammar.Rule = "master_reload"
	RuleMasterTerminating   grammar.Rule = "master_terminating"
	RulePostfix             grammar.Rule = "postfix_message"
	RuleGeneric             grammar.Rule = "message_generic"
)

const (
	warningPrefix = "warning: "
)

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Log is the root of a parsed postfix line.
type Log struct {
	grammar.Ast
	Timestamp *Timestamp
	Host      string
	Process   string
	Pid       string
	Warning   bool
	Message   grammar.Node
}

// Timestamp is a syslog timestamp, which doesn't carry a year.
type Timestamp struct {
	grammar.Ast
	Month  string
	Day    string
	Hour   string
	Minute string
	Second string
}

// MonthNumber returns 1 through 12, or 0 if the month isn't known.
func (t *Timestamp) MonthNumber() int {
	for i, m := range months {
		if m == t.Month {
			return i + 1
		}
	}
	return 0
}

// Remote is a client in the "hostname[ip]" notation.
type Remote struct {
	grammar.Ast
	Hostname string
	IP       string
}

type KeyValue struct {
	grammar.Ast
	Key   string
	Value string
}

type SmtpdConnect struct {
	grammar.Ast
	Remote *Remote
}

type SmtpdDisconnect struct {
	grammar.Ast
	Remote   *Remote
	Commands []*KeyValue
}

type SmtpdLostConnection struct {
	grammar.Ast
	Command string
	Remote  *Remote
}

type SmtpdAuthFailed struct {
	grammar.Ast
	Remote    *Remote
	Mechanism string
	Reason    string
}

type SmtpdMailOpenStream struct {
	grammar.Ast
	Detail string
}

// Script is a message of the postfix-script process, like "starting the Postfix mail system".
type Script struct {
	grammar.Ast
	Action string
}

// AnvilStatistic is one of the periodic anvil statistics, reported with the time it was observed.
type AnvilStatistic struct {
	grammar.Ast
	Value  string
	Client string
	At     *Timestamp
}

type Master struct {
	grammar.Ast
	Version       string
	Configuration string
	Signal        string
}

// Generic is any message without a known shape.
type Generic struct {
	grammar.Ast
}

// Parse matches a whole line against the postfix grammar.
// The error is a *grammar.ParseError if the line doesn't match the outer skeleton.
func Parse(line string) (*Log, error) {
	b := grammar.NewLexBuf(line)
	l := new(Log)
	l.SetVals(0, line, RuleLog)

	ts, err := parseTimestamp(b)
	if err != nil {
		return nil, err
	}
	l.Timestamp = ts

	if err := requireLiteral(b, RuleLog, " "); err != nil {
		return nil, err
	}
	if b.ReadWhile(grammar.IsNotSpace) == 0 {
		return nil, grammar.Unexpected(b, RuleHost, "host name")
	}
	l.Host = b.Consume()

	if err := requireLiteral(b, RuleLog, " postfix/"); err != nil {
		return nil, err
	}
	if b.ReadWhile(isProcessRune) == 0 {
		return nil, grammar.Unexpected(b, RuleProcess, "process name")
	}
	l.Process = b.Consume()

	if err := requireLiteral(b, RulePid, "["); err != nil {
		return nil, err
	}
	if b.ReadWhile(grammar.IsDigit) == 0 {
		return nil, grammar.Unexpected(b, RulePid, "process id")
	}
	l.Pid = b.Consume()
	if err := requireLiteral(b, RulePid, "]: "); err != nil {
		return nil, err
	}

	if b.Literal(warningPrefix) {
		l.Warning = true
		b.Discard()
	}

	l.Message = parseMessage(b, baseProcess(l.Process))
	return l, nil
}

func requireLiteral(b *grammar.LexBuf, rule grammar.Rule, s string) error {
	if !b.Literal(s) {
		return grammar.Unexpected(b, rule, "'"+s+"'")
	}
	b.Discard()
	return nil
}

func isProcessRune(r rune) bool {
	return r != '[' && r != ':' && !unicode.IsSpace(r)
}

// baseProcess strips the service prefix of multi-instance names like "submission/smtpd".
func baseProcess(process string) string {
	if idx := strings.LastIndex(process, "/"); idx >= 0 {
		return process[idx+1:]
	}
	return process
}

func parseTimestamp(b *grammar.LexBuf) (*Timestamp, error) {
	ts := new(Timestamp)
	start := b.Pos()

	for _, m := range months {
		if b.Literal(m) {
			ts.Month = m
			break
		}
	}
	if ts.Month == "" {
		return nil, grammar.Unexpected(b, RuleMonth, "month name")
	}
	b.Discard()

	// Syslog pads single digit days with a space.
	if b.ReadWhile(func(r rune) bool { return r == ' ' }) == 0 {
		return nil, grammar.Unexpected(b, RuleTimestamp, "' '")
	}
	b.Discard()
	if n := b.ReadWhile(grammar.IsDigit); n == 0 || n > 2 {
		return nil, grammar.Unexpected(b, RuleDay, "day of month")
	}
	ts.Day = b.Consume()

	if err := requireLiteral(b, RuleTimestamp, " "); err != nil {
		return nil, err
	}
	parts := []*string{&ts.Hour, &ts.Minute, &ts.Second}
	for i, part := range parts {
		if i > 0 {
			if err := requireLiteral(b, RuleTime, ":"); err != nil {
				return nil, err
			}
		}
		if b.ReadWhile(grammar.IsDigit) != 2 {
			return nil, grammar.Unexpected(b, RuleTime, "two digits")
		}
		*part = b.Consume()
	}
	ts.SetVals(start, ts.Month+" "+ts.Day+" "+ts.Hour+":"+ts.Minute+":"+ts.Second, RuleTimestamp)
	return ts, nil
}

type shapeFn func(b *grammar.LexBuf) (grammar.Node, error)

var shapes = map[string][]shapeFn{
	"smtpd": {
		parseSmtpdConnect,
		parseSmtpdDisconnect,
		parseSmtpdLostConnection,
		parseSmtpdAuthFailed,
		parseSmtpdMailOpenStream,
	},
	"postfix-script": {parseScript},
	"anvil":          {parseAnvil},
	"master": {
		parseMasterStarted,
		parseMasterReload,
		parseMasterTerminating,
	},
	"postfix": {parsePostfix},
}

// parseMessage never fails, any message that doesn't fit a known shape is Generic.
func parseMessage(b *grammar.LexBuf, process string) grammar.Node {
	for _, fn := range shapes[process] {
		m := b.Mark()
		node, err := fn(b)
		if err == nil {
			return node
		}
		b.Restore(m)
	}
	start := b.Pos()
	b.ReadToEnd()
	g := new(Generic)
	g.SetVals(start, b.Consume(), RuleGeneric)
	return g
}

func parseRemote(b *grammar.LexBuf) (*Remote, error) {
	r := new(Remote)
	start := b.Pos()
	if b.ReadWhile(func(r rune) bool { return r != '[' && !unicode.IsSpace(r) }) == 0 {
		return nil, grammar.ErrNoMatch
	}
	r.Hostname = b.Consume()
	if !b.Literal("[") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	if b.ReadWhile(func(r rune) bool { return r != ']' && !unicode.IsSpace(r) }) == 0 {
		return nil, grammar.ErrNoMatch
	}
	r.IP = b.Consume()
	if !b.Literal("]") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	r.SetVals(start, r.Hostname+"["+r.IP+"]", RuleRemote)
	return r, nil
}

func parseKeyValue(b *grammar.LexBuf) (*KeyValue, error) {
	kv := new(KeyValue)
	start := b.Pos()
	if b.ReadWhile(func(r rune) bool { return r != '=' && !unicode.IsSpace(r) }) == 0 {
		return nil, grammar.ErrNoMatch
	}
	kv.Key = b.Consume()
	if !b.Literal("=") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	b.ReadWhile(grammar.IsNotSpace)
	kv.Value = b.Consume()
	kv.SetVals(start, kv.Key+"="+kv.Value, RuleKeyValue)
	return kv, nil
}

func parseSmtpdConnect(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("connect from ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	remote, err := parseRemote(b)
	if err != nil || !b.EOF() {
		return nil, grammar.ErrNoMatch
	}
	n := &SmtpdConnect{Remote: remote}
	n.SetVals(start, b.Since(start), RuleSmtpdConnect)
	return n, nil
}

func parseSmtpdDisconnect(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("disconnect from ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	remote, err := parseRemote(b)
	if err != nil {
		return nil, err
	}
	n := &SmtpdDisconnect{Remote: remote}
	for !b.EOF() {
		if b.SkipSpaces() == 0 {
			return nil, grammar.ErrNoMatch
		}
		kv, err := parseKeyValue(b)
		if err != nil {
			return nil, err
		}
		n.Commands = append(n.Commands, kv)
	}
	n.SetVals(start, b.Since(start), RuleSmtpdDisconnect)
	return n, nil
}

func parseSmtpdLostConnection(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("lost connection after ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	if !b.ReadUntil(" from ") {
		return nil, grammar.ErrNoMatch
	}
	n := &SmtpdLostConnection{Command: b.Consume()}
	b.Literal(" from ")
	b.Discard()
	remote, err := parseRemote(b)
	if err != nil || !b.EOF() {
		return nil, grammar.ErrNoMatch
	}
	n.Remote = remote
	n.SetVals(start, b.Since(start), RuleSmtpdLostConnection)
	return n, nil
}

func parseSmtpdAuthFailed(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	remote, err := parseRemote(b)
	if err != nil {
		return nil, err
	}
	if !b.Literal(": SASL ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	if b.ReadWhile(grammar.IsNotSpace) == 0 {
		return nil, grammar.ErrNoMatch
	}
	n := &SmtpdAuthFailed{Remote: remote, Mechanism: b.Consume()}
	if !b.Literal(" authentication failed") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	if b.Literal(": ") {
		b.Discard()
		b.ReadToEnd()
		n.Reason = b.Consume()
	}
	if !b.EOF() {
		return nil, grammar.ErrNoMatch
	}
	n.SetVals(start, b.Since(start), RuleSmtpdAuthFailed)
	return n, nil
}

func parseSmtpdMailOpenStream(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("mail_open_stream: ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	b.ReadToEnd()
	n := &SmtpdMailOpenStream{Detail: b.Consume()}
	n.SetVals(start, b.Since(start), RuleSmtpdMailOpenStream)
	return n, nil
}

func parseScript(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	for _, action := range []string{"starting", "stopping", "refreshing"} {
		if b.Literal(action + " the Postfix mail system") {
			if !b.EOF() {
				return nil, grammar.ErrNoMatch
			}
			n := &Script{Action: action}
			n.SetVals(start, b.Since(start), RuleScript)
			return n, nil
		}
	}
	return nil, grammar.ErrNoMatch
}

// parseAnvil matches the anvil statistics, for example
//
//	statistics: max connection rate 1/60s for (smtp:10.0.0.1) at Nov 16 13:20:01
//	statistics: max cache size 1 at Nov 16 13:20:01
func parseAnvil(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("statistics: max ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	var rule grammar.Rule
	switch {
	case b.Literal("connection rate "):
		rule = RuleAnvilRate
	case b.Literal("connection count "):
		rule = RuleAnvilCount
	case b.Literal("cache size "):
		rule = RuleAnvilCacheSize
	default:
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	if b.ReadWhile(grammar.IsNotSpace) == 0 {
		return nil, grammar.ErrNoMatch
	}
	n := &AnvilStatistic{Value: b.Consume()}
	if b.Literal(" for (") {
		b.Discard()
		if b.ReadWhile(func(r rune) bool { return r != ')' }) == 0 || !b.Literal(")") {
			return nil, grammar.ErrNoMatch
		}
		client := b.Consume()
		n.Client = strings.TrimSuffix(client, ")")
	}
	if !b.Literal(" at ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	at, err := parseTimestamp(b)
	if err != nil || !b.EOF() {
		return nil, grammar.ErrNoMatch
	}
	n.At = at
	n.SetVals(start, b.Since(start), rule)
	return n, nil
}

// parseMasterVersion matches " -- version X, configuration Y" to the end of the line.
func parseMasterVersion(b *grammar.LexBuf, n *Master) error {
	if !b.Literal(" -- version ") {
		return grammar.ErrNoMatch
	}
	b.Discard()
	if !b.ReadUntil(", configuration ") {
		return grammar.ErrNoMatch
	}
	n.Version = b.Consume()
	b.Literal(", configuration ")
	b.Discard()
	if b.ReadWhile(grammar.IsNotSpace) == 0 || !b.EOF() {
		return grammar.ErrNoMatch
	}
	n.Configuration = b.Consume()
	return nil
}

func parseMasterStarted(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("daemon started") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	n := new(Master)
	if err := parseMasterVersion(b, n); err != nil {
		return nil, err
	}
	n.SetVals(start, b.Since(start), RuleMasterStarted)
	return n, nil
}

func parseMasterReload(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("reload") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	n := new(Master)
	if err := parseMasterVersion(b, n); err != nil {
		return nil, err
	}
	n.SetVals(start, b.Since(start), RuleMasterReload)
	return n, nil
}

func parseMasterTerminating(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if !b.Literal("terminating on signal ") {
		return nil, grammar.ErrNoMatch
	}
	b.Discard()
	if b.ReadWhile(grammar.IsDigit) == 0 || !b.EOF() {
		return nil, grammar.ErrNoMatch
	}
	n := &Master{Signal: b.Consume()}
	n.SetVals(start, b.Since(start), RuleMasterTerminating)
	return n, nil
}

// parsePostfix matches messages of the postfix command itself.
func parsePostfix(b *grammar.LexBuf) (grammar.Node, error) {
	start := b.Pos()
	if b.EOF() {
		return nil, grammar.ErrNoMatch
	}
	b.ReadToEnd()
	n := new(Generic)
	n.SetVals(start, b.Consume(), RulePostfix)
	return n, nil
}
