package dump

import (
	"regexp"
	"strings"
)

// ValueKind classifies a value inside a VALUES tuple.
type ValueKind int

// Value kinds. Only KindString values are ever substituted.
const (
	KindExpr ValueKind = iota
	KindString
	KindNull
	KindNumber
)

// literalStyle is how a string literal's body was escaped.
type literalStyle int

const (
	styleStandard  literalStyle = iota // '' doubling only
	styleMySQL                         // mysqldump backslash escapes
	stylePostgresE                     // PostgreSQL E'...' escape string
)

// Value is one value of a row with its position in the statement text.
type Value struct {
	// Raw is the value exactly as written, without surrounding whitespace.
	Raw string
	// Text is the decoded string for KindString values.
	Text string
	Kind ValueKind
	// QuoteStart and QuoteEnd delimit the quoted literal, quotes included.
	QuoteStart int
	QuoteEnd   int
	style      literalStyle
	// decoded is false when the literal uses escapes this package cannot
	// reproduce; such values are left as they are.
	decoded bool
}

// Substitutable reports whether the value is a string literal that can be
// replaced without changing anything around it.
func (v Value) Substitutable() bool {
	return v.Kind == KindString && v.decoded
}

// Encode renders s as a literal in the same style as v, quotes included.
func (v Value) Encode(s string) string {
	switch v.style {
	case styleMySQL:
		return "'" + mysqlEscaper.Replace(s) + "'"
	case stylePostgresE:
		return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}

var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
	"'", `\'`,
	`"`, `\"`,
)

var (
	numberPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
	// Text introducers. X'..' and B'..' are binary and _binary is a blob.
	prefixPattern = regexp.MustCompile(`^(?:[EeNn]|_(?:utf8mb4|utf8mb3|utf8|latin1|ascii)\s*)?$`)
	castPattern   = regexp.MustCompile(`^(?:\s*::\s*[A-Za-z_][A-Za-z0-9_ ]*(?:\(\s*\d+(?:\s*,\s*\d+)?\s*\))?(?:\[\])?)*\s*$`)
)

// classifyValue fills in Kind and the decoded text of v. quoteStart is -1
// when the value held no string literal, literals counts how many it held.
func classifyValue(s string, start, end, quoteStart, quoteEnd, literals int, mode escaping) Value {
	raw := s[start:end]
	v := Value{Raw: raw, QuoteStart: -1, QuoteEnd: -1}

	switch {
	case strings.EqualFold(raw, "NULL"):
		v.Kind = KindNull
		return v
	case numberPattern.MatchString(raw):
		v.Kind = KindNumber
		return v
	case literals != 1:
		return v
	}

	prefix := s[start:quoteStart]
	if !prefixPattern.MatchString(prefix) || !castPattern.MatchString(s[quoteEnd:end]) {
		return v
	}

	v.Kind = KindString
	v.QuoteStart = quoteStart
	v.QuoteEnd = quoteEnd

	body := s[quoteStart+1 : quoteEnd-1]
	switch {
	case mode == escapeBackslash:
		v.style = styleMySQL
		v.Text, v.decoded = decodeMySQL(body)
	case prefix == "E" || prefix == "e":
		v.style = stylePostgresE
		v.Text, v.decoded = decodePostgresE(body)
	default:
		v.style = styleStandard
		v.Text, v.decoded = strings.ReplaceAll(body, "''", "'"), true
	}
	return v
}

// decodeMySQL undoes mysqldump escaping.
func decodeMySQL(body string) (string, bool) {
	if !strings.ContainsAny(body, `\'`) {
		return body, true
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch == '\'' && i+1 < len(body) && body[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		if ch != '\\' || i+1 >= len(body) {
			b.WriteByte(ch)
			continue
		}

		i++
		switch next := body[i]; next {
		case '0':
			b.WriteByte(0)
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'Z':
			b.WriteByte(0x1a)
		case '%', '_':
			// LIKE wildcards keep their backslash.
			b.WriteByte('\\')
			b.WriteByte(next)
		default:
			b.WriteByte(next)
		}
	}
	return b.String(), true
}

// decodePostgresE undoes the simple escapes of an E'...' string. Octal, hex
// and unicode escapes are reported as undecodable.
func decodePostgresE(body string) (string, bool) {
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch == '\'' && i+1 < len(body) && body[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		if ch != '\\' || i+1 >= len(body) {
			b.WriteByte(ch)
			continue
		}

		i++
		switch next := body[i]; {
		case next == 'b':
			b.WriteByte('\b')
		case next == 'f':
			b.WriteByte('\f')
		case next == 'n':
			b.WriteByte('\n')
		case next == 'r':
			b.WriteByte('\r')
		case next == 't':
			b.WriteByte('\t')
		case next == 'x', next == 'u', next == 'U', next >= '0' && next <= '7':
			return "", false
		default:
			b.WriteByte(next)
		}
	}
	return b.String(), true
}
