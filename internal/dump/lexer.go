package dump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/model"
)

// errIncomplete means the text ended inside a statement; more lines are needed.
var errIncomplete = errors.New("statement continues past end of input")

// errNotData means the text is not a statement the rewriter handles.
var errNotData = errors.New("not a data statement")

func unparseable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrUnparseableRow, fmt.Sprintf(format, args...))
}

// escaping describes how backslashes inside single-quoted literals behave.
type escaping int

const (
	// escapeStandard: only '' doubles a quote, backslash is an ordinary character.
	escapeStandard escaping = iota
	// escapeBackslash: backslash escapes the next character and '' doubles a quote.
	escapeBackslash
	// escapeStrict: like escapeStandard, but any backslash makes the literal
	// ambiguous because the dialect is not known.
	escapeStrict
)

// escapingFor returns the literal escaping used by dumps of dialect d.
func escapingFor(d model.DatabaseType) escaping {
	switch d {
	case model.DatabaseMySQL:
		return escapeBackslash
	case model.DatabasePostgreSQL, model.DatabaseSQLite:
		return escapeStandard
	default:
		return escapeStrict
	}
}

// literalMode returns the escaping for the literal opening at s[i]. E'...'
// strings always use backslash escapes.
func literalMode(s string, i int, mode escaping) escaping {
	if i > 0 && (s[i-1] == 'E' || s[i-1] == 'e') && (i < 2 || !isIdentByte(s[i-2])) {
		return escapeBackslash
	}
	return mode
}

// scanString returns the index just past the literal that opens at s[start].
func scanString(s string, start int, mode escaping) (int, error) {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			switch mode {
			case escapeBackslash:
				i++
			case escapeStrict:
				return 0, unparseable("backslash in literal of unknown dialect")
			}
		case '\'':
			if i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			return i + 1, nil
		}
	}
	return 0, errIncomplete
}

// scanQuotedIdent returns the index just past a "double", `backtick` or
// [bracket] quoted identifier opening at s[start].
func scanQuotedIdent(s string, start int) (int, error) {
	closer := s[start]
	if closer == '[' {
		closer = ']'
	}
	for i := start + 1; i < len(s); i++ {
		if s[i] != closer {
			continue
		}
		if closer != ']' && i+1 < len(s) && s[i+1] == closer {
			i++
			continue
		}
		return i + 1, nil
	}
	return 0, errIncomplete
}

func unquoteIdent(quoted string) string {
	open, body := quoted[0], quoted[1:len(quoted)-1]
	switch open {
	case '"':
		return strings.ReplaceAll(body, `""`, `"`)
	case '`':
		return strings.ReplaceAll(body, "``", "`")
	default:
		return body
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// cursor walks a statement left to right.
type cursor struct {
	s    string
	pos  int
	mode escaping
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.s)
}

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.s[c.pos]
}

// skipSpace skips whitespace and comments. An unterminated comment runs to
// the end of the text.
func (c *cursor) skipSpace() {
	for c.pos < len(c.s) {
		if end := commentEnd(c.s, c.pos); end > c.pos {
			c.pos = end
			continue
		}
		if !isSpace(c.s[c.pos]) {
			return
		}
		c.pos++
	}
}

// commentEnd returns the index just past a -- or /* */ comment opening at
// s[i], len(s) when it never closes, and i when no comment opens there.
func commentEnd(s string, i int) int {
	switch {
	case strings.HasPrefix(s[i:], "--"):
		if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
			return i + nl + 1
		}
		return len(s)
	case strings.HasPrefix(s[i:], "/*"):
		if end := strings.Index(s[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 2
		}
		return len(s)
	}
	return i
}

// keyword consumes kw (case-insensitive) when it is the next whole word.
func (c *cursor) keyword(kw string) bool {
	c.skipSpace()
	end := c.pos + len(kw)
	if end > len(c.s) || !strings.EqualFold(c.s[c.pos:end], kw) {
		return false
	}
	if end < len(c.s) && isIdentByte(c.s[end]) {
		return false
	}
	c.pos = end
	return true
}

// anyKeyword consumes the first matching keyword of kws.
func (c *cursor) anyKeyword(kws ...string) bool {
	for _, kw := range kws {
		if c.keyword(kw) {
			return true
		}
	}
	return false
}

// identifier reads one bare or quoted identifier.
func (c *cursor) identifier() (string, error) {
	c.skipSpace()
	if c.eof() {
		return "", errIncomplete
	}

	switch c.s[c.pos] {
	case '"', '`', '[':
		end, err := scanQuotedIdent(c.s, c.pos)
		if err != nil {
			return "", err
		}
		name := unquoteIdent(c.s[c.pos:end])
		c.pos = end
		return name, nil
	}

	start := c.pos
	for c.pos < len(c.s) && isIdentByte(c.s[c.pos]) {
		c.pos++
	}
	if start == c.pos {
		return "", unparseable("expected identifier at offset %d", start)
	}
	return c.s[start:c.pos], nil
}

// qualifiedName reads a dotted name such as public."users".
func (c *cursor) qualifiedName() ([]string, error) {
	var parts []string
	for {
		part, err := c.identifier()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)

		if c.peek() != '.' {
			return parts, nil
		}
		c.pos++
	}
}

// identList reads a parenthesised, comma separated identifier list.
func (c *cursor) identList() ([]string, error) {
	c.skipSpace()
	if c.peek() != '(' {
		return nil, unparseable("expected column list")
	}
	c.pos++

	var names []string
	for {
		name, err := c.identifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		c.skipSpace()
		if c.eof() {
			return nil, errIncomplete
		}
		switch c.s[c.pos] {
		case ',':
			c.pos++
		case ')':
			c.pos++
			return names, nil
		default:
			return nil, unparseable("unexpected %q in column list", c.s[c.pos])
		}
	}
}

// findTerminator returns the index of the first ';' in s that is outside
// literals, quoted identifiers, comments and parentheses.
func findTerminator(s string, from int, mode escaping) (int, error) {
	depth := 0
	for i := from; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\'':
			end, err := scanString(s, i, literalMode(s, i, mode))
			if err != nil {
				return 0, err
			}
			i = end - 1
		case ch == '"' || ch == '`':
			end, err := scanQuotedIdent(s, i)
			if err != nil {
				return 0, err
			}
			i = end - 1
		case ch == '-' && strings.HasPrefix(s[i:], "--"):
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return 0, errIncomplete
			}
			i += nl
		case ch == '/' && strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return 0, errIncomplete
			}
			i += end + 3
		case ch == '$' && mode != escapeBackslash:
			tag := dollarTag(s, i)
			if tag == "" {
				continue
			}
			end := strings.Index(s[i+len(tag):], tag)
			if end < 0 {
				return 0, errIncomplete
			}
			i += len(tag) + end + len(tag) - 1
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ';' && depth <= 0:
			return i, nil
		}
	}
	return 0, errIncomplete
}

// dollarTag returns the PostgreSQL dollar-quote delimiter ($$ or $tag$)
// opening at s[i], or "" when there is none. Dollar quoting does not exist in
// MySQL, so callers skip it for backslash-escaping dumps.
func dollarTag(s string, i int) string {
	if s[i] != '$' || (i > 0 && isIdentByte(s[i-1])) {
		return ""
	}
	for j := i + 1; j < len(s); j++ {
		b := s[j]
		switch {
		case b == '$':
			return s[i : j+1]
		case b == '_' || b >= 0x80 || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z'):
		case b >= '0' && b <= '9' && j > i+1:
		default:
			return ""
		}
	}
	return ""
}

// dollarState scans one line that passes through unchanged and returns the
// dollar-quote delimiter still open at its end. open is the delimiter open
// at the start of the line.
func dollarState(line, open string, mode escaping) string {
	if mode == escapeBackslash {
		return ""
	}

	i := 0
	if open != "" {
		end := strings.Index(line, open)
		if end < 0 {
			return open
		}
		i = end + len(open)
	}

	for i < len(line) {
		switch ch := line[i]; {
		case ch == '\'':
			end, err := scanString(line, i, literalMode(line, i, mode))
			if err != nil {
				return ""
			}
			i = end
			continue
		case ch == '"':
			end, err := scanQuotedIdent(line, i)
			if err != nil {
				return ""
			}
			i = end
			continue
		case ch == '-' && strings.HasPrefix(line[i:], "--"):
			return ""
		case ch == '/' && strings.HasPrefix(line[i:], "/*"):
			end := strings.Index(line[i+2:], "*/")
			if end < 0 {
				return ""
			}
			i += end + 4
			continue
		case ch == '$':
			if tag := dollarTag(line, i); tag != "" {
				end := strings.Index(line[i+len(tag):], tag)
				if end < 0 {
					return tag
				}
				i += len(tag) + end + len(tag)
				continue
			}
		}
		i++
	}
	return ""
}
