package dump

import (
	"regexp"
	"strings"
)

var (
	insertHeader = regexp.MustCompile(`(?i)^\s*(?:INSERT|REPLACE)\b`)
	createHeader = regexp.MustCompile(`(?i)^\s*CREATE\s+(?:(?:GLOBAL|LOCAL)\s+)?(?:(?:TEMP|TEMPORARY|UNLOGGED)\s+)?TABLE\b`)
	copyHeader   = regexp.MustCompile(`(?i)^\s*COPY\s`)
)

// Row is one inserted row: the target table, its columns and the values in
// column order.
type Row struct {
	Table   []string
	Columns []string
	Values  []Value
}

// TableName returns the dotted table name.
func (r Row) TableName() string {
	return strings.Join(r.Table, ".")
}

// insertStatement is a parsed INSERT. Columns is nil when the statement has
// no explicit column list.
type insertStatement struct {
	Table   []string
	Columns []string
	Tuples  [][]Value
}

// parseInsert parses an INSERT/REPLACE ... VALUES statement.
func parseInsert(text string, mode escaping) (*insertStatement, error) {
	c := &cursor{s: text, mode: mode}

	switch {
	case c.keyword("INSERT"):
		for {
			if c.keyword("OR") {
				if !c.anyKeyword("REPLACE", "IGNORE", "ABORT", "FAIL", "ROLLBACK") {
					return nil, unparseable("unknown INSERT OR clause")
				}
				continue
			}
			if !c.anyKeyword("LOW_PRIORITY", "DELAYED", "HIGH_PRIORITY", "IGNORE") {
				break
			}
		}
	case c.keyword("REPLACE"):
		for c.anyKeyword("LOW_PRIORITY", "DELAYED") {
		}
	default:
		return nil, errNotData
	}

	if !c.keyword("INTO") {
		return nil, unparseable("expected INTO")
	}

	table, err := c.qualifiedName()
	if err != nil {
		return nil, err
	}
	stmt := &insertStatement{Table: table}

	c.skipSpace()
	if c.peek() == '(' {
		if stmt.Columns, err = c.identList(); err != nil {
			return nil, err
		}
	}

	if !c.anyKeyword("VALUES", "VALUE") {
		c.skipSpace()
		if c.eof() {
			return nil, errIncomplete
		}
		return nil, unparseable("expected VALUES")
	}

	for {
		c.skipSpace()
		if c.eof() {
			return nil, errIncomplete
		}
		if c.peek() != '(' {
			return nil, unparseable("expected tuple at offset %d", c.pos)
		}

		tuple, err := c.tuple()
		if err != nil {
			return nil, err
		}
		stmt.Tuples = append(stmt.Tuples, tuple)

		c.skipSpace()
		if c.peek() == ',' {
			c.pos++
			continue
		}
		break
	}

	// Whatever follows the last tuple (a terminator, ON CONFLICT, ON
	// DUPLICATE KEY UPDATE, RETURNING) is left exactly as written.
	if tail := c.s[c.pos:]; tail != "" {
		first := tail[0]
		if first != ';' && !(first >= 'a' && first <= 'z') && !(first >= 'A' && first <= 'Z') {
			return nil, unparseable("unexpected text after VALUES")
		}
	}

	return stmt, nil
}

// tuple reads one parenthesised value list.
func (c *cursor) tuple() ([]Value, error) {
	c.pos++ // (

	c.skipSpace()
	if c.peek() == ')' {
		c.pos++
		return nil, nil
	}

	var values []Value
	for {
		v, err := c.value()
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		if c.eof() {
			return nil, errIncomplete
		}
		switch c.s[c.pos] {
		case ',':
			c.pos++
		case ')':
			c.pos++
			return values, nil
		}
	}
}

// value reads one value up to the ',' or ')' that ends it. Comments around
// the value are not part of it.
func (c *cursor) value() (Value, error) {
	c.skipSpace()
	start := c.pos
	last := start
	depth := 0
	literals := 0
	quoteStart, quoteEnd := -1, -1

	for c.pos < len(c.s) {
		ch := c.s[c.pos]
		switch {
		case ch == '\'':
			end, err := scanString(c.s, c.pos, literalMode(c.s, c.pos, c.mode))
			if err != nil {
				return Value{}, err
			}
			if literals == 0 {
				quoteStart, quoteEnd = c.pos, end
			}
			literals++
			c.pos, last = end, end
			continue
		case ch == '"' || ch == '`':
			end, err := scanQuotedIdent(c.s, c.pos)
			if err != nil {
				return Value{}, err
			}
			c.pos, last = end, end
			continue
		case ch == '-' || ch == '/':
			if end := commentEnd(c.s, c.pos); end > c.pos {
				if end == len(c.s) {
					return Value{}, errIncomplete
				}
				c.pos = end
				continue
			}
		case ch == '(':
			depth++
		case ch == ')':
			if depth == 0 {
				return c.finishValue(start, last, quoteStart, quoteEnd, literals), nil
			}
			depth--
		case ch == ',' && depth == 0:
			return c.finishValue(start, last, quoteStart, quoteEnd, literals), nil
		}
		if !isSpace(ch) {
			last = c.pos + 1
		}
		c.pos++
	}
	return Value{}, errIncomplete
}

// finishValue classifies s[start:end], the value text without surrounding
// whitespace and trailing comments.
func (c *cursor) finishValue(start, end, quoteStart, quoteEnd, literals int) Value {
	if quoteStart < 0 {
		quoteStart, quoteEnd = start, start
	}
	return classifyValue(c.s, start, end, quoteStart, quoteEnd, literals, c.mode)
}

var constraintWords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"UNIQUE":     true,
	"FOREIGN":    true,
	"KEY":        true,
	"INDEX":      true,
	"CHECK":      true,
	"FULLTEXT":   true,
	"SPATIAL":    true,
	"EXCLUDE":    true,
	"LIKE":       true,
	"PERIOD":     true,
}

// parseCreateTable returns the table name and column names of a CREATE TABLE.
func parseCreateTable(text string, mode escaping) ([]string, []string, error) {
	c := &cursor{s: text, mode: mode}
	if !c.keyword("CREATE") {
		return nil, nil, errNotData
	}
	c.anyKeyword("GLOBAL", "LOCAL")
	c.anyKeyword("TEMPORARY", "TEMP", "UNLOGGED")
	if !c.keyword("TABLE") {
		return nil, nil, errNotData
	}
	if c.keyword("IF") {
		if !c.keyword("NOT") || !c.keyword("EXISTS") {
			return nil, nil, unparseable("malformed IF NOT EXISTS")
		}
	}

	table, err := c.qualifiedName()
	if err != nil {
		return nil, nil, err
	}

	c.skipSpace()
	if c.peek() != '(' {
		// CREATE TABLE ... AS SELECT and PARTITION OF carry no column list.
		return nil, nil, errNotData
	}
	c.pos++

	elements, err := c.splitElements()
	if err != nil {
		return nil, nil, err
	}

	var columns []string
	for _, el := range elements {
		ec := &cursor{s: el, mode: mode}
		ec.skipSpace()
		if ec.eof() {
			continue
		}
		quoted := ec.peek() == '"' || ec.peek() == '`' || ec.peek() == '['
		name, err := ec.identifier()
		if err != nil {
			continue
		}
		if !quoted && constraintWords[strings.ToUpper(name)] {
			continue
		}
		columns = append(columns, name)
	}

	if len(columns) == 0 {
		return nil, nil, unparseable("table %s has no columns", strings.Join(table, "."))
	}
	return table, columns, nil
}

// splitElements splits a parenthesised definition list at top-level commas.
// The cursor must be just past the opening parenthesis.
func (c *cursor) splitElements() ([]string, error) {
	var elements []string
	depth := 0
	start := c.pos

	for c.pos < len(c.s) {
		ch := c.s[c.pos]
		switch {
		case ch == '\'':
			end, err := scanString(c.s, c.pos, literalMode(c.s, c.pos, c.mode))
			if err != nil {
				return nil, err
			}
			c.pos = end
			continue
		case ch == '"' || ch == '`':
			end, err := scanQuotedIdent(c.s, c.pos)
			if err != nil {
				return nil, err
			}
			c.pos = end
			continue
		case ch == '-' && strings.HasPrefix(c.s[c.pos:], "--"):
			nl := strings.IndexByte(c.s[c.pos:], '\n')
			if nl < 0 {
				return nil, errIncomplete
			}
			c.s = c.s[:c.pos] + strings.Repeat(" ", nl) + c.s[c.pos+nl:]
			continue
		case ch == '/' && strings.HasPrefix(c.s[c.pos:], "/*"):
			end := strings.Index(c.s[c.pos+2:], "*/")
			if end < 0 {
				return nil, errIncomplete
			}
			n := end + 4
			c.s = c.s[:c.pos] + strings.Repeat(" ", n) + c.s[c.pos+n:]
			continue
		case ch == '(':
			depth++
		case ch == ')':
			if depth == 0 {
				elements = append(elements, c.s[start:c.pos])
				c.pos++
				return elements, nil
			}
			depth--
		case ch == ',' && depth == 0:
			elements = append(elements, c.s[start:c.pos])
			start = c.pos + 1
		}
		c.pos++
	}
	return nil, errIncomplete
}

// parseCopyHeader parses "COPY table (cols) FROM stdin;". Columns is nil when
// the statement lists none.
func parseCopyHeader(text string) ([]string, []string, error) {
	c := &cursor{s: text, mode: escapeStandard}
	if !c.keyword("COPY") {
		return nil, nil, errNotData
	}

	table, err := c.qualifiedName()
	if err != nil {
		return nil, nil, errNotData
	}

	var columns []string
	c.skipSpace()
	if c.peek() == '(' {
		if columns, err = c.identList(); err != nil {
			return nil, nil, errNotData
		}
	}

	if !c.keyword("FROM") || !c.keyword("STDIN") {
		return nil, nil, errNotData
	}
	return table, columns, nil
}
