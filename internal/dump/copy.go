package dump

import "strings"

// copyEnd is the line that closes a COPY ... FROM stdin block.
const copyEnd = `\.`

// copyNull is the NULL marker of the COPY text format.
const copyNull = `\N`

// splitLineEnding separates a line from its trailing "\n" or "\r\n".
func splitLineEnding(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}

// decodeCopyField undoes COPY text escaping. Octal and hex escapes are
// reported as undecodable.
func decodeCopyField(field string) (string, bool) {
	if !strings.Contains(field, `\`) {
		return field, true
	}

	var b strings.Builder
	b.Grow(len(field))
	for i := 0; i < len(field); i++ {
		ch := field[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(field) {
			return "", false
		}

		i++
		switch next := field[i]; {
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
		case next == 'v':
			b.WriteByte('\v')
		case next == 'x', next >= '0' && next <= '7':
			return "", false
		default:
			b.WriteByte(next)
		}
	}
	return b.String(), true
}

var copyEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\v", `\v`,
)

// encodeCopyField escapes s for the COPY text format.
func encodeCopyField(s string) string {
	return copyEscaper.Replace(s)
}
