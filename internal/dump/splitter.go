package dump

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Veraticus/scrub-db/internal/common"
)

var (
	triggerHeader = regexp.MustCompile(`(?i)^\s*CREATE\s+(?:TEMP\s+|TEMPORARY\s+)?TRIGGER\b`)
	triggerEnd    = regexp.MustCompile(`(?i)\bEND\s*;$`)
)

// SplitStatements reads SQLite dump text from r and calls fn with each
// complete statement, terminator included. Comment-only and blank text
// between statements is skipped. Trigger bodies are kept whole.
func SplitStatements(ctx context.Context, r io.Reader, fn func(stmt string) error) error {
	src := &lineSource{r: bufio.NewReader(r)}
	var buf strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := src.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read statements: %w", err)
		}

		if buf.Len() == 0 && isBlankOrComment(line) {
			continue
		}
		buf.WriteString(line)
		if !strings.Contains(line, ";") {
			continue
		}

		text := buf.String()
		from := 0
		for {
			end, err := findTerminator(text, from, escapeStandard)
			if errors.Is(err, errIncomplete) {
				break
			}
			if err != nil {
				return err
			}

			stmt := text[:end+1]
			if triggerHeader.MatchString(stmt) && !triggerEnd.MatchString(strings.TrimSpace(stmt)) {
				from = end + 1
				continue
			}

			if err := fn(strings.TrimSpace(stmt)); err != nil {
				return err
			}
			text, from = strings.TrimLeft(text[end+1:], " \t\r\n"), 0
			if isBlankOrComment(text) {
				text = ""
			}
		}
		buf.Reset()
		buf.WriteString(text)
	}

	if rest := strings.TrimSpace(buf.String()); rest != "" {
		return fmt.Errorf("%w: %.40q", common.ErrTruncatedDump, rest)
	}
	return nil
}

func isBlankOrComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "--")
}
