package dump

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scrub-db/internal/common"
)

func collect(t *testing.T, input string) ([]string, error) {
	t.Helper()

	var stmts []string
	err := SplitStatements(context.Background(), strings.NewReader(input), func(stmt string) error {
		stmts = append(stmts, stmt)
		return nil
	})
	return stmts, err
}

func TestSplitStatements(t *testing.T) {
	input := `PRAGMA foreign_keys=OFF;
BEGIN TRANSACTION;
-- a comment
CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT);
INSERT INTO t VALUES(1,'one;
two'); INSERT INTO t VALUES(2,'it''s');
CREATE TRIGGER t_ins AFTER INSERT ON t BEGIN
  UPDATE t SET body = 'x' WHERE id = NEW.id;
END;
COMMIT;
`
	stmts, err := collect(t, input)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PRAGMA foreign_keys=OFF;",
		"BEGIN TRANSACTION;",
		"CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT);",
		"INSERT INTO t VALUES(1,'one;\ntwo');",
		"INSERT INTO t VALUES(2,'it''s');",
		"CREATE TRIGGER t_ins AFTER INSERT ON t BEGIN\n  UPDATE t SET body = 'x' WHERE id = NEW.id;\nEND;",
		"COMMIT;",
	}, stmts)
}

func TestSplitStatements_Truncated(t *testing.T) {
	_, err := collect(t, "INSERT INTO t VALUES (1, 'never closed\n")
	assert.ErrorIs(t, err, common.ErrTruncatedDump)
}

func TestSplitStatements_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	err := SplitStatements(context.Background(), strings.NewReader("SELECT 1;\nSELECT 2;\n"), func(string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
