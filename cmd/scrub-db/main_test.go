package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scrub-db/internal/common"
)

const postgresDump = `SET statement_timeout = 0;
CREATE SEQUENCE users_id_seq;
CREATE TABLE public.users (
    id integer DEFAULT nextval('users_id_seq'::regclass),
    email text,
    note text
);
INSERT INTO public.users VALUES (1, 'alice@example.com', 'hello');
INSERT INTO public.users VALUES (2, 'alice@example.com', 'again');
`

const sqliteDump = `PRAGMA foreign_keys=OFF;
BEGIN TRANSACTION;
CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT);
INSERT INTO users VALUES (1, 'bob@example.org');
COMMIT;
`

type result struct {
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) (result, error) {
	t.Helper()

	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String()}, err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRewrite_FileToOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", postgresDump)
	output := filepath.Join(dir, "clean.sql")

	res, err := execute(t, "", input, "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	got := string(data)

	assert.NotContains(t, got, "alice@example.com")
	assert.Contains(t, got, "SET statement_timeout = 0;\n")
	assert.Contains(t, got, "'hello'")
	assert.Equal(t, strings.Count(postgresDump, "\n"), strings.Count(got, "\n"))
	assert.Contains(t, res.stderr, "postgresql")

	// Both rows share one substitute.
	var emails []string
	for _, line := range strings.Split(got, "\n") {
		rest, ok := strings.CutPrefix(line, "INSERT INTO public.users VALUES (")
		if !ok {
			continue
		}
		_, rest, _ = strings.Cut(rest, ", ")
		email, _, _ := strings.Cut(rest, ", '")
		emails = append(emails, email)
	}
	require.Len(t, emails, 2)
	assert.Equal(t, emails[0], emails[1])
}

func TestRewrite_StdinToStdout(t *testing.T) {
	res, err := execute(t, postgresDump)
	require.NoError(t, err)

	assert.NotContains(t, res.stdout, "alice@example.com")
	assert.Contains(t, res.stdout, "CREATE SEQUENCE users_id_seq;")
}

func TestRewrite_ExistingOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", postgresDump)
	output := writeFile(t, dir, "clean.sql", "keep me")

	_, err := execute(t, "", input, "--output", output)
	require.Error(t, err)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	_, err = execute(t, "", input, "--output", output, "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.NotEqual(t, "keep me", string(data))
}

func TestRewrite_UnknownDialectNeedsOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", "INSERT INTO t VALUES ('x');\n")

	_, err := execute(t, "", input)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAmbiguousDialect)
}

func TestRewrite_InvalidRule(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", postgresDump)
	cfg := writeFile(t, dir, "scrub-db.yaml", "custom_rules:\n  email: scramble\n")

	_, err := execute(t, "", input, "--config", cfg, "--output", filepath.Join(dir, "out.sql"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnresolvableMethod)
	assert.NoFileExists(t, filepath.Join(dir, "out.sql"))
}

func TestRewrite_ConfigRules(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", postgresDump)
	cfg := writeFile(t, dir, "scrub-db.yaml", "auto_detect: false\ncustom_rules:\n  users:\n    note: hash\n")
	output := filepath.Join(dir, "out.sql")

	_, err := execute(t, "", input, "--config", cfg, "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "alice@example.com", "email is not detected with auto_detect off")
	assert.NotContains(t, got, "'hello'")
}

func TestRewrite_SQLiteDatabase(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", sqliteDump)
	output := filepath.Join(dir, "clean.db")

	_, err := execute(t, "", input, "--dialect", "sqlite", "--output", output)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", output)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var email string
	require.NoError(t, db.QueryRow("SELECT email FROM users WHERE id = 1").Scan(&email))
	assert.NotEqual(t, "bob@example.org", email)
	assert.Contains(t, email, "@")
}

func TestRewrite_SQLiteOutputRequiresSQLiteDump(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", postgresDump)

	_, err := execute(t, "", input, "--output", filepath.Join(dir, "clean.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingOutputTarget)
}

func TestRewrite_OutDir(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.sql", postgresDump)
	second := writeFile(t, dir, "second.sql", strings.ReplaceAll(postgresDump, "alice", "carol"))
	outDir := filepath.Join(dir, "out")

	_, err := execute(t, "", first, second, "--out-dir", outDir, "--jobs", "2")
	require.NoError(t, err)

	for _, name := range []string{"first.sql", "second.sql"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.NotContains(t, string(data), "alice@example.com")
		assert.NotContains(t, string(data), "carol@example.com")
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "dump.sql", postgresDump)

	res, err := execute(t, "", "scan", input)
	require.NoError(t, err)

	assert.Contains(t, res.stdout, "users.email")
	assert.Contains(t, res.stdout, "email")
	assert.NoFileExists(t, "anonymized.sql")
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		target func(dir string) string
		want   string
	}{
		{
			name:   "dump file",
			target: func(dir string) string { return writeFile(t, dir, "dump.sql", postgresDump) },
			want:   "postgresql",
		},
		{
			name:   "connection url",
			target: func(string) string { return "mysql://root@localhost:3306/app" },
			want:   "mysql",
		},
		{
			name:   "libpq keywords",
			target: func(string) string { return "host=localhost dbname=app user=me" },
			want:   "postgresql",
		},
		{
			name:   "unknown",
			target: func(string) string { return "nothing-to-see" },
			want:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := execute(t, "", "detect", tt.target(t.TempDir()))
			require.NoError(t, err)
			assert.Contains(t, res.stdout, tt.want)
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrub-db.yaml")

	res, err := execute(t, "", "init", path)
	require.NoError(t, err)
	assert.Contains(t, res.stdout, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom_rules:")

	_, err = execute(t, "", "init", path)
	require.Error(t, err)

	_, err = execute(t, "", "init", path, "--force")
	require.NoError(t, err)

	// The written file is a valid configuration.
	input := writeFile(t, filepath.Dir(path), "dump.sql", postgresDump)
	_, err = execute(t, "", input, "--config", path, "--output", filepath.Join(filepath.Dir(path), "out.sql"))
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	res, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "scrub-db dev\n", res.stdout)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, postgresDump, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
