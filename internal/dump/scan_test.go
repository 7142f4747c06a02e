package dump

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scrub-db/internal/model"
)

func TestScan(t *testing.T) {
	input := "CREATE TABLE users (id integer, email text, phone text, note text);\n" +
		"INSERT INTO users VALUES (1, 'a@example.com', '555-123-4567', 'hello');\n" +
		"INSERT INTO users VALUES (2, 'b@example.com', NULL, '123-45-6789');\n" +
		"INSERT INTO users VALUES (3, NULL, NULL, 'plain');\n" +
		"INSERT INTO missing VALUES (1, 'x');\n"

	opts := optionsFor(model.DatabasePostgreSQL)
	// Scans ignore rules.
	opts.Rules = map[string]model.Method{"email": model.MethodSkip}

	report, err := Scan(context.Background(), strings.NewReader(input), opts)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Lines)
	assert.Equal(t, 4, report.DataLines)
	assert.Equal(t, 1, report.MissingContext)
	assert.Equal(t, map[model.Category]int{
		model.CategoryEmail: 2,
		model.CategoryPhone: 1,
		model.CategorySSN:   1,
	}, report.Categories)

	require.Len(t, report.Columns, 3)
	assert.Equal(t, "email", report.Columns[0].Column)
	assert.Equal(t, model.TierName, report.Columns[0].Classification.Tier)
	assert.Equal(t, 2, report.Columns[0].Values)

	assert.Equal(t, "note", report.Columns[1].Column)
	assert.Equal(t, model.CategorySSN, report.Columns[1].Classification.Category)
	assert.Equal(t, model.TierData, report.Columns[1].Classification.Tier)
	assert.InDelta(t, 0.80, report.Columns[1].Classification.Confidence, 0.001)

	assert.Equal(t, "phone", report.Columns[2].Column)
}

func TestScan_RejectsInvalidRules(t *testing.T) {
	opts := DefaultOptions()
	opts.Rules = map[string]model.Method{"email": model.Method(99)}

	_, err := Scan(context.Background(), strings.NewReader(""), opts)
	assert.Error(t, err)
}

func TestScan_CountsPhysicalLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[model.Category]int
	}{
		{
			name: "tuples on separate lines",
			input: "CREATE TABLE users (id integer, email text, phone text);\n" +
				"INSERT INTO users VALUES (1,'a@example.com','555-123-4567'),\n" +
				"(2,'b@example.com','555-123-4568');\n",
			want: map[model.Category]int{model.CategoryEmail: 2, model.CategoryPhone: 2},
		},
		{
			name: "statements sharing a line",
			input: "CREATE TABLE users (id integer, email text, phone text);\n" +
				"INSERT INTO users VALUES (1,'a@example.com',NULL); INSERT INTO users VALUES (2,'b@example.com',NULL);\n",
			want: map[model.Category]int{model.CategoryEmail: 1},
		},
		{
			name: "literal spanning lines",
			input: "CREATE TABLE users (id integer, email text, phone text);\n" +
				"INSERT INTO users VALUES (1,'a@example.com','555-\n" +
				"123-4567'), (2, NULL,\n" +
				"'555-987-6543');\n",
			want: map[model.Category]int{model.CategoryEmail: 1, model.CategoryPhone: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Scan(context.Background(), strings.NewReader(tt.input), optionsFor(model.DatabasePostgreSQL))
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Categories)
		})
	}
}
