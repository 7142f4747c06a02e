package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
)

func TestRenderScanReport(t *testing.T) {
	report := &dump.Report{
		Dialect:   dialect.Result{Type: model.DatabasePostgreSQL, Tier: dialect.TierSyntax},
		Lines:     12,
		DataLines: 4,
		Categories: map[model.Category]int{
			model.CategoryEmail: 3,
			model.CategorySSN:   1,
		},
		Columns: []dump.Finding{
			{
				Table:          "public.users",
				Column:         "email",
				Classification: model.Classification{Category: model.CategoryEmail, Tier: model.TierName, Confidence: 0.95},
				Values:         3,
			},
		},
		Unparseable: 2,
	}

	out := RenderScanReport("dump.sql", report)

	assert.Contains(t, out, "PII scan: dump.sql")
	assert.Contains(t, out, "postgresql")
	assert.Contains(t, out, "12 lines, 4 data lines")
	assert.Contains(t, out, "fake_email")
	assert.Contains(t, out, "mask_ssn")
	assert.Contains(t, out, "public.users.email")
	assert.Contains(t, out, "0.95")
	assert.Contains(t, out, "2 unparseable")
	assert.Less(t, strings.Index(out, "email"), strings.Index(out, "ssn"))
}

func TestRenderScanReport_NoPII(t *testing.T) {
	out := RenderScanReport("stdin", &dump.Report{Categories: map[model.Category]int{}})

	assert.Contains(t, out, "No PII found")
	assert.NotContains(t, out, "Columns")
}

func TestRenderSummary(t *testing.T) {
	stats := dump.Stats{
		Dialect:     dialect.Result{Type: model.DatabaseMySQL, Tier: dialect.TierSyntax},
		Lines:       100,
		Rows:        40,
		Values:      55,
		CacheSize:   20,
		Unparseable: 1,
	}

	out := RenderSummary("users.sql", "out/users.sql", stats)

	assert.Contains(t, out, "users.sql")
	assert.Contains(t, out, "out/users.sql")
	assert.Contains(t, out, "55")
	assert.Contains(t, out, "1 statements passed through unchanged")

	clean := RenderSummary("users.sql", "", dump.Stats{})
	assert.NotContains(t, clean, "passed through")
	assert.NotContains(t, clean, "Output:")
}

func TestRenderDetection(t *testing.T) {
	out := RenderDetection("dump.sql", dialect.Result{
		Type:       model.DatabaseSQLite,
		Tier:       dialect.TierSyntax,
		Indicators: []string{"PRAGMA", "AUTOINCREMENT"},
	})
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "AUTOINCREMENT, PRAGMA")
	assert.Contains(t, out, "anonymized.db")

	unknown := RenderDetection("dump.sql", dialect.Result{Type: model.DatabaseUnknown, Tier: dialect.TierFallback})
	assert.Contains(t, unknown, "No default output")
}

func TestNewProgressReader(t *testing.T) {
	var progress bytes.Buffer
	input := strings.Repeat("x", 4096)

	r, finish := NewProgressReader(strings.NewReader(input), int64(len(input)), "Scrubbing", &progress)
	data, err := io.ReadAll(r)
	finish()

	require.NoError(t, err)
	assert.Equal(t, input, string(data))
	assert.Contains(t, progress.String(), "Scrubbing")
}
