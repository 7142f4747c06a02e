package anonymize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/Veraticus/scrub-db/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailShape = regexp.MustCompile(`^[a-z]+\.[a-z]+\d{1,3}@[a-z.]+$`)

func TestMaskCreditCard(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "dashed groups", input: "4532-1234-5678-9010", want: "****-****-****-9010"},
		{name: "spaced groups", input: "4532 1234 5678 9010", want: "**** **** **** 9010"},
		{name: "digits only", input: "4532123456789010", want: "************9010"},
		{name: "amex grouping", input: "3782-822463-10005", want: "****-******-*0005"},
		{name: "exactly four digits", input: "1234", want: "1234"},
		{name: "fewer than four digits", input: "12-3", want: "**-*"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskCreditCard(tt.input))
		})
	}
}

func TestMaskSSN(t *testing.T) {
	assert.Equal(t, "***-**-****", MaskSSN("123-45-6789"))
	assert.Equal(t, "*********", MaskSSN("123456789"))
	assert.Equal(t, "*** ** ****", MaskSSN("123 45 6789"))
}

func TestHash(t *testing.T) {
	tr := NewTransformer("")

	got := tr.Hash("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)
	assert.Len(t, tr.Hash("a much longer input value that still hashes to 64 chars"), 64)

	salted := NewTransformer("pepper")
	assert.NotEqual(t, got, salted.Hash("hello"))
	assert.Equal(t, salted.Hash("hello"), NewTransformer("pepper").Hash("hello"))
}

func TestTransformDeterministic(t *testing.T) {
	methods := []model.Method{
		model.MethodFakeEmail,
		model.MethodFakeName,
		model.MethodFakePhone,
		model.MethodFakeAddress,
		model.MethodHash,
	}
	inputs := []string{"john.doe@example.com", "Jane Smith", "555-867-5309", "1 Infinite Loop", ""}

	for _, m := range methods {
		for _, in := range inputs {
			first := NewTransformer("").Transform(m, in)
			second := NewTransformer("").Transform(m, in)
			assert.Equal(t, first, second, "method %s input %q", m, in)
		}
	}
}

func TestSkipIsIdentity(t *testing.T) {
	tr := NewTransformer("salt")
	for _, in := range []string{"", "x", "john@example.com", "O'Brien", "line\nbreak"} {
		assert.Equal(t, in, tr.Transform(model.MethodSkip, in))
	}
}

func TestFakeEmail(t *testing.T) {
	tr := NewTransformer("")

	got := tr.FakeEmail("john.doe@example.com")
	assert.Regexp(t, emailShape, got)
	assert.NotContains(t, got, "'")
	assert.NotEqual(t, got, tr.FakeEmail("jane.roe@example.com"))
}

func TestFakeName(t *testing.T) {
	tr := NewTransformer("")
	c := DefaultCorpus()

	parts := strings.SplitN(tr.FakeName("Jane Smith"), " ", 2)
	require.Len(t, parts, 2)
	assert.Contains(t, c.FirstNames, parts[0])
	assert.Contains(t, c.LastNames, parts[1])
}

func TestFakePhone(t *testing.T) {
	tr := NewTransformer("")

	t.Run("keeps punctuation", func(t *testing.T) {
		in := "(555) 867-5309"
		got := tr.FakePhone(in)
		require.Len(t, got, len(in))
		for i := range in {
			if isDigit(rune(in[i])) {
				assert.True(t, isDigit(rune(got[i])), "position %d", i)
			} else {
				assert.Equal(t, in[i], got[i], "position %d", i)
			}
		}
	})

	t.Run("short values get a 555 number", func(t *testing.T) {
		assert.Regexp(t, `^555-\d{3}-\d{4}$`, tr.FakePhone("ext 12"))
	})
}

func TestFakeAddress(t *testing.T) {
	got := NewTransformer("").FakeAddress("1600 Pennsylvania Ave")
	assert.Regexp(t, `^\d{3,4} [A-Za-z]+ [A-Za-z]+$`, got)
}

func TestParseCorpus(t *testing.T) {
	t.Run("embedded corpus is valid", func(t *testing.T) {
		c, err := ParseCorpus(corpusYAML)
		require.NoError(t, err)
		assert.NotEmpty(t, c.FirstNames)
		assert.NotEmpty(t, c.EmailDomains)
	})

	t.Run("empty pool is rejected", func(t *testing.T) {
		_, err := ParseCorpus([]byte("first_names: [A]\nlast_names: [B]\nemail_domains: []\nstreet_names: [C]\nstreet_suffixes: [D]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email_domains")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseCorpus([]byte("first_names: [unterminated"))
		require.Error(t, err)
	})

	t.Run("custom corpus drives output", func(t *testing.T) {
		c, err := ParseCorpus([]byte("first_names: [Ada]\nlast_names: [Lovelace]\nemail_domains: [example.com]\nstreet_names: [Main]\nstreet_suffixes: [St]\n"))
		require.NoError(t, err)

		tr := NewTransformer("").WithCorpus(c)
		assert.Equal(t, "Ada Lovelace", tr.FakeName("anyone"))
		assert.Regexp(t, `^ada\.lovelace\d{1,3}@example\.com$`, tr.FakeEmail("anyone@example.org"))
		assert.Regexp(t, `^\d{3,4} Main St$`, tr.FakeAddress("anywhere"))
	})
}
