package anonymize

import (
	"github.com/Veraticus/scrub-db/internal/model"
)

// Anonymizer combines a Transformer with a session Cache.
type Anonymizer struct {
	transformer *Transformer
	cache       *Cache
}

// NewAnonymizer creates an anonymizer for one session. When preserve is false
// the cache is bypassed and every value is transformed on its own.
func NewAnonymizer(t *Transformer, preserve bool) *Anonymizer {
	a := &Anonymizer{transformer: t}
	if preserve {
		a.cache = NewCache()
	}
	return a
}

// Anonymize returns the substitute for value under method m.
func (a *Anonymizer) Anonymize(value string, m model.Method) string {
	if m == model.MethodSkip {
		return value
	}
	if a.cache == nil {
		return a.transformer.Transform(m, value)
	}
	return a.cache.GetOrCreate(m, value, func() string {
		return a.transformer.Transform(m, value)
	})
}

// CacheSize returns the number of distinct substitutes held by the session,
// zero when relationships are not preserved.
func (a *Anonymizer) CacheSize() int {
	if a.cache == nil {
		return 0
	}
	return a.cache.Len()
}
