package anonymize

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Corpus holds the finite pools substitutes are drawn from.
type Corpus struct {
	FirstNames     []string `yaml:"first_names"`
	LastNames      []string `yaml:"last_names"`
	EmailDomains   []string `yaml:"email_domains"`
	StreetNames    []string `yaml:"street_names"`
	StreetSuffixes []string `yaml:"street_suffixes"`
}

// ParseCorpus decodes a corpus document and checks that every pool is populated.
func ParseCorpus(data []byte) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}

	pools := map[string][]string{
		"first_names":     c.FirstNames,
		"last_names":      c.LastNames,
		"email_domains":   c.EmailDomains,
		"street_names":    c.StreetNames,
		"street_suffixes": c.StreetSuffixes,
	}
	for name, pool := range pools {
		if len(pool) == 0 {
			return nil, fmt.Errorf("corpus pool %s is empty", name)
		}
	}

	return &c, nil
}

// defaultCorpus is the embedded corpus. A broken embedded file is a build
// defect, so it panics instead of returning an error.
var defaultCorpus = sync.OnceValue(func() *Corpus {
	c, err := ParseCorpus(corpusYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCorpus returns the corpus compiled into the binary.
func DefaultCorpus() *Corpus {
	return defaultCorpus()
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}
