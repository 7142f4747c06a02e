// Package anonymize turns PII values into non-identifying substitutes.
//
// Every method is a pure function of its input (and the optional salt): fake
// values are chosen by a PRNG seeded from the SHA-256 digest of the original,
// so the same input yields the same substitute with or without a cache.
package anonymize

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/Veraticus/scrub-db/internal/model"
)

// Transformer applies anonymization methods to single values.
type Transformer struct {
	corpus *Corpus
	salt   []byte
}

// NewTransformer creates a transformer. The salt is mixed into every digest;
// an empty salt makes the hash method plain SHA-256.
func NewTransformer(salt string) *Transformer {
	return &Transformer{
		corpus: DefaultCorpus(),
		salt:   []byte(salt),
	}
}

// WithCorpus returns a copy of the transformer drawing from c.
func (t *Transformer) WithCorpus(c *Corpus) *Transformer {
	return &Transformer{corpus: c, salt: t.salt}
}

// Transform maps value to its substitute under method m.
func (t *Transformer) Transform(m model.Method, value string) string {
	switch m {
	case model.MethodFakeEmail:
		return t.FakeEmail(value)
	case model.MethodFakeName:
		return t.FakeName(value)
	case model.MethodFakePhone:
		return t.FakePhone(value)
	case model.MethodFakeAddress:
		return t.FakeAddress(value)
	case model.MethodMaskCreditCard:
		return MaskCreditCard(value)
	case model.MethodMaskSSN:
		return MaskSSN(value)
	case model.MethodHash:
		return t.Hash(value)
	default:
		return value
	}
}

func (t *Transformer) digest(value string) [sha256.Size]byte {
	h := sha256.New()
	h.Write(t.salt)
	h.Write([]byte(value))

	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Hash returns the hex encoded SHA-256 digest of the salted value.
func (t *Transformer) Hash(value string) string {
	sum := t.digest(value)
	return hex.EncodeToString(sum[:])
}

// rng returns a PRNG whose state depends only on the salted value.
func (t *Transformer) rng(value string) *rand.Rand {
	sum := t.digest(value)
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}

// FakeName returns a "First Last" name.
func (t *Transformer) FakeName(value string) string {
	rng := t.rng(value)
	return pick(rng, t.corpus.FirstNames) + " " + pick(rng, t.corpus.LastNames)
}

// FakeEmail returns an address under one of the reserved example domains.
func (t *Transformer) FakeEmail(value string) string {
	rng := t.rng(value)
	first := localPart(pick(rng, t.corpus.FirstNames))
	last := localPart(pick(rng, t.corpus.LastNames))
	n := rng.IntN(1000)
	domain := pick(rng, t.corpus.EmailDomains)

	return first + "." + last + strconv.Itoa(n) + "@" + domain
}

// FakePhone replaces every digit of value with a generated one, keeping the
// original punctuation. Values with too few digits to look like a phone
// number get a fresh 555 number instead.
func (t *Transformer) FakePhone(value string) string {
	rng := t.rng(value)

	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		return fmt.Sprintf("555-%03d-%04d", rng.IntN(1000), rng.IntN(10000))
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte('0' + rng.IntN(10)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FakeAddress returns a street address.
func (t *Transformer) FakeAddress(value string) string {
	rng := t.rng(value)
	number := 100 + rng.IntN(9900)
	return fmt.Sprintf("%d %s %s", number, pick(rng, t.corpus.StreetNames), pick(rng, t.corpus.StreetSuffixes))
}

// localPart lower-cases s and drops everything that is not a letter.
func localPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
