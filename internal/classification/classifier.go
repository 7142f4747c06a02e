// Package classification decides which PII category a column holds.
//
// Classification has two tiers. The column-name tier matches normalized column
// names against per-category tokens and always wins. The data tier matches a
// sample value against structural patterns and is consulted only when the name
// says nothing.
package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/Veraticus/scrub-db/internal/model"
)

// NameToken associates a column-name fragment with a category.
type NameToken struct {
	Category model.Category
	Token    string
	// WholeSegment requires the token to equal one separator-delimited part
	// of the column name instead of appearing anywhere in it.
	WholeSegment bool
}

// Pattern is a value pattern for the data tier.
type Pattern struct {
	Name       string
	Category   model.Category
	Regex      string
	Priority   int     // Higher priority patterns are checked first
	Confidence float64 // Confidence reported when the pattern matches (0.0-1.0)
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// Classifier implements the two-tier PII classification.
type Classifier struct {
	tokens   map[model.Category][]NameToken
	patterns []CompiledPattern
}

// NewClassifier creates a classifier from name tokens and value patterns.
func NewClassifier(tokens []NameToken, patterns []Pattern) (*Classifier, error) {
	byCategory := make(map[model.Category][]NameToken)
	for _, tok := range tokens {
		if tok.Token == "" {
			return nil, fmt.Errorf("empty name token for category %s", tok.Category)
		}
		tok.Token = strings.ToLower(tok.Token)
		byCategory[tok.Category] = append(byCategory[tok.Category], tok)
	}

	compiled := make([]CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr // Make case-insensitive by default
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regex,
		})
	}

	// Sort by priority (highest first)
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &Classifier{
		tokens:   byCategory,
		patterns: compiled,
	}, nil
}

// NewDefaultClassifier returns a classifier using the built-in tokens and patterns.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultNameTokens(), DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify classifies a column by its name and, when the name is not
// conclusive, by a sample value. An empty sample skips the data tier.
func (c *Classifier) Classify(column, sample string) model.Classification {
	if result := c.ClassifyColumn(column); result.IsPII() {
		return result
	}
	if sample == "" {
		return none()
	}
	return c.ClassifyValue(sample)
}

// ClassifyColumn runs the column-name tier only.
func (c *Classifier) ClassifyColumn(column string) model.Classification {
	normalized, segments := normalizeColumn(column)
	if normalized == "" {
		return none()
	}

	for _, category := range model.CategoryPriority {
		for _, tok := range c.tokens[category] {
			if tok.matches(normalized, segments) {
				return model.Classification{
					Category:   category,
					Confidence: NameTierConfidence,
					Tier:       model.TierName,
				}
			}
		}
	}

	return none()
}

// ClassifyValue runs the data tier only.
func (c *Classifier) ClassifyValue(value string) model.Classification {
	value = strings.TrimSpace(value)
	if value == "" {
		return none()
	}

	for _, pattern := range c.patterns {
		if pattern.compiledRegex.MatchString(value) {
			return model.Classification{
				Category:   pattern.Category,
				Confidence: pattern.Confidence,
				Tier:       model.TierData,
			}
		}
	}

	return none()
}

// GetPatternCount returns the number of loaded value patterns.
func (c *Classifier) GetPatternCount() int {
	return len(c.patterns)
}

func (t NameToken) matches(normalized string, segments []string) bool {
	if !t.WholeSegment {
		return strings.Contains(normalized, t.Token)
	}
	for _, seg := range segments {
		if seg == t.Token {
			return true
		}
	}
	return false
}

func none() model.Classification {
	return model.Classification{Category: model.CategoryNone}
}

// normalizeColumn lower-cases a column name, strips quoting and separators and
// also returns the separator-delimited segments.
func normalizeColumn(column string) (string, []string) {
	segments := strings.FieldsFunc(strings.ToLower(column), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(segments, ""), segments
}
