package classification

import "github.com/Veraticus/scrub-db/internal/model"

// Confidence levels for each tier.
const (
	NameTierConfidence = 0.95
	DataTierConfidence = 0.80
)

// DefaultNameTokens returns the column-name tokens for every PII category.
func DefaultNameTokens() []NameToken {
	return []NameToken{
		{Category: model.CategoryEmail, Token: "email"},
		{Category: model.CategoryEmail, Token: "mail", WholeSegment: true},

		// "ssn" is short enough to appear inside unrelated words ("classname").
		{Category: model.CategorySSN, Token: "ssn", WholeSegment: true},
		{Category: model.CategorySSN, Token: "social"},

		{Category: model.CategoryCreditCard, Token: "card"},
		{Category: model.CategoryCreditCard, Token: "ccnumber"},
		{Category: model.CategoryCreditCard, Token: "ccnum"},

		{Category: model.CategoryPhone, Token: "phone"},
		{Category: model.CategoryPhone, Token: "mobile"},
		{Category: model.CategoryPhone, Token: "fax", WholeSegment: true},

		{Category: model.CategoryAddress, Token: "address"},
		{Category: model.CategoryAddress, Token: "street"},
		{Category: model.CategoryAddress, Token: "addr"},

		{Category: model.CategoryName, Token: "name"},
	}
}

// DefaultPatterns returns the value patterns used by the data tier.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:       "Email Address",
			Category:   model.CategoryEmail,
			Regex:      `^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`,
			Priority:   100,
			Confidence: DataTierConfidence,
		},
		{
			Name:       "Social Security Number",
			Category:   model.CategorySSN,
			Regex:      `^\d{3}-\d{2}-\d{4}$`,
			Priority:   90,
			Confidence: DataTierConfidence,
		},
		{
			Name:       "Card Number",
			Category:   model.CategoryCreditCard,
			Regex:      `^(?:\d{4}[ -]?){3}\d{4}$|^\d{4}[ -]?\d{6}[ -]?\d{5}$`,
			Priority:   80,
			Confidence: DataTierConfidence,
		},
		{
			Name:       "Phone Number",
			Category:   model.CategoryPhone,
			Regex:      `^(?:\+?\d{1,3}[ .-]?)?\(?\d{3}\)?[ .-]?\d{3}[ .-]?\d{4}$`,
			Priority:   70,
			Confidence: DataTierConfidence,
		},
	}
}
