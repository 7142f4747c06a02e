package model

// Category is a kind of personally identifiable information.
type Category string

// PII categories. The set is closed.
const (
	CategoryNone       Category = "none"
	CategoryEmail      Category = "email"
	CategoryPhone      Category = "phone"
	CategoryName       Category = "name"
	CategoryAddress    Category = "address"
	CategoryCreditCard Category = "credit_card"
	CategorySSN        Category = "ssn"
)

// CategoryPriority is the order in which categories are tried when a column
// name matches more than one of them.
var CategoryPriority = []Category{
	CategoryEmail,
	CategorySSN,
	CategoryCreditCard,
	CategoryPhone,
	CategoryAddress,
	CategoryName,
}

// DefaultMethod returns the anonymization method used for the category when no
// explicit rule exists.
func (c Category) DefaultMethod() Method {
	switch c {
	case CategoryEmail:
		return MethodFakeEmail
	case CategoryPhone:
		return MethodFakePhone
	case CategoryName:
		return MethodFakeName
	case CategoryAddress:
		return MethodFakeAddress
	case CategoryCreditCard:
		return MethodMaskCreditCard
	case CategorySSN:
		return MethodMaskSSN
	default:
		return MethodSkip
	}
}

// Tier identifies which classification tier produced a result.
type Tier string

// Classification tiers.
const (
	TierNone Tier = ""
	TierName Tier = "column_name"
	TierData Tier = "data_pattern"
)

// Classification is the outcome of classifying a column. It is never mutated
// after creation.
type Classification struct {
	Category   Category
	Tier       Tier
	Confidence float64
}

// IsPII reports whether the classification found any PII.
func (c Classification) IsPII() bool {
	return c.Category != CategoryNone && c.Category != ""
}
