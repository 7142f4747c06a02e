// Package model defines the core domain types shared by the anonymization engine.
package model

import (
	"fmt"
	"strings"

	"github.com/Veraticus/scrub-db/internal/common"
)

// Method is the anonymization strategy applied to a single value.
type Method int

// Anonymization methods. The set is closed.
const (
	MethodSkip Method = iota
	MethodFakeEmail
	MethodFakeName
	MethodFakePhone
	MethodFakeAddress
	MethodMaskCreditCard
	MethodMaskSSN
	MethodHash
)

var methodNames = map[Method]string{
	MethodSkip:           "skip",
	MethodFakeEmail:      "fake_email",
	MethodFakeName:       "fake_name",
	MethodFakePhone:      "fake_phone",
	MethodFakeAddress:    "fake_address",
	MethodMaskCreditCard: "mask_credit_card",
	MethodMaskSSN:        "mask_ssn",
	MethodHash:           "hash",
}

// methodAliases maps every accepted configuration spelling to its method.
var methodAliases = map[string]Method{
	"fake_email":       MethodFakeEmail,
	"email":            MethodFakeEmail,
	"fake_name":        MethodFakeName,
	"name":             MethodFakeName,
	"fake_phone":       MethodFakePhone,
	"phone":            MethodFakePhone,
	"fake_address":     MethodFakeAddress,
	"address":          MethodFakeAddress,
	"mask_credit_card": MethodMaskCreditCard,
	"credit_card":      MethodMaskCreditCard,
	"mask_ssn":         MethodMaskSSN,
	"ssn":              MethodMaskSSN,
	"hash":             MethodHash,
	"skip":             MethodSkip,
}

// String returns the canonical configuration name of the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod resolves a configuration name to a Method. Unknown names are an
// error and never fall back to MethodSkip.
func ParseMethod(name string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return MethodSkip, fmt.Errorf("%w: %q", common.ErrUnresolvableMethod, name)
	}
	return m, nil
}

// MethodNames returns the canonical names of all methods in declaration order.
func MethodNames() []string {
	names := make([]string, 0, len(methodNames))
	for m := MethodSkip; m <= MethodHash; m++ {
		names = append(names, methodNames[m])
	}
	return names
}
