package domain

import (
	"regexp"
	"sort"
	"strings"
)

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// IsCurrencyCode reports whether code is a three-letter uppercase ISO-4217 style code.
func IsCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// CurrencySet is a read-only set of currency codes.
// The zero value is an empty set.
type CurrencySet struct {
	codes map[string]struct{}
}

// NewCurrencySet builds a set from the given codes. Codes are trimmed and upper-cased; blanks are dropped.
func NewCurrencySet(codes ...string) CurrencySet {
	set := CurrencySet{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		set.codes[code] = struct{}{}
	}
	return set
}

// Contains reports whether code is a member of the set.
func (s CurrencySet) Contains(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Len returns the number of codes in the set.
func (s CurrencySet) Len() int {
	return len(s.codes)
}

// Codes returns the members in sorted order.
func (s CurrencySet) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for code := range s.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
