package models

import (
	"fmt"
	"strings"
)

// CountryCode is an ISO 3166-1 alpha-2 code for a supported country.
type CountryCode string

// Supported countries.
const (
	CountryGB CountryCode = "GB"
	CountryUS CountryCode = "US"
	CountrySE CountryCode = "SE"
)

// LanguageCode identifies a supported UI language.
type LanguageCode string

const (
	LanguageEN LanguageCode = "en"
	LanguageSV LanguageCode = "sv"
	LanguageES LanguageCode = "es"
)

// IsValidCountry reports whether c is one of the supported countries.
func IsValidCountry(c CountryCode) bool {
	switch c {
	case CountryGB, CountryUS, CountrySE:
		return true
	default:
		return false
	}
}

// ParseCountry normalizes s into a supported CountryCode.
func ParseCountry(s string) (CountryCode, error) {
	c := CountryCode(strings.ToUpper(strings.TrimSpace(s)))
	if !IsValidCountry(c) {
		return "", fmt.Errorf("unsupported country %q", s)
	}
	return c, nil
}
