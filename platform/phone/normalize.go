// Package phone normalizes scraped phone numbers to E.164.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when neither the number nor the location names a country.
const DefaultRegion = "US"

var countryRegions = map[string]string{
	"united states":  "US",
	"usa":            "US",
	"united kingdom": "GB",
	"uk":             "GB",
	"england":        "GB",
	"germany":        "DE",
	"deutschland":    "DE",
	"france":         "FR",
	"netherlands":    "NL",
	"spain":          "ES",
	"italy":          "IT",
	"canada":         "CA",
	"australia":      "AU",
	"india":          "IN",
	"ireland":        "IE",
	"singapore":      "SG",
}

// NormalizeE164 formats a phone number to E.164 using DefaultRegion for
// national numbers. Unparseable input is returned trimmed.
func NormalizeE164(input string) string {
	return NormalizeE164InRegion(input, DefaultRegion)
}

// NormalizeForLocation is NormalizeE164 with the fallback region taken from
// a free-text location such as "Berlin, Germany" or "Austin, TX, US".
func NormalizeForLocation(input string, location *string) string {
	region := DefaultRegion
	if location != nil {
		if r, ok := RegionFromLocation(*location); ok {
			region = r
		}
	}
	return NormalizeE164InRegion(input, region)
}

// NormalizeE164InRegion is NormalizeE164 with an explicit fallback region.
func NormalizeE164InRegion(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// RegionFromLocation resolves the last comma-separated part of a location to
// a CLDR region code. Two-letter parts are accepted when libphonenumber knows
// the region.
func RegionFromLocation(location string) (string, bool) {
	parts := strings.Split(location, ",")
	last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if last == "" {
		return "", false
	}
	if region, ok := countryRegions[last]; ok {
		return region, true
	}
	if len(last) == 2 {
		region := strings.ToUpper(last)
		if phonenumbers.GetCountryCodeForRegion(region) != 0 {
			return region, true
		}
	}
	return "", false
}
