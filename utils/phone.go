package utils

import "strings"

// DefaultCountryCode is used when no code is configured.
const DefaultCountryCode = "+91"

func stripPhoneSeparators(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(phone))
}

// NormalizePhone returns phone in international form. Numbers that already
// start with '+' are kept; anything else gets countryCode prepended once.
// An empty input stays empty.
func NormalizePhone(phone, countryCode string) string {
	phone = stripPhoneSeparators(phone)
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if !strings.HasPrefix(countryCode, "+") {
		countryCode = "+" + countryCode
	}
	return countryCode + phone
}
