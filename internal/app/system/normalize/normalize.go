// Package normalize canonicalizes user-supplied values before they are stored
// or compared.
package normalize

import "strings"

// Email trims and lowercases an email address. Stored emails are always in
// this form, which makes the unique index case-insensitive.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases a role string.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Gender trims and lowercases a gender value.
func Gender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone strips spaces and dashes from a phone number.
func Phone(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "\t", "")
	return r.Replace(strings.TrimSpace(s))
}

// QueryParam trims a query or form value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
