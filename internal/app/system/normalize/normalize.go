// internal/app/system/normalize/normalize.go

// Package normalize provides canonical string forms for fields that are
// compared or looked up: trim everywhere, case-fold where the field is
// case-insensitive.
package normalize

import "strings"

// Email lowercases and trims an email address. Emails are unique keys, so
// every read and write path must pass through here.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved; the _ci companion fields
// handle fold-insensitive search.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tag lowercases and trims a free-form grouping tag (department, location,
// methodology) so rollup keys collate.
func Tag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
