package utils

import "strings"

// NormalizeDescription lowercases a description, collapses internal whitespace
// and trims the ends. Used as part of the natural dedup key for sources that
// provide no stable external id.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
