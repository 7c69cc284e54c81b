package persistence

import (
	"strings"
)

// PropertySortFields are the columns a property search may order by
var PropertySortFields = map[string]bool{
	"created_at":  true,
	"price":       true,
	"bedrooms":    true,
	"square_feet": true,
	"title":       true,
}

// ValidateSortOrder normalises dir to ASC or DESC, defaulting to DESC
func ValidateSortOrder(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns field when it is whitelisted, otherwise fallback.
// Matching is exact so user input never reaches ORDER BY unchecked.
func ValidateSortField(field string, allowed map[string]bool, fallback string) string {
	if f := strings.TrimSpace(field); allowed[f] {
		return f
	}
	return fallback
}

// orderClause builds a safe ORDER BY expression from user input
func orderClause(field, dir string, allowed map[string]bool, fallback string) string {
	return ValidateSortField(field, allowed, fallback) + " " + ValidateSortOrder(dir)
}
