package services

import "strings"

// SearchLimit caps prefix searches
const SearchLimit = 10

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching q anywhere
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// prefixPattern builds a case-insensitive LIKE pattern matching values starting with q
func prefixPattern(q string) string {
	return likeEscaper.Replace(strings.ToLower(q)) + "%"
}

func clampLimit(limit int) int {
	if limit < 1 || limit > SearchLimit {
		return SearchLimit
	}
	return limit
}

// searchColumn maps the public field name of a prefix search to its column
func searchColumn(field string, columns map[string]string) (string, error) {
	if field == "" {
		field = "name"
	}
	col, ok := columns[field]
	if !ok {
		return "", &ValidationError{Field: "field", Message: "must be code or name"}
	}
	return col, nil
}
