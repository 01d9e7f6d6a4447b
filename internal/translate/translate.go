package translate

import "regexp"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidTableName reports whether table can be placed into SQL verbatim.
// The empty name is valid and resolves to DefaultTable.
func ValidTableName(table string) bool {
	return table == "" || tableNamePattern.MatchString(table)
}

// Apply evaluates rules in order against text and returns the first query
// produced along with the name of the rule that built it.
func Apply(rules []Rule, text, table string) (query string, rule string) {
	for _, r := range rules {
		if !r.Matches(text) {
			continue
		}
		if q, ok := r.Build(text, table); ok {
			return q, r.Name
		}
	}
	return "", ""
}

// TranslateLogQuery converts free text into a CloudWatch Logs Insights query.
func TranslateLogQuery(text string) string {
	query, _ := Apply(logRules, text, "")
	return query
}

// TranslateSQLQuery converts free text into a SELECT against table.
// An empty table resolves to DefaultTable.
func TranslateSQLQuery(text, table string) string {
	if table == "" {
		table = DefaultTable
	}
	query, _ := Apply(sqlRules, text, table)
	return query
}

// IsCountQuery reports whether a document store request asks for a count
// rather than items.
func IsCountQuery(text string) bool {
	return documentCountRule.Matches(text)
}
