// Package translate turns short free-text requests into canned backend queries.
//
// Translation is a closed lookup: each backend has an ordered list of rules,
// every rule owns a keyword set, and the first rule whose keywords appear in
// the lower-cased text builds the query. The last rule of every list has no
// keywords and always matches.
package translate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultTable is used for SQL translation when no table is supplied.
const DefaultTable = "users"

// Rule maps a keyword set to a query template.
type Rule struct {
	Name     string
	Keywords []string
	// Build renders the query. It returns false when the rule matched on
	// keywords but cannot produce a query, in which case evaluation continues.
	Build func(text, table string) (string, bool)
}

// Matches reports whether any of the rule's keywords occur in text.
// A rule without keywords matches everything.
func (r Rule) Matches(text string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

const (
	logsErrorQuery   = "fields @timestamp, @message | filter @message like /ERROR/ | sort @timestamp desc"
	logsWarnQuery    = "fields @timestamp, @message | filter @message like /WARN/ | sort @timestamp desc"
	logsFilterFormat = "fields @timestamp, @message | filter @message like /%s/ | sort @timestamp desc"
	logsRecentQuery  = "fields @timestamp, @message | sort @timestamp desc | limit 100"
)

var logRules = []Rule{
	{
		Name:     "error",
		Keywords: []string{"エラー", "error"},
		Build:    fixed(logsErrorQuery),
	},
	{
		Name:     "warning",
		Keywords: []string{"警告", "warning", "warn"},
		Build:    fixed(logsWarnQuery),
	},
	{
		Name:     "contains",
		Keywords: []string{"含む", "contains"},
		Build: func(text, _ string) (string, bool) {
			keyword := lastLongWord(text)
			if keyword == "" {
				return "", false
			}
			return fmt.Sprintf(logsFilterFormat, keyword), true
		},
	},
	{
		Name:  "recent",
		Build: fixed(logsRecentQuery),
	},
}

var sqlRules = []Rule{
	{
		Name:     "count",
		Keywords: []string{"件数", "count", "数"},
		Build: func(_, table string) (string, bool) {
			return fmt.Sprintf("SELECT COUNT(*) as count FROM %s", table), true
		},
	},
	{
		Name:     "latest",
		Keywords: []string{"最新", "latest", "新しい"},
		Build: func(_, table string) (string, bool) {
			return fmt.Sprintf("SELECT * FROM %s ORDER BY created_at DESC LIMIT 10", table), true
		},
	},
	{
		Name:     "all",
		Keywords: []string{"全て", "all", "一覧"},
		Build: func(_, table string) (string, bool) {
			return fmt.Sprintf("SELECT * FROM %s LIMIT 100", table), true
		},
	},
	{
		Name: "default",
		Build: func(_, table string) (string, bool) {
			return fmt.Sprintf("SELECT * FROM %s LIMIT 10", table), true
		},
	},
}

var documentCountRule = Rule{
	Name:     "count",
	Keywords: []string{"件数", "count"},
}

func fixed(query string) func(string, string) (string, bool) {
	return func(string, string) (string, bool) {
		return query, true
	}
}

// lastLongWord returns the last whitespace-separated word of text that is
// longer than two characters, or "" if there is none.
func lastLongWord(text string) string {
	words := strings.Fields(text)
	for i := len(words) - 1; i >= 0; i-- {
		if utf8.RuneCountInString(words[i]) > 2 {
			return words[i]
		}
	}
	return ""
}

// LogRules returns a copy of the CloudWatch Logs Insights rule list.
func LogRules() []Rule {
	return append([]Rule(nil), logRules...)
}

// SQLRules returns a copy of the SQL rule list.
func SQLRules() []Rule {
	return append([]Rule(nil), sqlRules...)
}
