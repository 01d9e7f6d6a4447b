package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateLogQuery(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "japanese error keyword",
			text: "エラーログを検索",
			want: "fields @timestamp, @message | filter @message like /ERROR/ | sort @timestamp desc",
		},
		{
			name: "english error keyword is case insensitive",
			text: "Show me ERROR lines",
			want: "fields @timestamp, @message | filter @message like /ERROR/ | sort @timestamp desc",
		},
		{
			name: "error wins over warning",
			text: "errors and warnings",
			want: "fields @timestamp, @message | filter @message like /ERROR/ | sort @timestamp desc",
		},
		{
			name: "japanese warning keyword",
			text: "警告を含むログ",
			want: "fields @timestamp, @message | filter @message like /WARN/ | sort @timestamp desc",
		},
		{
			name: "warn keyword",
			text: "recent warn entries",
			want: "fields @timestamp, @message | filter @message like /WARN/ | sort @timestamp desc",
		},
		{
			name: "contains uses last long word",
			text: "logs that contains timeout",
			want: "fields @timestamp, @message | filter @message like /timeout/ | sort @timestamp desc",
		},
		{
			name: "contains keeps original case",
			text: "contains OrderService",
			want: "fields @timestamp, @message | filter @message like /OrderService/ | sort @timestamp desc",
		},
		{
			name: "contains skips short trailing words",
			text: "contains payment id x",
			want: "fields @timestamp, @message | filter @message like /payment/ | sort @timestamp desc",
		},
		{
			name: "no keyword falls back to recent logs",
			text: "show me everything",
			want: "fields @timestamp, @message | sort @timestamp desc | limit 100",
		},
		{
			name: "empty text",
			text: "",
			want: "fields @timestamp, @message | sort @timestamp desc | limit 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateLogQuery(tt.text))
		})
	}
}

func TestTranslateLogQuery_ContainsWithoutLongWord(t *testing.T) {
	// "含む" matches but no word is long enough, so the default applies.
	assert.Equal(t,
		"fields @timestamp, @message | sort @timestamp desc | limit 100",
		TranslateLogQuery("含む"),
	)
}

func TestTranslateSQLQuery(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		table string
		want  string
	}{
		{
			name:  "japanese count",
			text:  "ユーザー数を教えて",
			table: "users",
			want:  "SELECT COUNT(*) as count FROM users",
		},
		{
			name:  "count with default table",
			text:  "count rows",
			table: "",
			want:  "SELECT COUNT(*) as count FROM users",
		},
		{
			name:  "latest",
			text:  "最新のデータを取得",
			table: "orders",
			want:  "SELECT * FROM orders ORDER BY created_at DESC LIMIT 10",
		},
		{
			name:  "all",
			text:  "一覧を表示",
			table: "orders",
			want:  "SELECT * FROM orders LIMIT 100",
		},
		{
			name:  "count wins over latest",
			text:  "latest count",
			table: "orders",
			want:  "SELECT COUNT(*) as count FROM orders",
		},
		{
			name:  "default",
			text:  "show orders",
			table: "orders",
			want:  "SELECT * FROM orders LIMIT 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateSQLQuery(tt.text, tt.table))
		})
	}
}

func TestIsCountQuery(t *testing.T) {
	assert.True(t, IsCountQuery("データ件数を確認"))
	assert.True(t, IsCountQuery("COUNT items"))
	assert.False(t, IsCountQuery("最新のレコードを取得"))
	// "数" alone is a SQL count keyword but not a document store one.
	assert.False(t, IsCountQuery("ユーザー数"))
}

func TestRuleLists_EndWithCatchAll(t *testing.T) {
	for name, rules := range map[string][]Rule{"logs": LogRules(), "sql": SQLRules()} {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, rules)
			last := rules[len(rules)-1]
			assert.Empty(t, last.Keywords)
			assert.True(t, last.Matches("anything at all"))
		})
	}
}

func TestApply_ReportsRuleName(t *testing.T) {
	_, rule := Apply(LogRules(), "warning spike", "")
	assert.Equal(t, "warning", rule)

	_, rule = Apply(SQLRules(), "全てのユーザー", "users")
	assert.Equal(t, "all", rule)
}

func TestLogRules_ReturnsCopy(t *testing.T) {
	rules := LogRules()
	rules[0] = Rule{Name: "mutated"}
	assert.Equal(t, "error", LogRules()[0].Name)
}

func TestValidTableName(t *testing.T) {
	tests := []struct {
		table string
		want  bool
	}{
		{table: "", want: true},
		{table: "users", want: true},
		{table: "public.users", want: true},
		{table: "_audit_2025", want: true},
		{table: "2025_users", want: false},
		{table: "users; DROP TABLE users", want: false},
		{table: "users--", want: false},
		{table: `"users"`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTableName(tt.table))
		})
	}
}
