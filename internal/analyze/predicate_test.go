package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		sql  string
		want int
	}{
		{"", 0},
		{"id=?", 1},
		{"a=? AND b=?", 2},
		{"a=?AND b=?", 2},
		{"name = 'what?' AND id=?", 1},
		{"name = 'it''s?' OR id IN (?, ?)", 2},
		{`"odd?col" = ? AND [x?] = ? AND ` + "`y?`" + ` = ?`, 3},
		{"created_at DESC", 0},
		{"a=? -- and b=?", 1},
		{"a=? /* b=? */ AND c=?", 2},
		{"a=?-- ?\nAND b=?", 2},
		{"a - ? / 2 = ?", 2},
		{"?", 1},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			got, err := CountPlaceholders(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountPlaceholdersErrors(t *testing.T) {
	_, err := CountPlaceholders("id=?1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不支持编号占位符")

	for _, sql := range []string{"id=:id", "id=@id", "id=$1"} {
		_, err = CountPlaceholders(sql)
		require.Error(t, err, sql)
		assert.Contains(t, err.Error(), "不支持命名占位符")
	}

	_, err = CountPlaceholders("name = 'unterminated")
	require.Error(t, err)
}
