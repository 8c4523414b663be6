package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", `["a","b"]`, `["a","b"]`},
		{"Json Fence", "```json\n[\"a\",\"b\"]\n```", `["a","b"]`},
		{"Bare Fence", "```\n[\"a\"]\n```", `["a"]`},
		{"Single Line Fence", "```json [\"a\"]```", `["a"]`},
		{"Language Tag Only", "json\n[\"a\"]", `["a"]`},
		{"Surrounding Space", "  \n```json\n[1]\n```  \n", `[1]`},
		{"Word Starting With Json", "jsonify this", "jsonify this"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestParseList(t *testing.T) {
	got, err := parseList("```json\n[\"a\", 2, true, null, {\"k\":\"v\"}]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2", "true", "", `{"k":"v"}`}, got)

	got, err = parseList(`"just one"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"just one"}, got)

	_, err = parseList("Here are some queries: quantum")
	assert.Error(t, err)
}

func TestCompact(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, compact([]string{" a ", "", "  ", "b"}))
	assert.Empty(t, compact(nil))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))

	long := strings.Repeat("é", 600)
	assert.Equal(t, 500, len([]rune(truncateRunes(long, 500))))
}
