package llmutils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/ksfoundation/oneshot/internal/schema"
)

func TestCleanLocal(t *testing.T) {
	in := "<think>\nplanning the answer\n</think>\n\n  Hello there.  \n"
	assert.Equal(t, "Hello there.", CleanLocal(in))
	assert.Equal(t, "plain", CleanLocal("plain"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefghij", 5))
}

func TestToolHint(t *testing.T) {
	calls := []schema.ToolInvocationRequest{
		{ID: "1", Name: "check_domain_availability", RawArguments: `{"keyword":"acme"}`},
		{ID: "2", Name: "deploy_k3s_cluster", RawArguments: `{"port":22,"ip_address":"10.0.0.1"}`},
		{ID: "3", Name: "search_products", RawArguments: `not json`},
	}
	assert.Equal(t,
		`check_domain_availability("acme"), deploy_k3s_cluster("10.0.0.1"), search_products`,
		ToolHint(calls))
}

func TestTruncate_RuneBoundary(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "日本...", Truncate("日本語テキスト", 2))
	assert.Equal(t, "...", Truncate("é", 0))
}

func TestToolHint_LongMultibyteArgument(t *testing.T) {
	arg := strings.Repeat("é", 50)
	calls := []schema.ToolInvocationRequest{{Name: "search_products", RawArguments: `{"query":"` + arg + `"}`}}
	got := ToolHint(calls)
	assert.Equal(t, `search_products("`+strings.Repeat("é", 40)+`…")`, got)
	assert.True(t, utf8.ValidString(got))
}
