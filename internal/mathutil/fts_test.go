package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFTSQuery_StripsOperators(t *testing.T) {
	out := SanitizeFTSQuery(`getUser* OR "drop table"`)
	assert.NotContains(t, out, "*")
	assert.Equal(t, `"getUser" "OR" "drop" "table"`, out, "OR survives only as a quoted literal term")
	assert.Contains(t, out, `"getUser"`)
}

func TestSanitizeFTSQuery_QuotesEachTerm(t *testing.T) {
	out := SanitizeFTSQuery("get user by id")
	assert.Equal(t, `"get" "user" "by" "id"`, out)
}

func TestSanitizeFTSQuery_Empty(t *testing.T) {
	assert.Equal(t, "", SanitizeFTSQuery("   "))
	assert.Equal(t, "", SanitizeFTSQuery(`***`))
}

func TestSanitizeFTSQuery_ColumnFilterSyntaxNeutralized(t *testing.T) {
	out := SanitizeFTSQuery("name:malicious")
	assert.NotContains(t, out, ":")
}
