package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBackslashes(t *testing.T) {
	assert.Equal(t, "src/foo.rs", Normalize(`src\foo.rs`))
}

func TestNormalizeUNCPrefix(t *testing.T) {
	assert.Equal(t, "a/b", Normalize(`\\?\a\b`))
}

func TestNormalizeDotSegments(t *testing.T) {
	assert.Equal(t, "a/b", Normalize("./a/./b/"))
}

func TestEqualSeparatorInsensitive(t *testing.T) {
	assert.True(t, Equal(`src\foo.rs`, "src/foo.rs"))
}

func TestTrimCR(t *testing.T) {
	assert.Equal(t, "a/b.go", TrimCR("a/b.go\r"))
}
