package langregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByExtensionNormalizesDot(t *testing.T) {
	r := New()
	d1, ok1 := r.ByExtension("go")
	d2, ok2 := r.ByExtension(".go")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, d1, d2)
	assert.Equal(t, "go", d1.Name)
}

func TestByNameUnknown(t *testing.T) {
	r := New()
	_, ok := r.ByName("cobol")
	assert.False(t, ok)
}

func TestIsCallable(t *testing.T) {
	r := New()
	d, _ := r.ByName("go")
	assert.True(t, d.IsCallable(KindFunction))
	assert.True(t, d.IsCallable(KindMethod))
	assert.False(t, d.IsCallable(KindStruct))
}

func TestIsTestNameGo(t *testing.T) {
	r := New()
	d, _ := r.ByName("go")
	assert.True(t, d.IsTestName("TestFoo"))
	assert.False(t, d.IsTestName("Foo"))
}

func TestIsTestPathPython(t *testing.T) {
	r := New()
	d, _ := r.ByName("python")
	assert.True(t, d.IsTestPath("pkg/tests/test_foo.py"))
	assert.False(t, d.IsTestPath("pkg/foo.py"))
}

func TestIsEntryPoint(t *testing.T) {
	r := New()
	d, _ := r.ByName("go")
	assert.True(t, d.IsEntryPoint("main"))
	assert.False(t, d.IsEntryPoint("helper"))
}

func TestSupportedExtensionsNonEmpty(t *testing.T) {
	r := Default()
	assert.NotEmpty(t, r.SupportedExtensions())
}
