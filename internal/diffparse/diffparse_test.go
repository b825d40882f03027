package diffparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/internal/foo.go b/internal/foo.go
index 1111111..2222222 100644
--- a/internal/foo.go
+++ b/internal/foo.go
@@ -10,3 +10,4 @@ func Foo() {
 	x := 1
-	y := 2
+	y := 3
+	z := 4
 	return x + y
diff --git a/internal/bar.go b/internal/bar.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/internal/bar.go
@@ -0,0 +1,2 @@
+package internal
+
\ No newline at end of file
`

func TestParse_TwoFilesOneHunkEach(t *testing.T) {
	files, err := Parse(strings.NewReader(sampleDiff))
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "internal/foo.go", files[0].Path)
	require.Len(t, files[0].Hunks, 1)
	h := files[0].Hunks[0]
	assert.Equal(t, 10, h.OldStart)
	assert.Equal(t, 3, h.OldCount)
	assert.Equal(t, 10, h.NewStart)
	assert.Equal(t, 4, h.NewCount)
	require.Len(t, h.Lines, 5)
	assert.Equal(t, LineContext, h.Lines[0].Kind)
	assert.Equal(t, LineRemoved, h.Lines[1].Kind)
	assert.Equal(t, LineAdded, h.Lines[2].Kind)
	assert.Equal(t, LineAdded, h.Lines[3].Kind)
	assert.Equal(t, LineContext, h.Lines[4].Kind)

	assert.Equal(t, "internal/bar.go", files[1].Path)
	require.Len(t, files[1].Hunks, 1)
	assert.Equal(t, 0, files[1].Hunks[0].OldStart)
	assert.Equal(t, 1, files[1].Hunks[0].NewStart)
}

func TestParse_NoNewlineMarkerIgnored(t *testing.T) {
	files, err := Parse(strings.NewReader(sampleDiff))
	require.NoError(t, err)
	last := files[1].Hunks[0].Lines
	for _, l := range last {
		assert.NotEqual(t, `\ No newline at end of file`, l.Text)
	}
}

func TestParse_CRLFNormalised(t *testing.T) {
	diff := "diff --git a/x.go b/x.go\r\n--- a/x.go\r\n+++ b/x.go\r\n@@ -1,1 +1,1 @@\r\n-old\r\n+new\r\n"
	files, err := Parse(strings.NewReader(diff))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "x.go", files[0].Path)
	assert.Equal(t, "old", files[0].Hunks[0].Lines[0].Text)
	assert.Equal(t, "new", files[0].Hunks[0].Lines[1].Text)
}

func TestParse_SingleLineHunkDefaultsCountToOne(t *testing.T) {
	diff := "diff --git a/x.go b/x.go\n--- a/x.go\n+++ b/x.go\n@@ -5 +5 @@\n-old\n+new\n"
	files, err := Parse(strings.NewReader(diff))
	require.NoError(t, err)
	h := files[0].Hunks[0]
	assert.Equal(t, 5, h.OldStart)
	assert.Equal(t, 1, h.OldCount)
	assert.Equal(t, 5, h.NewStart)
	assert.Equal(t, 1, h.NewCount)
}

func TestParse_MalformedHunkHeaderErrors(t *testing.T) {
	diff := "diff --git a/x.go b/x.go\n--- a/x.go\n+++ b/x.go\n@@ garbage @@\n-old\n"
	_, err := Parse(strings.NewReader(diff))
	assert.Error(t, err)
}
