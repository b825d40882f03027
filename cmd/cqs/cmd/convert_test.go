package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertCmd_MissingEnvVar_Errors(t *testing.T) {
	os.Unsetenv(pdfScriptEnvVar)

	_, err := runCQS(t, t.TempDir(), "convert", "in.pdf", "out.txt")
	assert.Error(t, err)
}

func TestConvertCmd_RejectsNonPythonScript(t *testing.T) {
	t.Setenv(pdfScriptEnvVar, "/usr/bin/convert-pdf.sh")

	_, err := runCQS(t, t.TempDir(), "convert", "in.pdf", "out.txt")
	assert.Error(t, err)
}
