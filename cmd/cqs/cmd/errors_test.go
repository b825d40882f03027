package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUsageError_IsDetectedByIsUsageError(t *testing.T) {
	err := newUsageError("bad flag value")

	assert.True(t, isUsageError(err))
	assert.Equal(t, "bad flag value", err.Error())
}

func TestIsUsageError_FalseForOrdinaryError(t *testing.T) {
	assert.False(t, isUsageError(errors.New("boom")))
}

func TestIsUsageError_FalseForNil(t *testing.T) {
	assert.False(t, isUsageError(nil))
}

func TestErrAnotherProcess_MentionsProjectRoot(t *testing.T) {
	err := errAnotherProcess("/tmp/myproject")
	assert.Contains(t, err.Error(), "/tmp/myproject")
}
