package service

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessErrorFormatting(t *testing.T) {
	err := NewError(ErrParse, "bad document").WithContext("file", "movie.srt")
	msg := err.Error()
	assert.Contains(t, msg, "[Parse] bad document")
	assert.Contains(t, msg, "file=movie.srt")
}

func TestProcessErrorWrapping(t *testing.T) {
	wrapped := WrapError(io.ErrUnexpectedEOF, ErrFileRead, "short read")

	assert.Contains(t, wrapped.Error(), "cause: unexpected EOF")
	assert.True(t, errors.Is(wrapped, io.ErrUnexpectedEOF))
	assert.True(t, IsErrorType(wrapped, ErrFileRead))
	assert.False(t, IsErrorType(wrapped, ErrParse))
	assert.False(t, IsErrorType(errors.New("plain"), ErrFileRead))
}

func TestErrorTypeNames(t *testing.T) {
	assert.Equal(t, "FileRead", ErrFileRead.String())
	assert.Equal(t, "Reconstruct", ErrReconstruct.String())
	assert.Equal(t, "Translation", ErrTranslation.String())
	assert.Equal(t, "Unknown", ErrorType(99).String())
}

func TestSafeExecuteRecoversPanics(t *testing.T) {
	err := SafeExecute(func() error { panic("boom") })
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrUnknown))
	assert.Contains(t, err.Error(), "runtime error: boom")

	require.NoError(t, SafeExecute(func() error { return nil }))
}
