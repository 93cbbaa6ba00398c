package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedLanguagesHaveDisplayNames(t *testing.T) {
	langs := SupportedLanguages()
	require.NotEmpty(t, langs)

	byCode := make(map[string]string, len(langs))
	for _, l := range langs {
		byCode[l.Code] = l.Name
	}
	assert.Equal(t, "English", byCode["en"])
	assert.Equal(t, "Japanese", byCode["ja"])
	assert.Contains(t, byCode["zh"], "Chinese")
	assert.Contains(t, byCode["zh-Hant"], "Chinese")
}

func TestValidateLanguage(t *testing.T) {
	require.NoError(t, ValidateLanguage("", true))
	require.NoError(t, ValidateLanguage("auto", true))
	require.NoError(t, ValidateLanguage("AUTO", true))
	require.NoError(t, ValidateLanguage("pt-BR", false))

	require.Error(t, ValidateLanguage("", false))

	err := ValidateLanguage("not a lang", false)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrValidation))
}

func TestIsAutoSource(t *testing.T) {
	assert.True(t, IsAutoSource(""))
	assert.True(t, IsAutoSource("auto"))
	assert.True(t, IsAutoSource("Auto"))
	assert.False(t, IsAutoSource("en"))
}

func TestRunOptionsValidate(t *testing.T) {
	require.Error(t, RunOptions{}.Validate())
	require.Error(t, RunOptions{SourceLang: "??", TargetLang: "en"}.Validate())
	require.NoError(t, RunOptions{SourceLang: "auto", TargetLang: "ja"}.Validate())
	require.NoError(t, RunOptions{TargetLang: "zh-Hant"}.Validate())
}
