package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subloc/subloc/internal/llm"
)

type fakeChatClient struct {
	lastSystem string
	lastUser   string
	reply      func(user string) string
	err        error
}

func (f *fakeChatClient) ChatCompletion(_ context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if opts != nil {
		f.lastSystem = opts.SystemPrompt
	}
	f.lastUser = messages[len(messages)-1].Content

	return &llm.ChatResponse{
		Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: f.reply(f.lastUser)}}},
	}, nil
}

// echoIndexed answers with the same lines marked as translated,
// mimicking a well-behaved model.
func echoIndexed(user string) string {
	var decoded struct {
		Lines []indexedLine `json:"lines"`
	}
	if err := json.Unmarshal([]byte(user), &decoded); err != nil {
		return "not json"
	}
	for i := range decoded.Lines {
		decoded.Lines[i].Text = "T:" + decoded.Lines[i].Text
	}
	out, _ := json.Marshal(decoded.Lines)
	return string(out)
}

func TestLLMTranslatorRoundTrip(t *testing.T) {
	chat := &fakeChatClient{reply: echoIndexed}
	tr := NewLLMTranslator(chat)

	got, err := tr.TranslateBatch(context.Background(), []string{"Hello", "World"}, Options{SourceLang: "en", TargetLang: "zh"})
	require.NoError(t, err)
	assert.Equal(t, []string{"T:Hello", "T:World"}, got)
	assert.Contains(t, chat.lastSystem, "subtitle translation expert")
	assert.Contains(t, chat.lastUser, `"index":1`)
}

func TestLLMTranslatorMasksInlineBreaks(t *testing.T) {
	chat := &fakeChatClient{reply: echoIndexed}
	tr := NewLLMTranslator(chat)

	got, err := tr.TranslateBatch(context.Background(), []string{"line one\nline two"}, Options{TargetLang: "fr"})
	require.NoError(t, err)

	// The wire payload never carries a literal newline inside a value.
	assert.NotContains(t, chat.lastUser, "\n")
	assert.Contains(t, chat.lastUser, inlineBreakerPlaceholder)
	// The translation comes back with the break restored.
	assert.Equal(t, []string{"T:line one\nline two"}, got)
}

func TestLLMTranslatorRequestFailure(t *testing.T) {
	chat := &fakeChatClient{err: fmt.Errorf("boom")}
	tr := NewLLMTranslator(chat)

	_, err := tr.TranslateBatch(context.Background(), []string{"Hello"}, Options{TargetLang: "zh"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translation request failed")
}

func TestLLMTranslatorGarbageResponse(t *testing.T) {
	chat := &fakeChatClient{reply: func(string) string { return "I cannot translate that." }}
	tr := NewLLMTranslator(chat)

	_, err := tr.TranslateBatch(context.Background(), []string{"Hello"}, Options{TargetLang: "zh"})
	require.Error(t, err)
}

func TestLLMTranslatorEmptyBatch(t *testing.T) {
	chat := &fakeChatClient{reply: echoIndexed}
	tr := NewLLMTranslator(chat)

	got, err := tr.TranslateBatch(context.Background(), nil, Options{TargetLang: "zh"})
	require.NoError(t, err)
	assert.Nil(t, got)
}
