package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/subloc/subloc/internal/llm"
)

// inlineBreakerPlaceholder masks in-cue line breaks before the text is
// handed to the model. Literal newlines inside JSON string values get
// mangled by enough providers that masking is the only reliable way
// through.
const inlineBreakerPlaceholder = "%%inline_breaker%%"

// ChatClient is the LLM surface the translator needs.
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error)
}

// llmTranslator implements Client on top of an OpenAI-compatible chat
// endpoint.
type llmTranslator struct {
	client ChatClient
}

// NewLLMTranslator creates a Client backed by the given chat client.
func NewLLMTranslator(client ChatClient) Client {
	return &llmTranslator{client: client}
}

func (t *llmTranslator) TranslateBatch(ctx context.Context, texts []string, opts Options) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	masked := make([]string, len(texts))
	for i, text := range texts {
		masked[i] = strings.ReplaceAll(text, "\n", inlineBreakerPlaceholder)
	}

	userMessage, err := buildTranslationUserMessage(masked)
	if err != nil {
		return nil, err
	}

	response, err := t.client.ChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: userMessage}},
		llm.NewChatCompletionOptions().WithSystemPrompt(buildTranslationSystemPrompt(opts)))
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in translation response")
	}

	translations, err := parseTranslationOutput(response.Choices[0].Message.Content, len(texts))
	if err != nil {
		return nil, err
	}

	fixInlineBreakers(masked, translations)

	for i := range translations {
		translations[i] = strings.ReplaceAll(translations[i], inlineBreakerPlaceholder, "\n")
	}

	return translations, nil
}

// buildTranslationSystemPrompt builds the system prompt for one batch.
func buildTranslationSystemPrompt(opts Options) string {
	source := opts.SourceLang
	if source == "" || strings.EqualFold(source, "auto") {
		source = "the source language"
	}

	var prompt strings.Builder

	prompt.WriteString("You are a professional subtitle translation expert specializing in cross-language media localization. Translate subtitles from " + source + " to " + opts.TargetLang + ".\n")

	prompt.WriteString("\n=== TRANSLATION GUIDELINES ===\n")
	prompt.WriteString("1. Maintain character voice and conversational tone\n")
	prompt.WriteString("2. Ensure " + opts.TargetLang + " flows naturally while preserving meaning\n")
	prompt.WriteString("3. Keep subtitle length appropriate for screen reading\n")
	prompt.WriteString("4. MUST preserve the count of " + inlineBreakerPlaceholder + " markers in each line\n")
	prompt.WriteString("5. Do NOT merge, split, reorder, or drop lines\n")
	prompt.WriteString("6. If an input line is empty, output text for that index MUST be an empty string\n")

	if opts.CustomPrompt != "" {
		prompt.WriteString("\n=== ADDITIONAL INSTRUCTIONS ===\n")
		prompt.WriteString(opts.CustomPrompt + "\n")
	}

	prompt.WriteString("\n=== OUTPUT FORMAT ===\n")
	prompt.WriteString("The user message is a JSON object with a \"lines\" array of {index, text} items.\n")
	prompt.WriteString("Return ONLY a JSON array of {index, text} objects covering every input index exactly once.\n")
	prompt.WriteString("Do NOT output literal newline characters in JSON text values.\n")
	prompt.WriteString("Do not include any explanations, notes, or additional text.\n")
	prompt.WriteString("The number of output items must exactly match the number of input lines.\n")

	return prompt.String()
}

type indexedLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// buildTranslationUserMessage serializes the batch as an indexed JSON
// payload so the model can keep line identity stable.
func buildTranslationUserMessage(texts []string) (string, error) {
	lines := make([]indexedLine, 0, len(texts))
	for i, text := range texts {
		lines = append(lines, indexedLine{Index: i + 1, Text: text})
	}

	payload, err := json.Marshal(struct {
		Lines []indexedLine `json:"lines"`
	}{Lines: lines})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation payload: %w", err)
	}

	return string(payload), nil
}

// parseTranslationOutput recovers the translated lines from model
// output. Indexed {index, text} arrays are reordered by index; a plain
// string array is accepted positionally. Models wrap the array in prose
// or code fences often enough that parsing retries on the widest
// bracketed slice.
func parseTranslationOutput(content string, expected int) ([]string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("empty translation output")
	}

	candidates := []string{trimmed}
	if start, end := strings.Index(trimmed, "["), strings.LastIndex(trimmed, "]"); start >= 0 && end > start {
		if salvaged := trimmed[start : end+1]; salvaged != trimmed {
			candidates = append(candidates, salvaged)
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		var indexed []indexedLine
		if err := json.Unmarshal([]byte(candidate), &indexed); err == nil {
			return orderIndexedLines(indexed, expected)
		}

		var plain []string
		if err := json.Unmarshal([]byte(candidate), &plain); err == nil {
			if len(plain) != expected {
				return nil, fmt.Errorf("translation count mismatch: got %d, want %d", len(plain), expected)
			}
			return plain, nil
		} else {
			lastErr = err
		}
	}

	return nil, fmt.Errorf("translation output is not valid json: %w", lastErr)
}

func orderIndexedLines(lines []indexedLine, expected int) ([]string, error) {
	if len(lines) != expected {
		return nil, fmt.Errorf("translation count mismatch: got %d, want %d", len(lines), expected)
	}

	out := make([]string, expected)
	seen := make([]bool, expected)
	for _, line := range lines {
		if line.Index < 1 || line.Index > expected {
			return nil, fmt.Errorf("translation index %d out of range 1..%d", line.Index, expected)
		}
		if seen[line.Index-1] {
			return nil, fmt.Errorf("duplicate translation index %d", line.Index)
		}
		seen[line.Index-1] = true
		out[line.Index-1] = line.Text
	}

	return out, nil
}

// fixInlineBreakers reconciles the inline break marker count of each
// translated line with its source line. When a model drops or invents
// markers the line is re-split into even rune chunks; lines with the
// right count keep their own split points.
func fixInlineBreakers(source, translated []string) {
	for i := range translated {
		if i >= len(source) {
			return
		}

		want := strings.Count(source[i], inlineBreakerPlaceholder)
		got := strings.Count(translated[i], inlineBreakerPlaceholder)
		if got == want {
			continue
		}

		joined := strings.Join(strings.Split(translated[i], inlineBreakerPlaceholder), "")
		runes := []rune(joined)
		parts := want + 1
		chunks := make([]string, 0, parts)
		for p := 0; p < parts; p++ {
			lo := p * len(runes) / parts
			hi := (p + 1) * len(runes) / parts
			chunks = append(chunks, string(runes[lo:hi]))
		}
		translated[i] = strings.Join(chunks, inlineBreakerPlaceholder)
	}
}
