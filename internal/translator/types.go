package translator

import "context"

// Options carries the language pair and optional custom instructions for
// one translation run.
type Options struct {
	SourceLang   string
	TargetLang   string
	CustomPrompt string
}

// Client translates an ordered batch of cue texts. Implementations
// return one translation per input in the same order; positions the
// provider left out or blank are resolved by the caller, which keeps
// the original text there.
type Client interface {
	TranslateBatch(ctx context.Context, texts []string, opts Options) ([]string, error)
}
