package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/subloc/subloc/internal/subtitle"
)

// FileStatus moves strictly forward: pending -> processing -> done or error.
type FileStatus string

const (
	StatusPending    FileStatus = "pending"
	StatusProcessing FileStatus = "processing"
	StatusDone       FileStatus = "done"
	StatusError      FileStatus = "error"
)

func (s FileStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// FileItem tracks one uploaded subtitle file through a run. The raw and
// translated documents stay out of API payloads; they are served through
// the download endpoint instead.
type FileItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         FileStatus      `json:"status"`
	Format         subtitle.Format `json:"format,omitempty"`
	SourceLang     string          `json:"source_lang,omitempty"`
	WordCount      int             `json:"word_count"`
	Error          string          `json:"error,omitempty"`
	Path           string          `json:"-"`
	OriginalText   string          `json:"-"`
	TranslatedText string          `json:"-"`
}

func NewFileItem(name, content string) *FileItem {
	return &FileItem{
		ID:           uuid.NewString(),
		Name:         name,
		Status:       StatusPending,
		OriginalText: content,
	}
}

// RunOptions are the user-chosen knobs for a whole run. SourceLang may be
// empty or "auto", in which case the language is detected per file.
type RunOptions struct {
	SourceLang   string `json:"source_lang,omitempty"`
	TargetLang   string `json:"target_lang"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
	StripSDH     bool   `json:"strip_sdh,omitempty"`
}

func (o RunOptions) Validate() error {
	if err := ValidateLanguage(o.SourceLang, true); err != nil {
		return err
	}
	if o.TargetLang == "" {
		return NewError(ErrValidation, "target language is required")
	}
	return ValidateLanguage(o.TargetLang, false)
}

// HistoryRecord is one line of the translation history shown to users.
type HistoryRecord struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistorySink receives a record for every file that finishes successfully.
// The store keeps only the most recent records; see persistence.
type HistorySink interface {
	AppendHistory(ctx context.Context, record HistoryRecord) error
}
