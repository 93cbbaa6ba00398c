package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Reconstruct renders the document back into subtitle text using the
// grammar it was parsed with. For well-formed input the result is
// structurally identical to the original: timing literals are emitted
// verbatim, header and malformed blocks are reproduced at their original
// positions, and only cue text differs after translation.
func Reconstruct(doc *Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}

	switch doc.Format {
	case FormatSRT:
		return reconstructSRT(doc.Entries), nil
	case FormatVTT:
		return reconstructVTT(doc.Entries), nil
	case FormatASS:
		return reconstructASS(doc.Entries), nil
	default:
		// The degraded single-entry form reproduces the input as-is.
		var b strings.Builder
		for i := range doc.Entries {
			b.WriteString(doc.Entries[i].Text)
		}
		return b.String(), nil
	}
}

// OutputName derives the filename for a translated document:
// base.<lang><ext>. When the hint has no extension the format's
// canonical one is used.
func OutputName(filenameHint string, format Format, targetLang string) string {
	ext := filepath.Ext(filenameHint)
	base := strings.TrimSuffix(filepath.Base(filenameHint), ext)
	if base == "" || base == "." {
		base = "subtitle"
	}
	if ext == "" {
		ext = format.Ext()
	}

	return fmt.Sprintf("%s.%s%s", base, strings.ToLower(targetLang), ext)
}
