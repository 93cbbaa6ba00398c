package subtitle

import "strings"

// Parse turns raw subtitle content into a Document. It never fails:
// content that matches none of the known grammars degrades to a single
// malformed entry holding the whole input, so Reconstruct can still
// reproduce it.
//
// The filename hint is recorded for output naming only; format detection
// relies on structural cues alone.
func Parse(content, filenameHint string) *Document {
	normalized := normalize(content)

	doc := &Document{
		Format: detectFormat(normalized),
		Path:   filenameHint,
	}

	switch doc.Format {
	case FormatVTT:
		doc.Entries = parseVTT(normalized)
	case FormatASS:
		doc.Entries = parseASS(normalized)
	case FormatSRT:
		doc.Entries = parseSRT(normalized)
	default:
		doc.Entries = []Entry{{Text: normalized, IsMalformed: true}}
	}

	return doc
}

// normalize strips a UTF-8 BOM and converts CRLF/CR line endings to LF.
// All parsing and reconstruction works on the normalized form.
func normalize(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// detectFormat classifies content by structural markers. WebVTT is
// checked first since its cue bodies share the SRT arrow separator.
func detectFormat(content string) Format {
	if strings.HasPrefix(strings.TrimLeft(content, "\n"), "WEBVTT") {
		return FormatVTT
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "[Script Info]", trimmed == "[V4 Styles]", trimmed == "[V4+ Styles]":
			return FormatASS
		case strings.HasPrefix(trimmed, "Dialogue:"):
			return FormatASS
		}
	}

	if strings.Contains(content, "-->") {
		return FormatSRT
	}

	return FormatUnknown
}

// splitBlocks groups consecutive non-blank lines into blocks. Blank-line
// runs separate blocks; a final unterminated block is kept.
func splitBlocks(content string) [][]string {
	lines := strings.Split(content, "\n")

	var blocks [][]string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	return blocks
}
