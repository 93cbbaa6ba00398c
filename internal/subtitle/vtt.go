package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

// parseVTT scans blank-line separated blocks. The WEBVTT signature block
// and NOTE/STYLE/REGION blocks become header entries; remaining blocks
// are cues with an optional identifier line above the timing line.
func parseVTT(content string) []Entry {
	var entries []Entry

	for i, block := range splitBlocks(content) {
		if i == 0 && strings.HasPrefix(block[0], "WEBVTT") {
			// A cue glued onto the signature without a separating blank
			// line starts at the first timing line.
			header, cue := splitVTTHeader(block)
			entries = append(entries, Entry{Text: strings.Join(header, "\n"), IsHeader: true})
			if len(cue) > 0 {
				entries = append(entries, parseVTTCue(cue))
			}
			continue
		}
		entries = append(entries, parseVTTBlock(block))
	}

	return entries
}

func splitVTTHeader(block []string) (header, cue []string) {
	for i, line := range block {
		if strings.Contains(line, "-->") {
			return block[:i], block[i:]
		}
	}
	return block, nil
}

func parseVTTBlock(block []string) Entry {
	first := strings.TrimSpace(block[0])
	for _, marker := range []string{"NOTE", "STYLE", "REGION"} {
		if first == marker || strings.HasPrefix(first, marker+" ") {
			return Entry{Text: strings.Join(block, "\n"), IsHeader: true}
		}
	}
	return parseVTTCue(block)
}

func parseVTTCue(block []string) Entry {
	// The timing line keeps its trailing cue settings untouched.
	if strings.Contains(block[0], "-->") {
		return Entry{
			Timestamp: block[0],
			Text:      strings.Join(block[1:], "\n"),
		}
	}
	if len(block) >= 2 && strings.Contains(block[1], "-->") {
		return Entry{
			ID:        block[0],
			Timestamp: block[1],
			Text:      strings.Join(block[2:], "\n"),
		}
	}

	return Entry{Text: strings.Join(block, "\n"), IsMalformed: true}
}

// reconstructVTT re-emits header blocks in place. Numeric cue
// identifiers are renumbered from 1, non-numeric ones kept verbatim,
// absent ones stay absent.
func reconstructVTT(entries []Entry) string {
	var b strings.Builder
	index := 0

	for i := range entries {
		e := &entries[i]
		if b.Len() > 0 {
			b.WriteString("\n")
		}

		if e.IsHeader || e.IsMalformed {
			b.WriteString(e.Text)
			b.WriteString("\n")
			continue
		}

		if e.ID != "" {
			if _, err := strconv.Atoi(strings.TrimSpace(e.ID)); err == nil {
				index++
				fmt.Fprintf(&b, "%d\n", index)
			} else {
				b.WriteString(e.ID)
				b.WriteString("\n")
			}
		}
		b.WriteString(e.Timestamp)
		b.WriteString("\n")
		if e.Text != "" {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
	}

	return b.String()
}
