package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSRT scans blank-line separated blocks. A well-formed block is an
// integer index line, a timing line with the arrow separator, then zero
// or more text lines. Anything else is kept verbatim as malformed.
func parseSRT(content string) []Entry {
	var entries []Entry
	for _, block := range splitBlocks(content) {
		entries = append(entries, parseSRTBlock(block))
	}
	return entries
}

func parseSRTBlock(block []string) Entry {
	if len(block) >= 2 {
		index := strings.TrimSpace(block[0])
		if _, err := strconv.Atoi(index); err == nil && strings.Contains(block[1], "-->") {
			return Entry{
				ID:        index,
				Timestamp: block[1],
				Text:      strings.Join(block[2:], "\n"),
			}
		}
	}

	return Entry{Text: strings.Join(block, "\n"), IsMalformed: true}
}

// reconstructSRT renumbers cues sequentially from 1. Malformed blocks
// are re-emitted verbatim and do not advance the counter.
func reconstructSRT(entries []Entry) string {
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

		index++
		fmt.Fprintf(&b, "%d\n%s\n", index, e.Timestamp)
		if e.Text != "" {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
	}

	return b.String()
}
