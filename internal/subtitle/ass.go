package subtitle

import "strings"

// parseASS scans line by line. Runs of non-dialogue lines (section
// headings, Format:/Style: declarations, comments, blank separators) are
// coalesced into verbatim header entries; each Dialogue: line becomes
// one cue.
func parseASS(content string) []Entry {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		// Trailing newline; Reconstruct adds it back.
		lines = lines[:len(lines)-1]
	}

	var entries []Entry
	var run []string
	flush := func() {
		if len(run) > 0 {
			entries = append(entries, Entry{Text: strings.Join(run, "\n"), IsHeader: true})
			run = nil
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "Dialogue:") {
			flush()
			entries = append(entries, parseDialogue(line))
			continue
		}
		run = append(run, line)
	}
	flush()

	return entries
}

// parseDialogue splits an event line at its ninth comma: the prefix
// carries the timing and style fields and goes into Timestamp verbatim,
// the remainder is the text field and may itself contain commas.
func parseDialogue(line string) Entry {
	parts := strings.SplitN(line, ",", 10)
	if len(parts) < 10 {
		return Entry{Text: line, IsMalformed: true}
	}

	return Entry{
		Timestamp: line[:len(line)-len(parts[9])],
		Text:      parts[9],
	}
}

func reconstructASS(entries []Entry) string {
	var b strings.Builder

	for i := range entries {
		e := &entries[i]
		if e.IsHeader || e.IsMalformed {
			b.WriteString(e.Text)
		} else {
			b.WriteString(e.Timestamp)
			b.WriteString(e.Text)
		}
		b.WriteString("\n")
	}

	return b.String()
}
