package subtitle

import "strings"

// Format identifies the grammar a document was parsed with and the one
// Reconstruct renders it back with.
type Format string

const (
	FormatSRT     Format = "srt"
	FormatVTT     Format = "vtt"
	FormatASS     Format = "ass"
	FormatUnknown Format = "unknown"
)

// Ext returns the canonical file extension for the format, including the
// dot. Unknown maps to .txt.
func (f Format) Ext() string {
	switch f {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".txt"
	}
}

// Entry is one structural unit of a subtitle document: a timed cue, a
// verbatim header block, or a block the parser could not classify.
type Entry struct {
	ID          string // sequence identifier as it appeared; empty when absent
	Timestamp   string // raw timing literal, kept verbatim and never reparsed
	Text        string // cue payload; translation mutates it in place
	IsHeader    bool   // document-level block, reproduced verbatim
	IsMalformed bool   // unparseable block, reproduced verbatim
}

// Translatable reports whether the entry carries text eligible for
// translation. Header blocks, malformed blocks and blank cues never
// qualify.
func (e *Entry) Translatable() bool {
	return !e.IsHeader && !e.IsMalformed && strings.TrimSpace(e.Text) != ""
}

// Document is an ordered sequence of entries plus the grammar they were
// parsed with.
type Document struct {
	Entries []Entry
	Format  Format
	Path    string // filename hint from the upload, cosmetic only
}

// TranslatableEntries returns pointers to the entries eligible for
// translation, in document order.
func (d *Document) TranslatableEntries() []*Entry {
	var out []*Entry
	for i := range d.Entries {
		if d.Entries[i].Translatable() {
			out = append(out, &d.Entries[i])
		}
	}
	return out
}
