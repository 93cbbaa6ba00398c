package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,500\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\nsecond line\n"

func TestParseSRT(t *testing.T) {
	doc := Parse(sampleSRT, "sample.srt")

	require.Equal(t, FormatSRT, doc.Format)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "1", doc.Entries[0].ID)
	assert.Equal(t, "00:00:01,000 --> 00:00:02,500", doc.Entries[0].Timestamp)
	assert.Equal(t, "Hello", doc.Entries[0].Text)
	assert.Equal(t, "World\nsecond line", doc.Entries[1].Text)
	assert.True(t, doc.Entries[0].Translatable())
}

func TestSRTRoundTrip(t *testing.T) {
	doc := Parse(sampleSRT, "sample.srt")

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	assert.Equal(t, sampleSRT, out)
}

func TestSRTRoundTripCRLF(t *testing.T) {
	crlf := "1\r\n00:00:01,000 --> 00:00:02,000\r\nHello\r\n"
	doc := Parse(crlf, "sample.srt")

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n", out)
}

func TestSRTMalformedBlockKeptVerbatim(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\nnot an index\ngarbage text\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	doc := Parse(content, "sample.srt")

	require.Len(t, doc.Entries, 3)
	assert.False(t, doc.Entries[1].Translatable())
	assert.True(t, doc.Entries[1].IsMalformed)
	assert.Equal(t, "not an index\ngarbage text", doc.Entries[1].Text)

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	assert.Equal(t, content, out)
}

func TestSRTRenumbersFromOne(t *testing.T) {
	content := "7\n00:00:01,000 --> 00:00:02,000\nHello\n\n42\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	doc := Parse(content, "sample.srt")

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n", out)
}

func TestSRTMalformedDoesNotAdvanceCounter(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\ngarbage\n\n3\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	doc := Parse(content, "sample.srt")

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	// The cue after the garbage block gets index 2, not 3.
	assert.Contains(t, out, "garbage\n\n2\n00:00:03,000")
}

func TestSRTTranslationMutatesOnlyText(t *testing.T) {
	doc := Parse(sampleSRT, "sample.srt")
	for _, e := range doc.TranslatableEntries() {
		e.Text = "X-" + e.Text
	}

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,500\nX-Hello\n\n2\n00:00:03,000 --> 00:00:04,000\nX-World\nsecond line\n", out)
}

func TestSRTEmptyTextCueSurvives(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	doc := Parse(content, "sample.srt")

	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "", doc.Entries[0].Text)
	assert.False(t, doc.Entries[0].Translatable())

	out, err := Reconstruct(doc)
	require.NoError(t, err)
	assert.Equal(t, content, out)
}
