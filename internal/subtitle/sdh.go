package subtitle

import (
	"regexp"
	"strings"
)

var (
	sdhBracketRe = regexp.MustCompile(`\[[^\]]*?\]`)
	sdhParenRe   = regexp.MustCompile(`\([^)]*?\)`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// StripSDH removes hearing-impaired annotations, the bracketed
// [door slams] and parenthesized (sighs) kind, from cue text. Lines left
// empty by the removal are dropped; an entry stripped entirely becomes
// blank and falls out of the translatable subset.
func StripSDH(text string) string {
	cleaned := sdhBracketRe.ReplaceAllString(text, "")
	cleaned = sdhParenRe.ReplaceAllString(cleaned, "")

	var kept []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
