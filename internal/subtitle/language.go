package subtitle

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the dominant language of the document's
// translatable text by majority vote across entries.
func DetectLanguage(entries []Entry) language.Tag {
	langMap := make(map[string]int)

	for i := range entries {
		e := &entries[i]
		if !e.Translatable() {
			continue
		}
		lang := whatlanggo.DetectLang(e.Text).Iso6391()
		langMap[lang]++
	}

	if len(langMap) == 0 {
		return language.Und
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
