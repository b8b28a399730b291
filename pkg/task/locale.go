package task

import "strings"

// translatingByLocale holds the placeholder shown when a document fails to
// parse: the task is finished from the core's point of view, but the UI keeps
// displaying an in-progress message rather than a broken result.
var translatingByLocale = map[string]string{
	"en": "Translating...",
	"fr": "Traduction en cours...",
	"de": "Übersetzung läuft...",
	"es": "Traduciendo...",
	"ja": "翻訳中...",
	"zh": "翻译中...",
}

// translatingPlaceholder resolves the placeholder for a locale tag, matching
// the base language of tags like "fr-CA" and falling back to English.
func translatingPlaceholder(locale string) string {
	if s, ok := translatingByLocale[locale]; ok {
		return s
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		if s, ok := translatingByLocale[base]; ok {
			return s
		}
	}
	return translatingByLocale["en"]
}
