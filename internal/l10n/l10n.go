// Package l10n merges machine translations kept in a YAML document into the
// strings.xml resource files of the Android app.
//
// The document holds a "titles" list with the string resource names and one
// list per locale with the translations in the same order:
//
//	titles:
//	  - string_title1
//	locale_name:
//	  - string_translation1
//
// Everything is validated, and every target file read, before the first
// file is written.
package l10n

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// TitlesKey names the list of resource names.
const TitlesKey = "titles"

// DefaultLocale lives in the unqualified values directory.
const DefaultLocale = "en-US"

// KnownLocales are the locales the app ships resources for.
var KnownLocales = []string{
	"en-US",
	"de",
	"zh-rCN",
	"fr",
	"hi-rIN",
	"ja",
	"ko",
	"ru",
	"es-rES",
	"it",
}

var (
	ErrUnknownLocale = errors.New("unknown locale")
	ErrCountMismatch = errors.New("translation count does not match titles")
	ErrMissingTitles = errors.New("missing titles")
)

// Translation is one string resource.
type Translation struct {
	Name string
	Text string
}

// Set maps a locale to its translations.
type Set map[string][]Translation

// Locales returns the locales of s in sorted order.
func (s Set) Locales() []string {
	locales := make([]string, 0, len(s))
	for l := range s {
		locales = append(locales, l)
	}
	slices.Sort(locales)
	return locales
}

// Parse decodes and validates a translations document.
func Parse(data []byte) (Set, error) {
	var doc map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse translations: %w", err)
	}

	titles, ok := doc[TitlesKey]
	if !ok || len(titles) == 0 {
		return nil, fmt.Errorf("%w: the document needs a non-empty %q list", ErrMissingTitles, TitlesKey)
	}
	delete(doc, TitlesKey)

	var unknown []string
	for locale := range doc {
		if !slices.Contains(KnownLocales, locale) {
			unknown = append(unknown, locale)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, fmt.Errorf("%w(s): %v", ErrUnknownLocale, unknown)
	}

	set := make(Set, len(doc))
	for locale, texts := range doc {
		if len(texts) != len(titles) {
			return nil, fmt.Errorf("%w: locale %s has %d translations for %d titles",
				ErrCountMismatch, locale, len(texts), len(titles))
		}
		list := make([]Translation, len(titles))
		for i, name := range titles {
			list[i] = Translation{Name: name, Text: texts[i]}
		}
		set[locale] = list
	}
	return set, nil
}
