package l10n

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	closingTag = "</resources>"
	stringsXML = "strings.xml"
)

// ErrNoClosingTag is returned for resource files without a </resources> line.
var ErrNoClosingTag = errors.New("no </resources> line")

// ResourceDir is the values directory of locale.
func ResourceDir(locale string) string {
	if locale == DefaultLocale {
		return "values"
	}
	return "values-" + locale
}

// StringsPath is the strings.xml of locale under resDir.
func StringsPath(resDir, locale string) string {
	return filepath.Join(resDir, ResourceDir(locale), stringsXML)
}

// Append inserts list before the closing </resources> line of content,
// preceded by a comment naming tool. Texts are written as given.
func Append(content string, list []Translation, tool string) (string, error) {
	lines := strings.SplitAfter(content, "\n")
	closing := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == closingTag {
			closing = i
		}
	}
	if closing < 0 {
		return "", ErrNoClosingTag
	}

	var b strings.Builder
	for _, line := range lines[:closing] {
		b.WriteString(line)
	}
	fmt.Fprintf(&b, "\n    <!-- Appended by %s -->\n", tool)
	for _, t := range list {
		fmt.Fprintf(&b, "    <string name=\"%s\">%s</string>\n", t.Name, t.Text)
	}
	for _, line := range lines[closing:] {
		b.WriteString(line)
	}
	return b.String(), nil
}

// Merge appends set to the strings.xml files under resDir and returns the
// paths it wrote. No file is written unless every file could be read and
// updated.
func Merge(resDir string, set Set, tool string) ([]string, error) {
	type update struct {
		path    string
		content string
		mode    os.FileMode
	}

	var updates []update
	for _, locale := range set.Locales() {
		path := StringsPath(resDir, locale)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}
		content, err := Append(string(data), set[locale], tool)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %s: %w", locale, path, err)
		}
		updates = append(updates, update{path: path, content: content, mode: info.Mode().Perm()})
	}

	written := make([]string, 0, len(updates))
	for _, u := range updates {
		if err := os.WriteFile(u.path, []byte(u.content), u.mode); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", u.path, err)
		}
		written = append(written, u.path)
	}
	return written, nil
}
