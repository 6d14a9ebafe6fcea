package locales

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

// DefaultLocales is the locale set built when nothing else is configured.
var DefaultLocales = []string{
	"ar", "de", "en", "es", "fr", "it", "ja", "ko",
	"nl", "pl", "pt-BR", "ru", "tr", "zh-CN", "zh-TW",
}

// Defaults returns a copy of DefaultLocales.
func Defaults() []string {
	out := make([]string, len(DefaultLocales))
	copy(out, DefaultLocales)
	return out
}

// Canonical parses raw as a BCP 47 tag and returns its canonical string.
func Canonical(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ferrors.ValidationError("empty locale tag").Build()
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "invalid locale tag").
			Fatal().
			WithContext("locale", raw).
			Build()
	}
	return tag.String(), nil
}

// Normalize canonicalizes, de-duplicates and sorts a locale list. An empty
// list is rejected.
func Normalize(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		tag, err := Canonical(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil, ferrors.ValidationError("no locales requested").Build()
	}
	sort.Strings(out)
	return out, nil
}

// ParseList splits a comma separated locale list, e.g. from an environment variable.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
