package locales

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

// SourceFileName holds the message IDs every locale is checked against.
const SourceFileName = "source.json"

// Message IDs become JavaScript property names in the generated bundle.
var messageIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SourceMessage is one entry of source.json.
type SourceMessage struct {
	Description string `json:"description"`
	Message     string `json:"message"`
}

// Catalog is the validated set of string tables for a list of locales.
type Catalog struct {
	IDs     []string                     // sorted message IDs from source.json
	Locales []string                     // canonical tags, sorted
	Tables  map[string]map[string]string // locale -> id -> translation
	Missing map[string]int               // locale -> untranslated ID count
}

// SourcePath returns the source.json path inside dir.
func SourcePath(dir string) string {
	return filepath.Join(dir, SourceFileName)
}

// LocalePath returns the table path for a canonical locale tag inside dir.
func LocalePath(dir, tag string) string {
	return filepath.Join(dir, tag+".json")
}

// Inputs lists the files a catalog for locales is built from.
func Inputs(dir string, locales []string) []string {
	out := []string{SourcePath(dir)}
	for _, tag := range locales {
		out = append(out, LocalePath(dir, tag))
	}
	return out
}

// LoadSource reads and validates source.json.
func LoadSource(dir string) (map[string]SourceMessage, error) {
	path := SourcePath(dir)
	var src map[string]SourceMessage
	if err := readJSON(path, &src); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, ferrors.LocalizationError("source table has no messages").
			WithContext("path", path).
			Build()
	}
	for id := range src {
		if !messageIDPattern.MatchString(id) {
			return nil, ferrors.LocalizationError("invalid message id").
				WithContext("path", path).
				WithContext("id", id).
				Build()
		}
	}
	return src, nil
}

// LoadCatalog reads the source table and one table per locale from dir.
// locales must already be canonical (see Normalize).
func LoadCatalog(ctx context.Context, dir string, locales []string) (*Catalog, error) {
	src, err := LoadSource(dir)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(src))
	for id := range src {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cat := &Catalog{
		IDs:     ids,
		Locales: append([]string(nil), locales...),
		Tables:  make(map[string]map[string]string, len(locales)),
		Missing: make(map[string]int, len(locales)),
	}
	sort.Strings(cat.Locales)

	for _, tag := range cat.Locales {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := LocalePath(dir, tag)
		var raw map[string]*string
		if err := readJSON(path, &raw); err != nil {
			return nil, err
		}
		table := make(map[string]string, len(raw))
		for id, text := range raw {
			if _, ok := src[id]; !ok {
				return nil, ferrors.LocalizationError("locale table has unknown message id").
					WithContext("locale", tag).
					WithContext("id", id).
					WithContext("path", path).
					Build()
			}
			// null means untranslated
			if text != nil {
				table[id] = *text
			}
		}

		missing := len(ids) - len(table)
		cat.Tables[tag] = table
		cat.Missing[tag] = missing
		if missing > 0 {
			slog.Debug("Locale has untranslated messages", logfields.Locale(tag), logfields.Count(missing))
		}
	}

	return cat, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		b := ferrors.WrapError(err, ferrors.CategoryLocalization, "read string table").
			Fatal().
			WithContext("path", path)
		if errors.Is(err, fs.ErrNotExist) {
			b = ferrors.WrapError(err, ferrors.CategoryLocalization, "string table not found").
				Fatal().
				WithContext("path", path)
		}
		return b.Build()
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryLocalization, "parse string table").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return nil
}
