package locales

import (
	"encoding/json"
	"io"
	"sort"
	"text/template"
)

var bundleTemplate = template.Must(template.New("locales").Funcs(template.FuncMap{
	"js": jsString,
}).Parse(`// Generated by uibuild. DO NOT EDIT.

goog.provide('shaka.ui.Locales');

goog.require('shaka.ui.Localization');

/**
 * Insert all localization data for the UI into |localization|.
 *
 * @param {!shaka.ui.Localization} localization
 */
shaka.ui.Locales.addTo = function(localization) {
{{- range .Locales}}
  localization.insert({{js .Tag}}, new Map([
{{- range .Entries}}
    [{{js .ID}}, {{js .Text}}],
{{- end}}
  ]));
{{- end}}
};

/** @enum {string} */
shaka.ui.Locales.Ids = {
{{- range .IDs}}
  {{.}}: {{js .}},
{{- end}}
};
`))

type bundleEntry struct {
	ID   string
	Text string
}

type bundleLocale struct {
	Tag     string
	Entries []bundleEntry
}

type bundleData struct {
	Locales []bundleLocale
	IDs     []string
}

// Render writes the JavaScript bundle for c. Locales and message IDs are
// emitted in sorted order so identical inputs give identical output.
func Render(w io.Writer, c *Catalog) error {
	data := bundleData{IDs: c.IDs}
	for _, tag := range c.Locales {
		table := c.Tables[tag]
		ids := make([]string, 0, len(table))
		for id := range table {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		loc := bundleLocale{Tag: tag, Entries: make([]bundleEntry, 0, len(ids))}
		for _, id := range ids {
			loc.Entries = append(loc.Entries, bundleEntry{ID: id, Text: table[id]})
		}
		data.Locales = append(data.Locales, loc)
	}
	return bundleTemplate.Execute(w, data)
}

// jsString quotes s as a JavaScript string literal. JSON string syntax is a
// subset of JavaScript's, and HTML-sensitive characters come out escaped.
func jsString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
