// Package locales loads the UI string tables and renders them into the
// generated locales bundle.
//
// The source layout is one source.json holding every message ID (with an
// English message and a description for translators) and one <tag>.json per
// locale mapping message IDs to translated strings. Locale names are BCP 47
// tags and are always handled in canonical form ("pt-br" becomes "pt-BR").
package locales
