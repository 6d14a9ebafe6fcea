package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

func localeFixture(t *testing.T) (srcDir, output string) {
	t.Helper()
	base := t.TempDir()
	srcDir = filepath.Join(base, "ui", "locales")
	require.NoError(t, os.MkdirAll(srcDir, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "dist"), 0o750))
	files := map[string]string{
		"source.json": `{"MUTE": {"description": "Mute button", "message": "Mute"}}`,
		"en.json":     `{"MUTE": "Mute"}`,
		"pt-BR.json":  `{"MUTE": "Silenciar"}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, name), []byte(body), 0o600))
	}
	return srcDir, filepath.Join(base, "dist", "locales.js")
}

func TestGenerateLocalizations(t *testing.T) {
	srcDir, output := localeFixture(t)
	g := NewGenerateLocalizations([]string{"pt-br", "en"}, srcDir, output)

	require.NoError(t, g.Generate(context.Background(), false))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(data), `localization.insert("pt-BR", new Map([`)
	require.Contains(t, string(data), `["MUTE", "Silenciar"],`)
}

func TestGenerateLocalizations_UpToDate(t *testing.T) {
	srcDir, output := localeFixture(t)
	g := NewGenerateLocalizations([]string{"en"}, srcDir, output)
	require.NoError(t, g.Generate(context.Background(), false))

	old := time.Now().Add(-time.Hour)
	for _, f := range []string{"source.json", "en.json"} {
		require.NoError(t, os.Chtimes(filepath.Join(srcDir, f), old, old))
	}
	sentinel := []byte("// untouched")
	require.NoError(t, os.WriteFile(output, sentinel, 0o600))

	require.NoError(t, g.Generate(context.Background(), false))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, sentinel, data, "fresh output must be left alone")

	require.NoError(t, g.Generate(context.Background(), true))
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	require.NotEqual(t, sentinel, data, "force regenerates")
}

func TestGenerateLocalizations_LocaleChangeRebuilds(t *testing.T) {
	srcDir, output := localeFixture(t)
	require.NoError(t, NewGenerateLocalizations([]string{"en"}, srcDir, output).Generate(context.Background(), false))

	old := time.Now().Add(-time.Hour)
	for _, f := range []string{"source.json", "en.json", "pt-BR.json"} {
		require.NoError(t, os.Chtimes(filepath.Join(srcDir, f), old, old))
	}

	g := NewGenerateLocalizations([]string{"en", "pt-BR"}, srcDir, output)
	require.NoError(t, g.Generate(context.Background(), false))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(data), `"pt-BR"`, "a new locale set invalidates the bundle")

	sentinel := []byte("// untouched")
	require.NoError(t, os.WriteFile(output, sentinel, 0o600))
	require.NoError(t, g.Generate(context.Background(), false))
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, sentinel, data, "same locales and fresh inputs skip the rebuild")
}

func TestGenerateLocalizations_Failures(t *testing.T) {
	srcDir, output := localeFixture(t)

	err := NewGenerateLocalizations([]string{"fr"}, srcDir, output).Generate(context.Background(), true)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryLocalization))

	// A bad tag fails the step like any other localization error.
	err = NewGenerateLocalizations([]string{"not a tag"}, srcDir, output).Generate(context.Background(), true)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryLocalization))

	_, statErr := os.Stat(output)
	require.True(t, os.IsNotExist(statErr))
}
