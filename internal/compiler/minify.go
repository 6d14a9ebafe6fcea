package compiler

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

// MinifyCSS minifies a stylesheet with esbuild's CSS transform.
func MinifyCSS(css []byte, sourcefile string) ([]byte, error) {
	result := api.Transform(string(css), api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       sourcefile,
		MinifyWhitespace: true,
		MinifySyntax:     true,
	})

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return nil, ferrors.StylesheetError("minify css").
			WithContext("source", sourcefile).
			WithContext("errors", strings.Join(msgs, "; ")).
			Build()
	}
	return result.Code, nil
}
