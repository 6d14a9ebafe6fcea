// Package errors provides the classified error type used across uibuild.
//
// A ClassifiedError carries a category (what kind of thing failed), a
// severity and free-form context. Errors are built with the fluent
// ErrorBuilder:
//
//	err := errors.StylesheetError("lessc failed").
//		WithCause(runErr).
//		WithContext("module", "ui/controls").
//		Build()
//
// CLIErrorAdapter turns any error into a user-facing message and the
// process exit code.
package errors
