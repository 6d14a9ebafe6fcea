// Package build runs the UI build: it prepares the output directory,
// generates the localization bundle and compiles each LESS module, in that
// order, stopping at the first failing stage.
//
// Every run produces a Report. The report's outcome maps to the process exit
// code: 0 when every stage succeeded and 1 otherwise.
package build
