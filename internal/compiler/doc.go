// Package compiler holds the two build steps: compiling LESS stylesheets
// into CSS and generating the localization bundle.
//
// Both steps skip work when their output is newer than every input and was
// built with the same settings, unless forced. They write their output atomically, and report failure as a classified
// error.
package compiler
