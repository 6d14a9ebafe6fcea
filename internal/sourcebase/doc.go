// Package sourcebase resolves the source tree a build operates on and
// enumerates the files inside it.
//
// The base directory is the one that contains the UI sources (the "ui"
// marker directory). It is found through the enclosing git work tree when
// there is one, and by walking upward from the start directory otherwise.
package sourcebase
