// Package output renders responses and errors for the command line.
//
// Supported output formats:
//   - Console: colored status line, optional headers, pretty-printed JSON bodies
//   - JSON: one machine-readable envelope per response
package output
