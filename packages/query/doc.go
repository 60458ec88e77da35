// Package query turns a flat JSON object into URL query parameters.
//
// Keys keep the order in which they appear in the object. String values are
// used unquoted; every other value type is used as its compact JSON text, so
// the number 5 becomes "5" and an array becomes "[1,2]".
package query
