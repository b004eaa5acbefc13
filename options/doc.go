// Package options normalizes loosely-typed mask specifications into the
// typed option tree the masking engine consumes.
//
// A specification arrives in one of four shapes: a named pattern key
// ("ssn"), a literal pattern string, JSON text, or an already-structured
// map. Resolve turns all of them into a Value tree whose leaves are
// strings, numbers, booleans, compiled patterns, or reserved engine type
// tokens. String values under "mask" keys get a secondary grammar:
// "/pattern/flags" compiles to a regular expression and the reserved
// tokens Number, Date, Range and Enum select engine masked types.
//
// Resolution never fails on malformed text; it degrades to treating the
// input as a literal pattern. Only a specification that is neither a
// string nor a map is an error.
package options
