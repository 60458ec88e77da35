// Package kv is a key/value store whose keys are (name, domain, path)
// triples, the same triple that identifies a cookie.
//
// Two implementations are provided: MemoryStore for in-process use and
// SQLiteStore for state that must survive restarts. Both are safe for
// concurrent use.
package kv
