package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Key identifies a value by name, domain and path.
type Key struct {
	Name   string
	Domain string
	Path   string
}

// MakeKey builds a Key from its parts.
func MakeKey(name, domain, path string) Key {
	return Key{Name: name, Domain: domain, Path: path}
}

func (k Key) String() string {
	return k.Name + "@" + k.Domain + k.Path
}

// Entry is a stored key and its value.
type Entry struct {
	Key   Key
	Value string
}

// Store is implemented by MemoryStore and SQLiteStore.
type Store interface {
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value string) error
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key Key) (string, bool, error)
	// Update replaces the value under an existing key and returns the old
	// value. Missing keys are left untouched and reported with ok == false.
	Update(ctx context.Context, key Key, value string) (old string, ok bool, err error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error
	// List returns every entry for domain, or every entry if domain is
	// empty, ordered by domain, path and name.
	List(ctx context.Context, domain string) ([]Entry, error)
	Close() error
}

// GetOr returns the value under key, or def when the key is missing.
func GetOr(ctx context.Context, s Store, key Key, def string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Includes reports whether key exists.
func Includes(ctx context.Context, s Store, key Key) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// InsertPart stores value under the key built from name, domain and path.
func InsertPart(ctx context.Context, s Store, name, domain, path, value string) error {
	return s.Set(ctx, MakeKey(name, domain, path), value)
}
