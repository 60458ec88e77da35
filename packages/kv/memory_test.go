package kv

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets every behaviour test run against both implementations.
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store {
			s, err := NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SetGet(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			key := MakeKey("session", "example.com", "/")
			_, ok, err := s.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, key, "abc"))
			v, ok, err := s.Get(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "abc", v)

			require.NoError(t, s.Set(ctx, key, "def"))
			v, _, _ = s.Get(ctx, key)
			assert.Equal(t, "def", v)
		})
	}
}

func TestStore_KeyPartsAreDistinct(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			require.NoError(t, InsertPart(ctx, s, "id", "a.com", "/", "1"))
			require.NoError(t, InsertPart(ctx, s, "id", "b.com", "/", "2"))
			require.NoError(t, InsertPart(ctx, s, "id", "a.com", "/api", "3"))

			v, _ := GetOr(ctx, s, MakeKey("id", "a.com", "/"), "")
			assert.Equal(t, "1", v)
			v, _ = GetOr(ctx, s, MakeKey("id", "b.com", "/"), "")
			assert.Equal(t, "2", v)
			v, _ = GetOr(ctx, s, MakeKey("id", "a.com", "/api"), "")
			assert.Equal(t, "3", v)
		})
	}
}

func TestStore_GetOrIncludes(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			key := MakeKey("k", "d", "/p")
			v, err := GetOr(ctx, s, key, "fallback")
			require.NoError(t, err)
			assert.Equal(t, "fallback", v)

			ok, err := Includes(ctx, s, key)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, key, "real"))
			v, _ = GetOr(ctx, s, key, "fallback")
			assert.Equal(t, "real", v)
			ok, _ = Includes(ctx, s, key)
			assert.True(t, ok)
		})
	}
}

func TestStore_Update(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			key := MakeKey("k", "d", "/")
			old, ok, err := s.Update(ctx, key, "v1")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, old)

			exists, _ := Includes(ctx, s, key)
			assert.False(t, exists, "update must not create missing keys")

			require.NoError(t, s.Set(ctx, key, "v1"))
			old, ok, err = s.Update(ctx, key, "v2")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v1", old)

			v, _, _ := s.Get(ctx, key)
			assert.Equal(t, "v2", v)
		})
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore()
			defer s.Close()

			require.NoError(t, InsertPart(ctx, s, "b", "x.com", "/", "1"))
			require.NoError(t, InsertPart(ctx, s, "a", "x.com", "/", "2"))
			require.NoError(t, InsertPart(ctx, s, "a", "y.com", "/", "3"))

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, MakeKey("a", "x.com", "/"), all[0].Key)
			assert.Equal(t, MakeKey("b", "x.com", "/"), all[1].Key)
			assert.Equal(t, MakeKey("a", "y.com", "/"), all[2].Key)

			onlyY, err := s.List(ctx, "y.com")
			require.NoError(t, err)
			require.Len(t, onlyY, 1)
			assert.Equal(t, "3", onlyY[0].Value)

			require.NoError(t, s.Delete(ctx, MakeKey("a", "x.com", "/")))
			require.NoError(t, s.Delete(ctx, MakeKey("missing", "x.com", "/")))
			all, _ = s.List(ctx, "")
			assert.Len(t, all, 2)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Close())

			err := s.Set(context.Background(), MakeKey("a", "b", "/"), "c")
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := MakeKey("n", "d", "/")
			_ = s.Set(ctx, key, "v")
			_, _, _ = s.Get(ctx, key)
			_, _, _ = s.Update(ctx, key, "w")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
}
