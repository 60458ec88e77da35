package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("get")
	require.NoError(t, err)
	assert.Equal(t, MethodGet, m)

	m, err = ParseMethod("DELETE")
	require.NoError(t, err)
	assert.Equal(t, MethodDelete, m)

	_, err = ParseMethod("PATCH")
	assert.Error(t, err)
}

func TestBody(t *testing.T) {
	s, err := TextBody(`{"raw": true}`).String()
	require.NoError(t, err)
	assert.Equal(t, `{"raw": true}`, s)

	var zero Body
	s, err = zero.String()
	require.NoError(t, err)
	assert.Equal(t, "", s)
	assert.False(t, zero.IsJSON())

	b := JSONBody(map[string]any{"a": 1})
	assert.True(t, b.IsJSON())
	s, err = b.String()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, s)

	_, err = JSONBody(make(chan int)).String()
	assert.Error(t, err)
}

func TestHeaderSource_Text(t *testing.T) {
	h, err := TextHeaders("Accept: application/json\r\n\nX-Trace:  abc \n").Map()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Trace": "abc"}, h)

	_, err = TextHeaders("no separator here").Map()
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestHeaderSource_JSON(t *testing.T) {
	h, err := JSONHeaders(`{"Accept": "text/plain", "X-Retry": 3}`).Map()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "text/plain", "X-Retry": "3"}, h)

	h, err = JSONHeaders("").Map()
	require.NoError(t, err)
	assert.Empty(t, h)

	_, err = JSONHeaders(`["Accept"]`).Map()
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = JSONHeaders(`{"Accept":`).Map()
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestHeaderSource_Map(t *testing.T) {
	m := map[string]string{"A": "1"}
	h, err := MapHeaders(m).Map()
	require.NoError(t, err)
	assert.Equal(t, m, h)

	var zero HeaderSource
	h, err = zero.Map()
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestRequestError(t *testing.T) {
	err := newError(KindNetwork, MethodGet, "http://example.com", assert.AnError)

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(assert.AnError))
	assert.Contains(t, err.Error(), "network error GET http://example.com")
	assert.Equal(t, "NetworkError", KindNetwork.String())
}
