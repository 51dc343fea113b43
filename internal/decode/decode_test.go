package decode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestLookup(t *testing.T) {
	m := obj(t, `{"a":{"b":{"c":1}},"n":null,"s":"x"}`)

	v, ok := Lookup(m, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, float64(1), v)

	_, ok = Lookup(m, "a.x")
	assert.False(t, ok)
	_, ok = Lookup(m, "s.deeper")
	assert.False(t, ok)
	_, ok = Lookup(m, "n")
	assert.False(t, ok, "null counts as absent")
}

func TestIntCandidates(t *testing.T) {
	m := obj(t, `{"first":"", "second":"abc", "third":"42", "fourth":7}`)

	n, ok := Int(m, "missing", "first", "second", "third", "fourth")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	n, ok = Int(m, "fourth")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = Int(m, "missing", "second")
	assert.False(t, ok)

	_, ok = ToInt(true)
	assert.False(t, ok)
	_, ok = ToInt(nil)
	assert.False(t, ok)
	n, ok = ToInt(float64(3.9))
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = ToInt(" 010 ")
	assert.True(t, ok)
	assert.Equal(t, 10, n)
	n, ok = ToInt("08")
	assert.True(t, ok)
	assert.Equal(t, 8, n)
	_, ok = ToInt("0x10")
	assert.False(t, ok)
}

func TestStringAndPick(t *testing.T) {
	m := obj(t, `{"blank":"  ","name":" cam ","num":5}`)

	s, ok := String(m, "blank", "num", "name")
	assert.True(t, ok)
	assert.Equal(t, "cam", s)

	v, ok := Pick(m, "blank", "num")
	assert.True(t, ok)
	assert.Equal(t, float64(5), v)

	_, ok = Pick(m, "blank", "missing")
	assert.False(t, ok)
}

func TestToBool(t *testing.T) {
	for in, want := range map[any]bool{
		true: true, false: false, "YES": true, "off": false, "1": true, float64(0): false,
	} {
		got, ok := ToBool(in)
		assert.True(t, ok, "%v", in)
		assert.Equal(t, want, got, "%v", in)
	}

	_, ok := ToBool("maybe")
	assert.False(t, ok)
	_, ok = ToBool(nil)
	assert.False(t, ok)

	m := obj(t, `{"isAdmin":"", "admin":"true"}`)
	b, ok := Bool(m, "isAdmin", "admin")
	assert.True(t, ok)
	assert.True(t, b)
}
