package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateMintsValidCodes(t *testing.T) {
	reg := NewRegistry(Config{})

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		sess, err := reg.Create()
		require.NoError(t, err)

		code := sess.Code()
		require.Len(t, code, 4)
		for _, c := range code {
			require.True(t, strings.ContainsRune(codeCharset, c), "unexpected character %q in code %q", c, code)
		}
		require.False(t, seen[code], "duplicate code %q", code)
		seen[code] = true
	}
	require.Equal(t, 25, reg.Len())
}

func TestCreateHonorsConfiguredCodeLength(t *testing.T) {
	reg := NewRegistry(Config{CodeLength: 6})
	sess, err := reg.Create()
	require.NoError(t, err)
	require.Len(t, sess.Code(), 6)
}

func TestGetNormalizesUserInput(t *testing.T) {
	reg := NewRegistry(Config{})
	sess, err := reg.Create()
	require.NoError(t, err)

	got, ok := reg.Get("  " + strings.ToLower(sess.Code()) + " ")
	require.True(t, ok)
	require.Same(t, sess, got)

	_, ok = reg.Get("NOPE")
	require.False(t, ok)
}

func TestRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry(Config{})
	sess, err := reg.Create()
	require.NoError(t, err)

	reg.remove(sess.Code())
	reg.remove(sess.Code())
	require.Equal(t, 0, reg.Len())

	_, ok := reg.Get(sess.Code())
	require.False(t, ok)
}

func TestNormalizeCode(t *testing.T) {
	require.Equal(t, "AB12", NormalizeCode("  ab12 "))
	require.Equal(t, "XYZ9", NormalizeCode("xYz9"))
}
