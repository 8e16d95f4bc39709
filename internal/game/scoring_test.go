package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoints(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	limit := 20 * time.Second

	t.Run("instant answer scores full base", func(t *testing.T) {
		require.Equal(t, 1000, Points(t0, t0, limit, 1000))
	})

	t.Run("answer at the limit scores zero", func(t *testing.T) {
		require.Equal(t, 0, Points(t0, t0.Add(limit), limit, 1000))
	})

	t.Run("answer past the limit scores zero", func(t *testing.T) {
		require.Equal(t, 0, Points(t0, t0.Add(limit+5*time.Second), limit, 1000))
	})

	t.Run("answer just under the limit hits the 0.1 floor", func(t *testing.T) {
		answer := t0.Add(19*time.Second + 980*time.Millisecond)
		require.Equal(t, 100, Points(t0, answer, limit, 1000))
	})

	t.Run("linear decay in between", func(t *testing.T) {
		// 4s of 20s used: factor 0.8.
		require.Equal(t, 800, Points(t0, t0.Add(4*time.Second), limit, 1000))
		// 10s of 20s used: factor 0.5.
		require.Equal(t, 500, Points(t0, t0.Add(10*time.Second), limit, 1000))
	})

	t.Run("negative elapsed never scores", func(t *testing.T) {
		require.Equal(t, 0, Points(t0, t0.Add(-3*time.Second), limit, 1000))
	})
}
