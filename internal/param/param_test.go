package param

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsToRange(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name Name
		in   float64
		want float64
	}{
		{Cutoff, 50, 100},
		{Cutoff, 50000, 12000},
		{Drive, 2, 0.9},
		{Sustain, 0.3, 0.3},
		{BusDCCoeff, 1, 0.9999},
		{BusCeiling, 0, 0.5},
	} {
		got, err := Normalize(tc.name, tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s(%v)", tc.name, tc.in)
	}
}

func TestNormalizeUnknown(t *testing.T) {
	t.Parallel()
	_, err := Normalize("wobble", 1)
	require.ErrorIs(t, err, ErrUnknown)
}

func TestParseIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	n, err := Parse(" FMDEPTH ")
	require.NoError(t, err)
	require.Equal(t, FMDepth, n)
	n, err = Parse("Bus.Ceiling")
	require.NoError(t, err)
	require.True(t, n.IsBus())
	_, err = Parse("nope")
	require.ErrorIs(t, err, ErrUnknown)
}

func TestNamesSortedAndComplete(t *testing.T) {
	t.Parallel()
	names := Names()
	require.Len(t, names, len(ranges))
	for i := 1; i < len(names); i++ {
		require.Less(t, string(names[i-1]), string(names[i]))
	}
}

func TestSmootherReachesTargetWithoutOvershoot(t *testing.T) {
	t.Parallel()
	s := NewSmoother(0)
	s.Target(1, 100)
	prev := 0.0
	for i := 0; i < 100; i++ {
		v := s.Next()
		require.GreaterOrEqual(t, v, prev)
		require.LessOrEqual(t, v, 1.0)
		prev = v
	}
	require.True(t, s.Settled())
	require.Equal(t, 1.0, s.Next())
}

func TestSmootherImmediateJump(t *testing.T) {
	t.Parallel()
	s := NewSmoother(0.5)
	s.Target(0.75, 0)
	require.Equal(t, 0.75, s.Value())
	require.Equal(t, 0.75, s.Next())
}
