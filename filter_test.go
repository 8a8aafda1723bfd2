package pngn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefilterNone(t *testing.T) {
	line := []byte{filterNone, 10, 20, 30}
	prev := []byte{0, 1, 2, 3}

	require.NoError(t, defilter(line, prev, 1))
	require.Equal(t, []byte{filterNone, 10, 20, 30}, line)
}

func TestDefilterSub(t *testing.T) {
	// bpp 3: each byte adds the byte one pixel to the left; the first pixel
	// has no left neighbor and stays as stored.
	line := []byte{filterSub, 10, 20, 30, 5, 5, 5}
	prev := make([]byte, len(line))

	require.NoError(t, defilter(line, prev, 3))
	require.Equal(t, []byte{filterSub, 10, 20, 30, 15, 25, 35}, line)
}

func TestDefilterSubWraps(t *testing.T) {
	line := []byte{filterSub, 200, 100}
	prev := make([]byte, len(line))

	require.NoError(t, defilter(line, prev, 1))
	require.Equal(t, []byte{filterSub, 200, 44}, line)
}

func TestDefilterUp(t *testing.T) {
	line := []byte{filterUp, 5, 5, 5}
	prev := []byte{0, 10, 20, 30}

	require.NoError(t, defilter(line, prev, 3))
	require.Equal(t, []byte{filterUp, 15, 25, 35}, line)
}

func TestDefilterAverage(t *testing.T) {
	// First byte: left 0, up 4, floor((0+4)/2) = 2. Second: left is now the
	// reconstructed 12, up 6, floor(18/2) = 9.
	line := []byte{filterAverage, 10, 10}
	prev := []byte{0, 4, 6}

	require.NoError(t, defilter(line, prev, 1))
	require.Equal(t, []byte{filterAverage, 12, 19}, line)
}

func TestDefilterPaethZeroNeighbors(t *testing.T) {
	// With no left, up or up-left neighbor the predictor is zero and the
	// filtered bytes pass through unchanged.
	line := []byte{filterPaeth, 11, 22, 33}
	prev := make([]byte, len(line))

	require.NoError(t, defilter(line, prev, 3))
	require.Equal(t, []byte{filterPaeth, 11, 22, 33}, line)
}

func TestDefilterPaeth(t *testing.T) {
	line := []byte{filterPaeth, 3, 1}
	prev := []byte{0, 2, 4}

	require.NoError(t, defilter(line, prev, 1))
	require.Equal(t, []byte{filterPaeth, 5, 6}, line)
}

func TestDefilterUnknownType(t *testing.T) {
	for _, typ := range []byte{5, 9, 255} {
		line := []byte{typ, 1, 2, 3}
		prev := make([]byte, len(line))

		err := defilter(line, prev, 1)
		require.ErrorIs(t, err, ErrFilterType)
	}
}

func TestPaethPredictor(t *testing.T) {
	// Ties resolve in the order left, up, up-left.
	tests := []struct {
		a, b, c int
		want    int
	}{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{10, 20, 10, 20},
		{20, 10, 10, 20},
		{5, 5, 10, 5},
		{0, 4, 2, 2},
		{128, 64, 0, 128},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, paeth(tt.a, tt.b, tt.c),
			"paeth(%d, %d, %d)", tt.a, tt.b, tt.c)
	}
}
