package proximity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendspark/geohash"
	"friendspark/proximity"
)

func TestNeighbors(t *testing.T) {
	ns, err := proximity.Neighbors("u4pruy")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"u4pruz", "u4prvp", "u4prvn", "u4prvj",
		"u4pruv", "u4prut", "u4pruw", "u4prux",
	}, ns)

	ns, err = proximity.Neighbors("s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u", "v", "t", "m", "k", "7", "e", "g"}, ns)
}

func TestNeighborsAtEdges(t *testing.T) {
	ns, err := proximity.Neighbors("z")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "8", "x", "w", "y"}, ns, "north pole clips, east wraps")

	ns, err = proximity.Neighbors("0")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1", "p", "r"}, ns, "south pole clips, west wraps")
}

func TestNeighborsRejectsInvalidHash(t *testing.T) {
	_, err := proximity.Neighbors("")
	assert.ErrorIs(t, err, geohash.ErrInvalidArgument)
	_, err = proximity.Neighbors("u4pa")
	assert.ErrorIs(t, err, geohash.ErrInvalidCharacter)
}

func TestExpand(t *testing.T) {
	cells, err := proximity.Expand("u4pruy")
	require.NoError(t, err)
	require.Len(t, cells, 9)
	assert.Equal(t, "u4pruy", cells[0])

	cells, err = proximity.Expand("z")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "b", "8", "x", "w", "y"}, cells)
}
