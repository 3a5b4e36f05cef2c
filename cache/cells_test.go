package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendspark/cache"
	"friendspark/config"
	"friendspark/geohash"
	"friendspark/proximity"
)

var cities = map[string]string{
	"copenhagen": "u3butzxby979",
	"malmo":      "u3chrft4de21",
	"aarhus":     "u1zr80nk857k",
	"berlin":     "u33dc0cppjs7",
}

func newIndex(t *testing.T) (*cache.CellIndex, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := cache.NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	idx := cache.NewCellIndex(rdb, 6)
	for id, h := range cities {
		require.NoError(t, idx.Add(context.Background(), id, h))
	}
	return idx, rdb
}

func TestCellIndexScanPrefix(t *testing.T) {
	idx, _ := newIndex(t)
	ctx := context.Background()

	for _, tc := range []struct {
		prefix string
		want   []string
	}{
		{"u", []string{"aarhus", "berlin", "copenhagen", "malmo"}},
		{"u3", []string{"berlin", "copenhagen", "malmo"}},
		{"u3butz", []string{"copenhagen"}},
		{"u3butzxby9", []string{"copenhagen"}},
		{"u3butzxby979", []string{"copenhagen"}},
		{"u3butzxby978", nil},
		{"9q", nil},
	} {
		ids, err := idx.ScanPrefix(ctx, tc.prefix)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ids, tc.prefix)
	}

	_, err := idx.ScanPrefix(ctx, "u3O")
	assert.ErrorIs(t, err, geohash.ErrInvalidCharacter)

	n, err := idx.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestCellIndexMove(t *testing.T) {
	idx, rdb := newIndex(t)
	ctx := context.Background()

	sf, err := geohash.Encode(37.7749, -122.4194, proximity.StoragePrecision)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, "copenhagen", sf))

	ids, err := idx.ScanPrefix(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"berlin", "malmo"}, ids)
	ids, err = idx.ScanPrefix(ctx, "9q8yy")
	require.NoError(t, err)
	assert.Equal(t, []string{"copenhagen"}, ids)

	member, err := rdb.SIsMember(ctx, "events:gh:u3but", "copenhagen").Result()
	require.NoError(t, err)
	assert.False(t, member)
}

func TestCellIndexRemove(t *testing.T) {
	idx, rdb := newIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Remove(ctx, "malmo", ""))
	require.NoError(t, idx.Remove(ctx, "berlin", cities["berlin"]))
	require.NoError(t, idx.Remove(ctx, "nobody", ""))

	ids, err := idx.ScanPrefix(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"aarhus", "copenhagen"}, ids)

	members, err := rdb.SMembers(ctx, "events:gh:u").Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aarhus", "copenhagen"}, members)
}

func TestCellIndexSkipsStaleMembers(t *testing.T) {
	idx, rdb := newIndex(t)
	ctx := context.Background()
	require.NoError(t, rdb.SAdd(ctx, "events:gh:u3", "ghost").Err())

	ids, err := idx.ScanPrefix(ctx, "u3")
	require.NoError(t, err)
	assert.NotContains(t, ids, "ghost")

	require.NoError(t, rdb.SAdd(ctx, "events:gh:9q8yyk", "ghost").Err())
	ids, err = idx.ScanPrefix(ctx, "9q8yyk")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestCellIndexRejectsShortHash(t *testing.T) {
	idx, _ := newIndex(t)
	err := idx.Add(context.Background(), "x", "u3but")
	assert.ErrorIs(t, err, geohash.ErrInvalidArgument)
}

func TestCellIndexAsScanner(t *testing.T) {
	idx, _ := newIndex(t)
	res, err := proximity.Search(context.Background(), idx, proximity.Query{
		Latitude:  55.6761,
		Longitude: 12.5683,
		Technique: proximity.RadiusTechnique,
		RadiusKm:  30,
	})
	require.NoError(t, err)
	assert.Contains(t, res.IDs, "copenhagen")
	assert.Contains(t, res.IDs, "malmo")
	assert.NotContains(t, res.IDs, "berlin")
}

func TestNewClientFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := cache.NewClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
