package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"

	"friendspark/geohash"
	"friendspark/proximity"
)

const (
	cellKeyPrefix = "events:gh:"
	hashesKey     = "events:geohash"
)

// DefaultIndexedPrecision is the longest prefix that gets its own set.
const DefaultIndexedPrecision = 6

// CellIndex indexes entity ids by geohash prefix in redis. Each id is a
// member of one set per prefix length up to the indexed precision, and
// its full hash is kept in a single redis hash. Longer prefixes are
// answered from the deepest set, filtered by the stored full hash.
type CellIndex struct {
	rdb       redis.Cmdable
	precision int
}

func NewCellIndex(rdb redis.Cmdable, indexedPrecision int) *CellIndex {
	if indexedPrecision < geohash.MinPrecision || indexedPrecision > proximity.StoragePrecision {
		indexedPrecision = DefaultIndexedPrecision
	}
	return &CellIndex{rdb: rdb, precision: indexedPrecision}
}

func cellKey(prefix string) string {
	return cellKeyPrefix + prefix
}

// Add indexes id at hash, moving it if it was indexed elsewhere.
func (c *CellIndex) Add(ctx context.Context, id, hash string) error {
	if len(hash) != proximity.StoragePrecision {
		return fmt.Errorf("%w: indexed geohash %q must have %d characters",
			geohash.ErrInvalidArgument, hash, proximity.StoragePrecision)
	}
	if err := geohash.Validate(hash); err != nil {
		return err
	}
	old, err := c.stored(ctx, id)
	if err != nil {
		return err
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if old != "" && old != hash {
			c.removeCells(ctx, pipe, id, old)
		}
		for k := 1; k <= c.precision; k++ {
			pipe.SAdd(ctx, cellKey(hash[:k]), id)
		}
		pipe.HSet(ctx, hashesKey, id, hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("indexing %s: %w", id, err)
	}
	return nil
}

// Remove drops id. When hash is empty the stored hash is used.
func (c *CellIndex) Remove(ctx context.Context, id, hash string) error {
	stored, err := c.stored(ctx, id)
	if err != nil {
		return err
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, h := range []string{stored, hash} {
			if len(h) >= c.precision {
				c.removeCells(ctx, pipe, id, h)
			}
		}
		pipe.HDel(ctx, hashesKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("de-indexing %s: %w", id, err)
	}
	return nil
}

func (c *CellIndex) removeCells(ctx context.Context, pipe redis.Pipeliner, id, hash string) {
	for k := 1; k <= c.precision; k++ {
		pipe.SRem(ctx, cellKey(hash[:k]), id)
	}
}

func (c *CellIndex) stored(ctx context.Context, id string) (string, error) {
	hash, err := c.rdb.HGet(ctx, hashesKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading stored geohash of %s: %w", id, err)
	}
	return hash, nil
}

// ScanPrefix returns the ids whose stored hash starts with prefix, ordered
// by hash.
func (c *CellIndex) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := geohash.Validate(prefix); err != nil {
		return nil, err
	}
	key := prefix
	if len(key) > c.precision {
		key = key[:c.precision]
	}
	ids, err := c.rdb.SMembers(ctx, cellKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading cell %s: %w", key, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	hashes, err := c.rdb.HMGet(ctx, hashesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading stored geohashes: %w", err)
	}

	type entry struct{ hash, id string }
	entries := make([]entry, 0, len(ids))
	for i, id := range ids {
		h, ok := hashes[i].(string)
		// a set member without a matching stored hash is stale
		if !ok || !strings.HasPrefix(h, prefix) {
			continue
		}
		entries = append(entries, entry{hash: h, id: id})
	}
	if len(entries) == 0 {
		return nil, nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].hash != entries[j].hash {
			return entries[i].hash < entries[j].hash
		}
		return entries[i].id < entries[j].id
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out, nil
}

// Len returns the number of indexed ids.
func (c *CellIndex) Len(ctx context.Context) (int64, error) {
	return c.rdb.HLen(ctx, hashesKey).Result()
}
