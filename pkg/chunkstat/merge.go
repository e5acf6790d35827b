package chunkstat

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// Merge applies the fold rule to two statistics of the same key. An empty
// Stat is the identity, so Merge(Stat{}, s) == s.
func Merge(a, b Stat) Stat {
	if a.Count == 0 {
		return b
	}
	if b.Count == 0 {
		return a
	}
	return Stat{
		Key:   a.Key,
		Min:   min(a.Min, b.Min),
		Max:   max(a.Max, b.Max),
		Sum:   a.Sum.Add(b.Sum),
		Count: a.Count + b.Count,
	}
}

// Reduce folds every partial set into one global result sorted by key.
// The sets may be given in any order.
func Reduce(sets []PartialSet) Table {
	global := make(map[string]Stat)
	for _, set := range sets {
		for key, st := range set {
			global[key] = Merge(global[key], st)
		}
	}
	return tableOf(global)
}

// ShardKey assigns a key to one of n shards
func ShardKey(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

// ReduceSharded is Reduce spread over several goroutines. Each set is first
// split by key shard, then every shard is folded independently. The result
// is identical to Reduce.
func ReduceSharded(ctx context.Context, sets []PartialSet, shards int) (Table, error) {
	if shards <= 1 || len(sets) <= 1 {
		return Reduce(sets), nil
	}

	// partitioned[i][s] holds the stats of set i that belong to shard s
	partitioned := make([][][]Stat, len(sets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(shards)
	for i, set := range sets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts := make([][]Stat, shards)
			for key, st := range set {
				s := ShardKey(key, shards)
				parts[s] = append(parts[s], st)
			}
			partitioned[i] = parts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	folded := make([]Table, shards)
	g, gctx = errgroup.WithContext(ctx)
	for s := range shards {
		g.Go(func() error {
			global := make(map[string]Stat)
			for i := range partitioned {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, st := range partitioned[i][s] {
					global[st.Key] = Merge(global[st.Key], st)
				}
			}
			folded[s] = tableOf(global)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, t := range folded {
		n += len(t)
	}
	out := make(Table, 0, n)
	for _, t := range folded {
		out = append(out, t...)
	}
	sortTable(out)
	return out, nil
}
