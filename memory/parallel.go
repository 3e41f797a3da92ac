// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/set"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/types"
)

// Update is a pending alter.
type Update struct {
	Addr addr.Addr
	Fn   Transform
}

// ApplyDisjoint applies [updates] to [m]. The updates must point to pairwise
// disjoint storage. Each updated object is handed to its own goroutine and
// the results are merged back, which gives the same map as applying the
// updates one after the other in any order.
func ApplyDisjoint(ctx context.Context, env *types.Env, m Map, updates []Update) (Map, error) {
	for i := range updates {
		for j := i + 1; j < len(updates); j++ {
			if !updates[i].Addr.Disjoint(env, updates[j].Addr) {
				return m, fmt.Errorf("%w: %s and %s", ErrOverlappingUpdates, updates[i].Addr, updates[j].Addr)
			}
		}
	}

	byObject := make(map[addr.Index][]Update)
	for _, u := range updates {
		if _, ok := m.objects[u.Addr.Index]; !ok {
			continue
		}
		byObject[u.Addr.Index] = append(byObject[u.Addr.Index], u)
	}
	indices := maps.Keys(byObject)
	slices.Sort(indices)

	results := make([]Map, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	for n, i := range indices {
		n, i := n, i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sub := m.Restrict(set.Of(i))
			for _, u := range byObject[i] {
				sub = sub.Alter(env, u.Fn, u.Addr)
			}
			results[n] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return m, err
	}

	untouched := m.Dom()
	for _, i := range indices {
		untouched.Remove(i)
	}
	out := m.Restrict(untouched)
	for _, r := range results {
		out = Union(out, r)
	}
	return out, nil
}
