// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/meminj"
	"github.com/ava-labs/symmem/memory"
	"github.com/ava-labs/symmem/perm"
	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
	"github.com/ava-labs/symmem/vtree"
	"github.com/ava-labs/symmem/vtree/vtreetest"
)

func TestRefinesReflexive(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	r := rand.New(rand.NewSource(30)) //nolint:gosec

	for i := 0; i < iterations/10; i++ {
		m := randomMap(t, r, env, 5)
		require.NoError(memory.Refines(env, meminj.Identity(), m, m))
	}
	require.True(memory.IsRefinement(env, meminj.Identity(), memory.New(), memory.New()))
}

func TestRefinesTransitive(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	r := rand.New(rand.NewSource(31)) //nolint:gosec

	for i := 0; i < iterations/10; i++ {
		m3 := randomMap(t, r, env, 5)
		m2, f2 := carve(t, r, env, m3, 100)
		m1, f1 := carve(t, r, env, m2, 200)
		require.NoError(memory.Refines(env, f2, m2, m3))
		require.NoError(memory.Refines(env, f1, m1, m2))

		f, err := meminj.Compose(f1, f2)
		require.NoError(err)
		require.Equal(m1.Len(), f.Len())
		require.NoError(memory.Refines(env, f, m1, m3))
	}
}

func TestRefinesWeakening(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	r := rand.New(rand.NewSource(32)) //nolint:gosec

	larger := env.Clone()
	require.NoError(larger.DeclareUnion("both", types.StructType("pair"), types.StructType("rec")))

	for i := 0; i < iterations/10; i++ {
		m2 := randomMap(t, r, env, 4)
		m1, f := carve(t, r, env, m2, 100)

		g := meminj.New()
		for _, src := range m1.Indices() {
			dst, p, _ := f.Lookup(src)
			require.NoError(g.Insert(src, meminj.Target{Index: dst, Path: p}))
		}
		require.NoError(g.Insert(999, meminj.Target{Index: 999}))
		require.True(g.AgreesOn(f, m1.Dom()))

		require.NoError(memory.Refines(larger, f, m1, m2))
		require.NoError(memory.Refines(larger, g, m1, m2))
	}
}

func TestRefinesTransport(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	r := rand.New(rand.NewSource(33)) //nolint:gosec

	for i := 0; i < iterations; i++ {
		m2 := randomMap(t, r, env, 3)
		m1, f := carve(t, r, env, m2, 100)
		require.NoError(memory.Refines(env, f, m1, m2))

		for _, o1 := range m1.Indices() {
			o2, p, ok := f.Lookup(o1)
			require.True(ok)

			// liveness
			if m1.IsAlive(o1) {
				require.True(m2.IsAlive(o2))
			}

			// typed indices
			t1, ok := m1.TypeOf(o1)
			require.True(ok)
			t2, ok := m2.TypeOf(o2)
			require.True(ok)
			sub, ok := ref.TypeOf(env, t2, p)
			require.True(ok)
			require.True(t1.Equal(sub))
		}

		// lookups
		a1 := randomAddr(t, r, env, m1)
		a2 := target(t, f, m2, a1)
		require.True(a1.Refines(env, f, a2))
		w1 := m1.Lookup(env, a1)
		require.True(w1.HasValue())
		w2 := m2.Lookup(env, a2)
		require.True(w2.HasValue(), "%s refined by %s", a1, a2)
		require.True(w1.Value().Refines(w2.Value()))

		// alters
		g := vtreetest.Set(byte(i))
		require.NoError(memory.Refines(env, f, m1.Alter(env, g, a1), m2.Alter(env, g, a2)))
	}
}

func TestRefinesFailures(t *testing.T) {
	env := vtreetest.Env()
	rw := perm.New(perm.Write)
	pair := vtree.NewStruct("pair", intTree(rw, 1, 2, 3, 4), intTree(rw, 5, 6, 7, 8))

	insert := func(m memory.Map, i addr.Index, tree *vtree.Tree, alive bool) memory.Map {
		m, err := m.Insert(i, tree, alive)
		require.NoError(t, err)
		return m
	}
	inject := func(src addr.Index, dst addr.Index, p ...ref.Segment) *meminj.Injection {
		f := meminj.New()
		require.NoError(t, f.Insert(src, meminj.Target{Index: dst, Path: p}))
		return f
	}
	field := ref.StructSeg("pair", 1)

	whole := insert(memory.New(), 1, pair, false)
	liveWhole := insert(memory.New(), 1, pair, true)
	source := insert(memory.New(), 10, intTree(rw, 5, 6, 7, 8), false)
	liveSource := insert(memory.New(), 10, intTree(rw, 5, 6, 7, 8), true)

	tests := []struct {
		name   string
		f      *meminj.Injection
		m1, m2 memory.Map
		err    error
	}{
		{
			name: "field",
			f:    inject(10, 1, field),
			m1:   source,
			m2:   whole,
		},
		{
			name: "less defined field",
			f:    inject(10, 1, field),
			m1:   insert(memory.New(), 10, blur(rand.New(rand.NewSource(1)), intTree(rw, 5, 6, 7, 8)), false), //nolint:gosec
			m2:   whole,
		},
		{
			name: "unmapped sources are free",
			f:    meminj.New(),
			m1:   source,
			m2:   memory.New(),
		},
		{
			name: "whole live object",
			f:    inject(10, 1),
			m1:   insert(memory.New(), 10, pair, true),
			m2:   liveWhole,
		},
		{
			name: "missing target",
			f:    inject(10, 2, field),
			m1:   source,
			m2:   whole,
			err:  memory.ErrMissingTarget,
		},
		{
			name: "liveness mismatch",
			f:    inject(10, 1, field),
			m1:   liveSource,
			m2:   whole,
			err:  memory.ErrLivenessMismatch,
		},
		{
			name: "live sub-object",
			f:    inject(10, 1, field),
			m1:   liveSource,
			m2:   liveWhole,
			err:  memory.ErrLiveSubobject,
		},
		{
			name: "unresolved path",
			f:    inject(10, 1, ref.StructSeg("pair", 2)),
			m1:   source,
			m2:   whole,
			err:  memory.ErrUnresolvedPath,
		},
		{
			name: "different contents",
			f:    inject(10, 1, ref.StructSeg("pair", 0)),
			m1:   source,
			m2:   whole,
			err:  memory.ErrNotRefined,
		},
		{
			name: "more defined source",
			f:    inject(10, 1, field),
			m1:   source,
			m2:   insert(memory.New(), 1, vtree.NewStruct("pair", intTree(rw, 1, 2, 3, 4), mustFill(t, env, types.Int32, vtree.IndetByte(rw))), false),
			err:  memory.ErrNotRefined,
		},
		{
			name: "different permissions",
			f:    inject(10, 1, field),
			m1:   insert(memory.New(), 10, intTree(perm.New(perm.Read), 5, 6, 7, 8), false),
			m2:   whole,
			err:  memory.ErrNotRefined,
		},
		{
			name: "invalid source",
			f:    inject(10, 1, field),
			m1:   insert(memory.New(), 10, intTree(perm.Perm{}, 0, 0, 0, 0), false),
			m2:   whole,
			err:  memory.ErrInvalidSource,
		},
		{
			name: "invalid target",
			f:    inject(10, 1, field),
			m1:   source,
			m2:   insert(whole, 2, vtree.NewStruct("pair"), false),
			err:  memory.ErrInvalidTarget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			err := memory.Refines(env, tt.f, tt.m1, tt.m2)
			require.ErrorIs(err, tt.err)
			require.Equal(tt.err == nil, memory.IsRefinement(env, tt.f, tt.m1, tt.m2))
		})
	}
}

func mustFill(t *testing.T, env *types.Env, typ types.Type, b vtree.Byte) *vtree.Tree {
	tree, err := vtree.Fill(env, typ, b)
	require.NoError(t, err)
	return tree
}
