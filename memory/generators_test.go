// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory_test

import (
	"math/rand"
	"testing"

	"github.com/ava-labs/avalanchego/utils/maybe"
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

const iterations = 200

func randomMap(t *testing.T, r *rand.Rand, env *types.Env, n int) memory.Map {
	m := memory.New()
	for i := 1; i <= n; i++ {
		tree := vtreetest.RandomTree(r, env, vtreetest.RandomType(r), perm.Write)
		var err error
		m, err = m.Insert(addr.Index(i), tree, r.Intn(2) == 0)
		require.NoError(t, err)
	}
	return m
}

// randomAddr returns a strict address of [m] that resolves. One in three is
// byte-granular.
func randomAddr(t *testing.T, r *rand.Rand, env *types.Env, m memory.Map) addr.Addr {
	indices := m.Indices()
	i := indices[r.Intn(len(indices))]
	o, _ := m.Get(i)
	a, ok := addr.New(i, o.Tree.Type()).Down(env, vtreetest.RandomPath(r, env, o.Tree))
	require.True(t, ok)
	if r.Intn(3) != 0 {
		return a
	}
	size, ok := env.SizeOf(a.RefType)
	require.True(t, ok)
	a, ok = a.Bytes().Plus(env, int64(r.Intn(int(size))))
	require.True(t, ok)
	return a
}

// objAddr returns a strict, object-granular address of [m].
func objAddr(t *testing.T, r *rand.Rand, env *types.Env, m memory.Map) addr.Addr {
	for {
		if a := randomAddr(t, r, env, m); a.IsObj() {
			return a
		}
	}
}

// thaw returns [a] with every union segment unfrozen.
func thaw(a addr.Addr) addr.Addr {
	if len(a.Ref) == 0 {
		return a
	}
	p := make(ref.Path, len(a.Ref))
	for i, s := range a.Ref {
		s.Frozen = false
		p[i] = s
	}
	a.Ref = p
	return a
}

func sameResult(x, y maybe.Maybe[*vtree.Tree]) bool {
	if x.IsNothing() || y.IsNothing() {
		return x.IsNothing() == y.IsNothing()
	}
	return x.Value().Equal(y.Value())
}

// blur makes some determinate bytes of [w] indeterminate, giving a tree that
// [w] refines.
func blur(r *rand.Rand, w *vtree.Tree) *vtree.Tree {
	return w.MapBytes(func(b vtree.Byte) vtree.Byte {
		if b.Perm.IsEmpty() || r.Intn(4) != 0 {
			return b
		}
		return vtree.IndetByte(b.Perm)
	})
}

// carve returns a memory with one object per object of [m] that refines a
// sub-object of it, together with the injection that relates them. Live
// objects are carved whole.
func carve(t *testing.T, r *rand.Rand, env *types.Env, m memory.Map, base addr.Index) (memory.Map, *meminj.Injection) {
	require := require.New(t)
	out := memory.New()
	f := meminj.New()
	for _, i := range m.Indices() {
		o, _ := m.Get(i)
		var p ref.Path
		if !o.Alive {
			p = vtreetest.RandomPath(r, env, o.Tree)
		}
		w, ok := o.Tree.Lookup(p)
		require.True(ok)

		var err error
		out, err = out.Insert(base+i, blur(r, w), o.Alive)
		require.NoError(err)
		require.NoError(f.Insert(base+i, meminj.Target{Index: i, Path: p}))
	}
	return out, f
}

// target returns the address of [m2] that [a] is related to by [f].
func target(t *testing.T, f *meminj.Injection, m2 memory.Map, a addr.Addr) addr.Addr {
	dst, p, ok := f.Lookup(a.Index)
	require.True(t, ok)
	typ, ok := m2.TypeOf(dst)
	require.True(t, ok)
	return addr.Addr{
		Index:   dst,
		Type:    typ,
		Ref:     ref.Concat(p, a.Ref),
		Offset:  a.Offset,
		RefType: a.RefType,
		PtrType: a.PtrType,
	}
}

func intTree(p perm.Perm, vals ...byte) *vtree.Tree {
	bytes := make([]vtree.Byte, len(vals))
	for i, v := range vals {
		bytes[i] = vtree.NewByte(p, v)
	}
	return vtree.NewBase(types.Int32, bytes)
}
