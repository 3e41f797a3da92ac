// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vtree_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/symmem/perm"
	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
	"github.com/ava-labs/symmem/vtree"
	"github.com/ava-labs/symmem/vtree/vtreetest"
)

func intTree(p perm.Perm, vals ...byte) *vtree.Tree {
	bytes := make([]vtree.Byte, len(vals))
	for i, v := range vals {
		bytes[i] = vtree.NewByte(p, v)
	}
	return vtree.NewBase(types.Int32, bytes)
}

func TestTypeCheck(t *testing.T) {
	env := vtreetest.Env()
	rw := perm.New(perm.Write)

	tests := []struct {
		name string
		tree *vtree.Tree
		err  error
	}{
		{
			name: "int",
			tree: intTree(rw, 1, 2, 3, 4),
		},
		{
			name: "short leaf",
			tree: intTree(rw, 1, 2, 3),
			err:  vtree.ErrSizeMismatch,
		},
		{
			name: "struct",
			tree: vtree.NewStruct("pair", intTree(rw, 0, 0, 0, 0), intTree(rw, 1, 1, 1, 1)),
		},
		{
			name: "struct with missing field",
			tree: vtree.NewStruct("pair", intTree(rw, 0, 0, 0, 0)),
			err:  vtree.ErrIllTyped,
		},
		{
			name: "undeclared struct",
			tree: vtree.NewStruct("nope", intTree(rw, 0, 0, 0, 0)),
			err:  vtree.ErrIllTyped,
		},
		{
			name: "union variant without permission",
			tree: vtree.NewUnion("word", 0, vtree.NewBase(types.Long, make([]vtree.Byte, 8)), nil),
			err:  vtree.ErrInvalidByte,
		},
		{
			name: "union padding size",
			tree: vtree.NewUnion("word", 0, mustFill(t, env, types.Long, vtree.NewByte(rw, 0)), []vtree.Byte{vtree.Unowned}),
			err:  vtree.ErrSizeMismatch,
		},
		{
			name: "empty bytes are valid",
			tree: intTree(perm.Perm{}, 0, 0, 0, 0),
		},
		{
			name: "concrete byte without permission",
			tree: vtree.NewBase(types.Int32, []vtree.Byte{{Value: 1}, vtree.Unowned, vtree.Unowned, vtree.Unowned}),
			err:  vtree.ErrInvalidByte,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			_, err := tt.tree.TypeCheck(env)
			require.ErrorIs(err, tt.err)
		})
	}
}

func mustFill(t *testing.T, env *types.Env, typ types.Type, b vtree.Byte) *vtree.Tree {
	tree, err := vtree.Fill(env, typ, b)
	require.NoError(t, err)
	return tree
}

func TestFlattenOfBytes(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	r := rand.New(rand.NewSource(1)) //nolint:gosec

	for i := 0; i < 200; i++ {
		typ := vtreetest.RandomType(r)
		tree := vtreetest.RandomTree(r, env, typ, perm.Write)
		got, err := tree.TypeCheck(env)
		require.NoError(err)
		require.True(typ.Equal(got))

		flat := tree.Flatten()
		size, ok := env.SizeOf(typ)
		require.True(ok)
		require.Len(flat, int(size))

		rebuilt, err := vtree.OfBytes(env, typ, flat)
		require.NoError(err)
		require.Equal(flat, rebuilt.Flatten())
		_, err = rebuilt.TypeCheck(env)
		require.NoError(err)
	}

	_, err := vtree.OfBytes(env, types.Int32, make([]vtree.Byte, 3))
	require.ErrorIs(err, vtree.ErrSizeMismatch)
}

func TestLookupAlter(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	r := rand.New(rand.NewSource(2)) //nolint:gosec

	for i := 0; i < 200; i++ {
		typ := vtreetest.RandomType(r)
		tree := vtreetest.RandomTree(r, env, typ, perm.Write)
		p := vtreetest.RandomPath(r, env, tree)

		w, ok := tree.Lookup(p)
		require.True(ok)
		want, ok := ref.TypeOf(env, typ, p)
		require.True(ok)
		require.True(want.Equal(w.Type()))

		altered := tree.Alter(env, p, vtreetest.Xor(0xff))
		got, ok := altered.Lookup(p)
		require.True(ok)
		require.True(vtreetest.Xor(0xff)(w).Equal(got))
		_, err := altered.TypeCheck(env)
		require.NoError(err)

		// the original is not modified
		again, ok := tree.Lookup(p)
		require.True(ok)
		require.True(w.Equal(again))
	}
}

func TestAlterUnresolvable(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()

	tree := mustFill(t, env, types.StructType("pair"), vtree.NewByte(perm.New(perm.Write), 7))
	for _, p := range []ref.Path{
		{ref.StructSeg("pair", 2)},
		{ref.StructSeg("rec", 0)},
		{ref.ArraySeg(0, 2)},
	} {
		_, ok := tree.Lookup(p)
		require.False(ok)
		require.True(tree.Equal(tree.Alter(env, p, vtreetest.Set(0))))
	}
}

func TestAlterNilResult(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	drop := func(*vtree.Tree) *vtree.Tree { return nil }

	tree := mustFill(t, env, types.StructType("rec"), vtree.NewByte(perm.New(perm.Write), 7))
	for _, p := range []ref.Path{
		nil,
		{ref.StructSeg("rec", 0)},
		{ref.StructSeg("rec", 1), ref.ArraySeg(1, 2), ref.StructSeg("pair", 0)},
		{ref.StructSeg("rec", 2), ref.UnionSeg("word", 0, true)},
	} {
		altered := tree.Alter(env, p, drop)
		require.NotNil(altered)
		require.True(tree.Equal(altered), "%s", p)
	}

	// the union keeps no active variant
	word, ok := tree.Alter(env, ref.Path{ref.StructSeg("rec", 2), ref.UnionSeg("word", 1, true)}, drop).
		Lookup(ref.Path{ref.StructSeg("rec", 2)})
	require.True(ok)
	require.Equal(vtree.UnionAll, word.Kind())
}

func TestUnionVariants(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	rw := perm.New(perm.Write)

	word := mustFill(t, env, types.UnionType("word"), vtree.NewByte(rw, 1))
	require.Equal(vtree.UnionAll, word.Kind())

	asLong := ref.Path{ref.UnionSeg("word", 0, true)}
	asBytes := ref.Path{ref.UnionSeg("word", 1, true), ref.ArraySeg(3, 8)}

	// no variant is active yet
	_, ok := word.Lookup(asLong)
	require.False(ok)

	// writing through a variant activates it
	word = word.Alter(env, asBytes, vtreetest.Set(9))
	require.Equal(vtree.Union, word.Kind())
	b, ok := word.Lookup(asBytes)
	require.True(ok)
	require.Equal(byte(9), b.Bytes()[0].Value)
	_, ok = word.Lookup(asLong)
	require.False(ok)

	// switching variants keeps the bytes
	word = word.Alter(env, asLong, func(t *vtree.Tree) *vtree.Tree { return t })
	long, ok := word.Lookup(asLong)
	require.True(ok)
	require.Equal(byte(9), long.Bytes()[3].Value)
	require.Equal(byte(1), long.Bytes()[0].Value)
	_, err := word.TypeCheck(env)
	require.NoError(err)

	// a frozen and an unfrozen segment behave the same
	unfrozen := ref.Path{ref.UnionSeg("word", 0, false)}
	again, ok := word.Lookup(unfrozen)
	require.True(ok)
	require.True(long.Equal(again))
}

func TestBytes(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()
	rw := perm.New(perm.Write)

	tree := vtree.NewStruct("pair", intTree(rw, 1, 2, 3, 4), intTree(rw, 5, 6, 7, 8))
	b, ok := tree.LookupByte(5)
	require.True(ok)
	require.True(types.UChar.Equal(b.Type()))
	require.Equal(byte(6), b.Bytes()[0].Value)

	_, ok = tree.LookupByte(8)
	require.False(ok)

	altered := tree.AlterByte(env, vtreetest.Set(0xaa), 5)
	b, ok = altered.LookupByte(5)
	require.True(ok)
	require.Equal(byte(0xaa), b.Bytes()[0].Value)
	flat := altered.Flatten()
	require.Equal(byte(5), flat[4].Value)
	require.Equal(byte(7), flat[6].Value)

	// shared bytes cannot be read one at a time
	half, _ := tree.Split()
	_, ok = half.LookupByte(0)
	require.False(ok)

	// void objects have no bytes to read
	void := vtree.NewBase(types.VoidType(), []vtree.Byte{vtree.NewByte(rw, 0)})
	_, ok = void.LookupByte(0)
	require.False(ok)

	// a transform that does not produce a single byte is ignored
	grow := func(*vtree.Tree) *vtree.Tree { return intTree(rw, 0, 0, 0, 0) }
	require.True(tree.Equal(tree.AlterByte(env, grow, 1)))
}

func TestPredicates(t *testing.T) {
	require := require.New(t)
	env := vtreetest.Env()

	empty := mustFill(t, env, types.StructType("rec"), vtree.Unowned)
	require.True(empty.IsEmpty())
	require.True(empty.Unmapped())
	require.False(empty.Unshared())
	require.False(empty.Freed())

	existing := mustFill(t, env, types.StructType("rec"), vtree.IndetByte(perm.New(perm.None)))
	require.False(existing.IsEmpty())
	require.True(existing.Unmapped())
	require.True(existing.Unshared())

	freed := existing.MapBytes(func(b vtree.Byte) vtree.Byte {
		b.Perm = b.Perm.WithKind(perm.Freed)
		return b
	})
	require.True(freed.Freed())
	_, err := freed.TypeCheck(env)
	require.NoError(err)
}
