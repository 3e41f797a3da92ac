// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/symmem/consts"
)

func testEnv(t *testing.T) *Env {
	require := require.New(t)

	env := NewEnv()
	require.NoError(env.DeclareStruct("pair", Int32, Int32))
	require.NoError(env.DeclareUnion("word", Long, ArrayOf(UChar, 8)))
	require.NoError(env.DeclareStruct("node", Int32, PointerTo(StructType("node")), UnionType("word")))
	return env
}

func TestDeclare(t *testing.T) {
	require := require.New(t)
	env := testEnv(t)

	require.ErrorIs(env.DeclareStruct("pair", Int32), ErrTagExists)
	require.ErrorIs(env.DeclareUnion("empty"), ErrNoFields)
	require.ErrorIs(env.DeclareStruct("self", StructType("self")), ErrIncompleteType)
	require.ErrorIs(env.DeclareStruct("bad", IntType(true, 3)), ErrIncompleteType)

	// union and struct tags live in separate namespaces
	require.NoError(env.DeclareUnion("pair", Int32))
	fields, ok := env.Fields(UnionType("pair"))
	require.True(ok)
	require.Len(fields, 1)
}

func TestSizeOf(t *testing.T) {
	env := testEnv(t)

	tests := []struct {
		name string
		typ  Type
		size uint64
		ok   bool
	}{
		{
			name: "void",
			typ:  VoidType(),
			size: 1,
			ok:   true,
		},
		{
			name: "pointer",
			typ:  PointerTo(StructType("undeclared")),
			size: consts.PtrSize,
			ok:   true,
		},
		{
			name: "packed struct",
			typ:  StructType("pair"),
			size: 8,
			ok:   true,
		},
		{
			name: "union takes largest field",
			typ:  UnionType("word"),
			size: 8,
			ok:   true,
		},
		{
			name: "nested",
			typ:  ArrayOf(StructType("node"), 3),
			size: 3 * (4 + consts.PtrSize + 8),
			ok:   true,
		},
		{
			name: "unknown tag",
			typ:  StructType("missing"),
			ok:   false,
		},
		{
			name: "overflow",
			typ:  ArrayOf(ArrayOf(Long, consts.MaxUint64/4), 4),
			ok:   false,
		},
		{
			name: "empty array",
			typ:  ArrayOf(Int32, 0),
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			size, ok := env.SizeOf(tt.typ)
			require.Equal(tt.ok, ok)
			if tt.ok {
				require.Equal(tt.size, size)
			}
		})
	}
}

func TestIncludes(t *testing.T) {
	require := require.New(t)

	env := testEnv(t)
	larger := env.Clone()
	require.NoError(larger.DeclareStruct("extra", Long))

	require.True(larger.Includes(env))
	require.False(env.Includes(larger))
	require.True(env.Includes(NewEnv()))

	// a conflicting declaration under the same tag is not an extension
	other := NewEnv()
	require.NoError(other.DeclareStruct("pair", Long))
	require.False(env.Includes(other))

	// sizes are stable under extension
	for _, typ := range []Type{StructType("pair"), UnionType("word"), StructType("node")} {
		a, ok := env.SizeOf(typ)
		require.True(ok)
		b, ok := larger.SizeOf(typ)
		require.True(ok)
		require.Equal(a, b)
	}
}

func TestSubtype(t *testing.T) {
	require := require.New(t)
	env := testEnv(t)

	node := StructType("node")
	require.True(env.Subtype(node, node))
	require.True(env.Subtype(UnionType("word"), node))
	require.True(env.Subtype(UChar, node))
	require.True(env.Subtype(node, ArrayOf(node, 2)))
	require.False(env.Subtype(node, UnionType("word")))
	// pointees are not sub-objects
	require.False(env.Subtype(node, PointerTo(node)))
}

func TestEqualString(t *testing.T) {
	require := require.New(t)

	require.True(ArrayOf(Int32, 2).Equal(ArrayOf(IntType(true, 4), 2)))
	require.False(ArrayOf(Int32, 2).Equal(ArrayOf(Int32, 3)))
	require.False(UChar.Equal(SChar))
	require.False(StructType("a").Equal(UnionType("a")))
	require.Equal("struct node*", PointerTo(StructType("node")).String())
	require.Equal("uint8[4]", ArrayOf(UChar, 4).String())
}
