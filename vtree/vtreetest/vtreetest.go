// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vtreetest provides deterministic generators of environments, value
// trees and references for property tests.
package vtreetest

import (
	"math/rand"

	"github.com/ava-labs/symmem/perm"
	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
	"github.com/ava-labs/symmem/vtree"
)

// Env declares:
//
//	struct pair { int32; int32 }
//	union word  { int64; uint8[8] }
//	struct rec  { int16; struct pair[2]; union word }
func Env() *types.Env {
	env := types.NewEnv()
	must(env.DeclareStruct("pair", types.Int32, types.Int32))
	must(env.DeclareUnion("word", types.Long, types.ArrayOf(types.UChar, 8)))
	must(env.DeclareStruct("rec", types.Short, types.ArrayOf(types.StructType("pair"), 2), types.UnionType("word")))
	return env
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Types lists the object types the generators draw from. All are valid in
// [Env].
var Types = []types.Type{
	types.Int32,
	types.Long,
	types.PointerTo(types.StructType("rec")),
	types.ArrayOf(types.UChar, 4),
	types.ArrayOf(types.Int32, 3),
	types.StructType("pair"),
	types.UnionType("word"),
	types.StructType("rec"),
	types.ArrayOf(types.StructType("rec"), 2),
}

func RandomType(r *rand.Rand) types.Type {
	return Types[r.Intn(len(Types))]
}

// RandomTree returns a tree of type [t] whose bytes are wholly owned with kind
// [k] and hold random values. Unions get a random active variant.
func RandomTree(r *rand.Rand, env *types.Env, t types.Type, k perm.Kind) *vtree.Tree {
	switch t.Kind() {
	case types.Array:
		elems := make([]*vtree.Tree, t.Len())
		for i := range elems {
			elems[i] = RandomTree(r, env, t.Elem(), k)
		}
		return vtree.NewArray(t.Elem(), elems...)
	case types.Struct:
		fields, _ := env.Fields(t)
		children := make([]*vtree.Tree, len(fields))
		for i, f := range fields {
			children[i] = RandomTree(r, env, f, k)
		}
		return vtree.NewStruct(t.Tag(), children...)
	case types.Union:
		fields, _ := env.Fields(t)
		total, _ := env.SizeOf(t)
		if r.Intn(4) == 0 {
			return vtree.NewUnionAll(t.Tag(), RandomBytes(r, total, k))
		}
		i := r.Intn(len(fields))
		size, _ := env.SizeOf(fields[i])
		return vtree.NewUnion(t.Tag(), uint64(i), RandomTree(r, env, fields[i], k), RandomBytes(r, total-size, k))
	default:
		size, _ := env.SizeOf(t)
		return vtree.NewBase(t, RandomBytes(r, size, k))
	}
}

func RandomBytes(r *rand.Rand, n uint64, k perm.Kind) []vtree.Byte {
	bytes := make([]vtree.Byte, n)
	for i := range bytes {
		if r.Intn(8) == 0 {
			bytes[i] = vtree.IndetByte(perm.New(k))
			continue
		}
		bytes[i] = vtree.NewByte(perm.New(k), byte(r.Intn(256)))
	}
	return bytes
}

// Paths returns every frozen reference that resolves in [t], including the
// empty one.
func Paths(env *types.Env, t *vtree.Tree) []ref.Path {
	paths := []ref.Path{nil}
	typ := t.Type()
	switch t.Kind() {
	case vtree.Array:
		for i := 0; i < t.NumChildren(); i++ {
			seg := ref.ArraySeg(uint64(i), typ.Len())
			paths = appendPrefixed(paths, seg, Paths(env, t.Child(i)))
		}
	case vtree.Struct:
		for i := 0; i < t.NumChildren(); i++ {
			seg := ref.StructSeg(typ.Tag(), uint64(i))
			paths = appendPrefixed(paths, seg, Paths(env, t.Child(i)))
		}
	case vtree.Union:
		seg := ref.UnionSeg(typ.Tag(), t.Variant(), true)
		paths = appendPrefixed(paths, seg, Paths(env, t.Child(0)))
	}
	return paths
}

func appendPrefixed(dst []ref.Path, seg ref.Segment, tails []ref.Path) []ref.Path {
	for _, tail := range tails {
		dst = append(dst, ref.Concat(ref.Path{seg}, tail))
	}
	return dst
}

// RandomPath returns one of [Paths].
func RandomPath(r *rand.Rand, env *types.Env, t *vtree.Tree) ref.Path {
	paths := Paths(env, t)
	return paths[r.Intn(len(paths))]
}

// Xor returns a type preserving transform that flips the bits in [mask] of
// every determinate byte.
func Xor(mask byte) func(*vtree.Tree) *vtree.Tree {
	return func(t *vtree.Tree) *vtree.Tree {
		return t.MapBytes(func(b vtree.Byte) vtree.Byte {
			if b.Indet || b.Perm.IsEmpty() {
				return b
			}
			b.Value ^= mask
			return b
		})
	}
}

// Set returns a type preserving transform that stores [v] in every owned
// byte.
func Set(v byte) func(*vtree.Tree) *vtree.Tree {
	return func(t *vtree.Tree) *vtree.Tree {
		return t.MapBytes(func(b vtree.Byte) vtree.Byte {
			return vtree.NewByte(b.Perm, v)
		})
	}
}
