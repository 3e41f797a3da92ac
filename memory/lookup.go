// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import (
	"github.com/ava-labs/avalanchego/utils/maybe"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
	"github.com/ava-labs/symmem/vtree"
)

// Transform rewrites the contents of a sub-object.
type Transform func(*vtree.Tree) *vtree.Tree

// locate resolves the object, the reference into it and the byte offset
// within the referenced sub-object for a strict address.
func (m Map) locate(env *types.Env, a addr.Addr) (Object, ref.Path, uint64, bool) {
	if !a.Strict(env) {
		return Object{}, nil, 0, false
	}
	o, ok := m.objects[a.Index]
	if !ok {
		return Object{}, nil, 0, false
	}
	r, ok := a.EffectiveRef(env)
	if !ok {
		return Object{}, nil, 0, false
	}
	i, ok := a.RefByte(env)
	if !ok || (a.IsObj() && i != 0) {
		return Object{}, nil, 0, false
	}
	return o, r, i, true
}

// Lookup returns the contents [a] points to. Object-granular addresses yield
// the whole sub-object. Byte-granular addresses yield a single unsigned char
// and require the sub-object to be wholly owned.
func (m Map) Lookup(env *types.Env, a addr.Addr) maybe.Maybe[*vtree.Tree] {
	o, r, i, ok := m.locate(env, a)
	if !ok {
		return maybe.Nothing[*vtree.Tree]()
	}
	w, ok := o.Tree.Lookup(r)
	if !ok {
		return maybe.Nothing[*vtree.Tree]()
	}
	if a.IsObj() {
		return maybe.Some(w)
	}
	b, ok := w.LookupByte(i)
	if !ok {
		return maybe.Nothing[*vtree.Tree]()
	}
	return maybe.Some(b)
}

// Alter applies [g] to the contents [a] points to. Byte-granular addresses
// apply [g] to a single unsigned char. Addresses that do not resolve leave
// [m] unchanged.
func (m Map) Alter(env *types.Env, g Transform, a addr.Addr) Map {
	o, r, i, ok := m.locate(env, a)
	if !ok {
		return m
	}
	var tree *vtree.Tree
	if a.IsObj() {
		tree = o.Tree.Alter(env, r, g)
	} else {
		tree = o.Tree.Alter(env, r, func(w *vtree.Tree) *vtree.Tree {
			return w.AlterByte(env, g, i)
		})
	}
	if tree == o.Tree {
		return m
	}
	return m.with(a.Index, Object{Tree: tree, Alive: o.Alive})
}
