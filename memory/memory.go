// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memory implements memory maps: the contents of every allocated
// object of an abstract machine, shaped as typed value trees.
package memory

import (
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/utils/set"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/perm"
	"github.com/ava-labs/symmem/types"
	"github.com/ava-labs/symmem/vtree"
)

// Object is a memory entry: the contents of an allocation and whether it
// was allocated with a lifetime of its own.
type Object struct {
	Tree  *vtree.Tree
	Alive bool
}

// Map is an immutable memory. Every operation that changes a map returns a
// new one; maps can be shared freely between goroutines.
//
// The zero value is the empty memory.
type Map struct {
	objects map[addr.Index]Object
}

func New() Map {
	return Map{}
}

// with returns a copy of [m] where [i] holds [o].
func (m Map) with(i addr.Index, o Object) Map {
	objects := make(map[addr.Index]Object, len(m.objects)+1)
	maps.Copy(objects, m.objects)
	objects[i] = o
	return Map{objects: objects}
}

// Insert records the allocation of object [i] with initial contents [tree].
// Indices are never reused.
func (m Map) Insert(i addr.Index, tree *vtree.Tree, alive bool) (Map, error) {
	if tree == nil {
		return m, fmt.Errorf("%w: object %d", ErrNilTree, i)
	}
	if _, ok := m.objects[i]; ok {
		return m, fmt.Errorf("%w: %d", ErrIndexInUse, i)
	}
	return m.with(i, Object{Tree: tree, Alive: alive}), nil
}

// Free records the deallocation of object [i]. Its bytes keep their shares
// but are marked freed, and the object stays in the map so that it can never
// become alive again.
func (m Map) Free(i addr.Index) (Map, error) {
	o, ok := m.objects[i]
	if !ok {
		return m, fmt.Errorf("%w: %d", ErrUnknownIndex, i)
	}
	freed := o.Tree.MapBytes(func(b vtree.Byte) vtree.Byte {
		if b.Perm.IsEmpty() {
			return b
		}
		return vtree.IndetByte(b.Perm.WithKind(perm.Freed))
	})
	return m.with(i, Object{Tree: freed}), nil
}

// Dom returns the indices of the objects in [m].
func (m Map) Dom() set.Set[addr.Index] {
	return set.Of(maps.Keys(m.objects)...)
}

func (m Map) Len() int {
	return len(m.objects)
}

// Indices returns the indices of the objects in [m] in increasing order.
func (m Map) Indices() []addr.Index {
	indices := maps.Keys(m.objects)
	slices.Sort(indices)
	return indices
}

func (m Map) Get(i addr.Index) (Object, bool) {
	o, ok := m.objects[i]
	return o, ok
}

// TypeOf returns the type object [i] was allocated with.
func (m Map) TypeOf(i addr.Index) (types.Type, bool) {
	o, ok := m.objects[i]
	if !ok {
		return types.Type{}, false
	}
	return o.Tree.Type(), true
}

// IsAlive is true if [i] was allocated with a lifetime and has not been
// freed.
func (m Map) IsAlive(i addr.Index) bool {
	o, ok := m.objects[i]
	return ok && o.Alive && !o.Tree.Freed()
}

// Restrict returns the part of [m] that holds the objects in [indices].
func (m Map) Restrict(indices set.Set[addr.Index]) Map {
	objects := make(map[addr.Index]Object, indices.Len())
	for i, o := range m.objects {
		if indices.Contains(i) {
			objects[i] = o
		}
	}
	return Map{objects: objects}
}

func (m Map) Equal(o Map) bool {
	if len(m.objects) != len(o.objects) {
		return false
	}
	for i, a := range m.objects {
		b, ok := o.objects[i]
		if !ok || a.Alive != b.Alive || !a.Tree.Equal(b.Tree) {
			return false
		}
	}
	return true
}

func (m Map) String() string {
	var b strings.Builder
	b.WriteString("{")
	for n, i := range m.Indices() {
		if n > 0 {
			b.WriteString(", ")
		}
		o := m.objects[i]
		fmt.Fprintf(&b, "%d: %s", i, o.Tree)
		if o.Alive {
			b.WriteString(" (alive)")
		}
	}
	b.WriteString("}")
	return b.String()
}
