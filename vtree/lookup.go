// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vtree

import (
	"golang.org/x/exp/slices"

	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
)

func (t *Tree) lookupSeg(s ref.Segment) (*Tree, bool) {
	switch s.Kind {
	case ref.Array:
		if t.kind != Array || uint64(len(t.children)) != s.Len || s.Index >= s.Len {
			return nil, false
		}
	case ref.Struct:
		if t.kind != Struct || t.typ.Tag() != s.Tag || s.Index >= uint64(len(t.children)) {
			return nil, false
		}
	case ref.Union:
		// Only the active variant can be read through a reference; other
		// variants are reachable byte-wise.
		if t.kind != Union || t.typ.Tag() != s.Tag || t.variant != s.Index {
			return nil, false
		}
		return t.children[0], true
	default:
		return nil, false
	}
	return t.children[s.Index], true
}

// Lookup returns the sub-tree that [p] selects.
func (t *Tree) Lookup(p ref.Path) (*Tree, bool) {
	for _, s := range p {
		var ok bool
		t, ok = t.lookupSeg(s)
		if !ok {
			return nil, false
		}
	}
	return t, true
}

// Alter replaces the sub-tree selected by [p] with the result of [g]. If [p]
// does not resolve or [g] returns nil, [t] is returned unchanged. A union
// segment that names an inactive variant first reinterprets the bytes of the
// union as that variant and makes it active.
func (t *Tree) Alter(env *types.Env, p ref.Path, g func(*Tree) *Tree) *Tree {
	if len(p) == 0 {
		if w := g(t); w != nil {
			return w
		}
		return t
	}
	s, rest := p[0], p[1:]
	if s.Kind == ref.Union {
		return t.alterUnion(env, s, rest, g)
	}
	child, ok := t.lookupSeg(s)
	if !ok {
		return t
	}
	return t.withChild(int(s.Index), child.Alter(env, rest, g))
}

func (t *Tree) alterUnion(env *types.Env, s ref.Segment, rest ref.Path, g func(*Tree) *Tree) *Tree {
	if t.typ.Kind() != types.Union || t.typ.Tag() != s.Tag {
		return t
	}
	if t.kind == Union && t.variant == s.Index {
		return t.withChild(0, t.children[0].Alter(env, rest, g))
	}
	field, ok := env.Field(t.typ, s.Index)
	if !ok {
		return t
	}
	size, ok := env.SizeOf(field)
	if !ok {
		return t
	}
	flat := t.Flatten()
	if size > uint64(len(flat)) {
		return t
	}
	value := ofBytes(env, field, flat[:size:size])
	if _, ok := value.Lookup(rest); !ok {
		return t
	}
	// the variant only becomes active if [g] produced a value
	var applied bool
	value = value.Alter(env, rest, func(w *Tree) *Tree {
		res := g(w)
		applied = res != nil
		return res
	})
	if !applied {
		return t
	}
	return &Tree{
		kind:     Union,
		typ:      t.typ,
		bytes:    flat[size:],
		children: []*Tree{value},
		variant:  s.Index,
	}
}

func (t *Tree) withChild(i int, child *Tree) *Tree {
	c := *t
	c.children = slices.Clone(t.children)
	c.children[i] = child
	return &c
}

// LookupByte returns byte [i] of [t] as an unsigned char. The tree must be
// wholly owned and must not be void.
func (t *Tree) LookupByte(i uint64) (*Tree, bool) {
	if t.typ.IsVoid() || !t.Unshared() {
		return nil, false
	}
	flat := t.Flatten()
	if i >= uint64(len(flat)) {
		return nil, false
	}
	return NewBase(types.UChar, flat[i:i+1]), true
}

// AlterByte applies [g] to byte [i] of [t], viewed as an unsigned char, and
// rebuilds a tree of the same type around the result. Unions in the result
// have no active variant. Out of range offsets and results that are not a
// single byte leave [t] unchanged.
func (t *Tree) AlterByte(env *types.Env, g func(*Tree) *Tree, i uint64) *Tree {
	flat := t.Flatten()
	if i >= uint64(len(flat)) {
		return t
	}
	b := g(NewBase(types.UChar, flat[i:i+1]))
	if b == nil || b.kind != Base || len(b.bytes) != 1 {
		return t
	}
	flat[i] = b.bytes[0]
	res, err := OfBytes(env, t.typ, flat)
	if err != nil {
		return t
	}
	return res
}
