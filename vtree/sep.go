// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vtree

// Disjoint returns true if [t] and [o] have the same shape and every pair of
// corresponding bytes can be owned separately.
func (t *Tree) Disjoint(o *Tree) bool {
	if t == nil || o == nil || !t.sameShape(o) {
		return false
	}
	for i, b := range t.bytes {
		if !b.Disjoint(o.bytes[i]) {
			return false
		}
	}
	for i, c := range t.children {
		if !c.Disjoint(o.children[i]) {
			return false
		}
	}
	return true
}

// Union joins two disjoint trees byte by byte. If the shapes differ, [t] is
// returned.
func (t *Tree) Union(o *Tree) *Tree {
	if o == nil || !t.sameShape(o) {
		return t
	}
	u := &Tree{kind: t.kind, typ: t.typ, variant: t.variant}
	if t.bytes != nil {
		u.bytes = make([]Byte, len(t.bytes))
		for i, b := range t.bytes {
			u.bytes[i] = b.Union(o.bytes[i])
		}
	}
	if t.children != nil {
		u.children = make([]*Tree, len(t.children))
		for i, c := range t.children {
			u.children[i] = c.Union(o.children[i])
		}
	}
	return u
}

// Split divides the ownership of every byte of [t] between two disjoint
// trees whose union is [t].
func (t *Tree) Split() (*Tree, *Tree) {
	l := &Tree{kind: t.kind, typ: t.typ, variant: t.variant}
	r := &Tree{kind: t.kind, typ: t.typ, variant: t.variant}
	if t.bytes != nil {
		l.bytes = make([]Byte, len(t.bytes))
		r.bytes = make([]Byte, len(t.bytes))
		for i, b := range t.bytes {
			l.bytes[i], r.bytes[i] = b.Split()
		}
	}
	if t.children != nil {
		l.children = make([]*Tree, len(t.children))
		r.children = make([]*Tree, len(t.children))
		for i, c := range t.children {
			l.children[i], r.children[i] = c.Split()
		}
	}
	return l, r
}

// Refines returns true if [t] may be replaced by [o]: they have the same
// shape and every byte of [t] is refined by the byte of [o].
func (t *Tree) Refines(o *Tree) bool {
	if t == nil || o == nil || !t.sameShape(o) {
		return false
	}
	for i, b := range t.bytes {
		if !b.Refines(o.bytes[i]) {
			return false
		}
	}
	for i, c := range t.children {
		if !c.Refines(o.children[i]) {
			return false
		}
	}
	return true
}
