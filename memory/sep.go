// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import "github.com/ava-labs/symmem/addr"

// Disjoint is true if [m1] and [m2] can be owned separately: objects present
// in both have disjoint contents and the same liveness.
func Disjoint(m1, m2 Map) bool {
	if len(m2.objects) < len(m1.objects) {
		m1, m2 = m2, m1
	}
	for i, o1 := range m1.objects {
		o2, ok := m2.objects[i]
		if !ok {
			continue
		}
		if o1.Alive != o2.Alive || !o1.Tree.Disjoint(o2.Tree) {
			return false
		}
	}
	return true
}

// Union merges two disjoint maps. Objects present in both get the union of
// their contents.
func Union(m1, m2 Map) Map {
	objects := make(map[addr.Index]Object, len(m1.objects)+len(m2.objects))
	for i, o := range m1.objects {
		objects[i] = o
	}
	for i, o2 := range m2.objects {
		if o1, ok := objects[i]; ok {
			objects[i] = Object{Tree: o1.Tree.Union(o2.Tree), Alive: o1.Alive}
			continue
		}
		objects[i] = o2
	}
	return Map{objects: objects}
}

// Split divides the ownership of every object of [m] between two disjoint
// maps whose union is [m].
func Split(m Map) (Map, Map) {
	left := make(map[addr.Index]Object, len(m.objects))
	right := make(map[addr.Index]Object, len(m.objects))
	for i, o := range m.objects {
		l, r := o.Tree.Split()
		left[i] = Object{Tree: l, Alive: o.Alive}
		right[i] = Object{Tree: r, Alive: o.Alive}
	}
	return Map{objects: left}, Map{objects: right}
}
