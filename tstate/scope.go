// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/symmem/addr"
)

const (
	Read     Access = 1
	Allocate        = 1<<1 | Read
	Write           = 1<<2 | Read

	None Access = 0
	All         = Read | Allocate | Write
)

// Scope lists the objects a view may touch and how.
type Scope map[addr.Index]Access

// Access is a set of rights over one object.
type Access byte

// Add grants [access] over [i] in addition to what is already granted.
func (s Scope) Add(i addr.Index, access Access) {
	s[i] |= access
}

func (s Scope) Indices() set.Set[addr.Index] {
	indices := set.NewSet[addr.Index](len(s))
	for i := range s {
		indices.Add(i)
	}
	return indices
}

// Has returns true if [a] has all the rights that are contained in require
func (a Access) Has(require Access) bool {
	return require&^a == 0
}
