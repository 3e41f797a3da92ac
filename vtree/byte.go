// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vtree

import (
	"fmt"

	"github.com/ava-labs/symmem/perm"
)

// Byte is one byte of object storage together with its permission.
type Byte struct {
	Perm  perm.Perm
	Value byte
	// Indet marks a byte whose contents are indeterminate. Value is zero.
	Indet bool
}

// Unowned is the byte nobody holds a share of.
var Unowned = Byte{Indet: true}

func NewByte(p perm.Perm, v byte) Byte {
	if p.IsEmpty() {
		return Unowned
	}
	return Byte{Perm: p, Value: v}
}

func IndetByte(p perm.Perm) Byte {
	if p.IsEmpty() {
		return Unowned
	}
	return Byte{Perm: p, Indet: true}
}

func (b Byte) Valid() bool {
	if !b.Perm.Valid() {
		return false
	}
	if b.Indet || b.Perm.IsEmpty() {
		return b.Indet && b.Value == 0
	}
	return true
}

// Disjoint is true if the two bytes can be owned by different parties at
// once. Owners holding a share must agree on the contents.
func (b Byte) Disjoint(c Byte) bool {
	if !b.Perm.Disjoint(c.Perm) {
		return false
	}
	if b.Perm.IsEmpty() || c.Perm.IsEmpty() {
		return true
	}
	return b.Indet == c.Indet && b.Value == c.Value
}

func (b Byte) Union(c Byte) Byte {
	p := b.Perm.Union(c.Perm)
	if b.Perm.IsEmpty() {
		c.Perm = p
		return c
	}
	b.Perm = p
	return b
}

func (b Byte) Split() (Byte, Byte) {
	p1, p2 := b.Perm.Split()
	left, right := b, b
	left.Perm = p1
	right.Perm = p2
	if p2.IsEmpty() {
		right = Unowned
	}
	return left, right
}

// Refines is true if [b] can be replaced by [c]: both carry the same
// permission and [c] is at least as defined as [b].
func (b Byte) Refines(c Byte) bool {
	if b.Perm != c.Perm {
		return false
	}
	return b.Indet || (!c.Indet && b.Value == c.Value)
}

func (b Byte) String() string {
	if b.Indet {
		return fmt.Sprintf("??:%s", b.Perm)
	}
	return fmt.Sprintf("%02x:%s", b.Value, b.Perm)
}
