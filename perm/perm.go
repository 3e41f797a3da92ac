// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package perm

import "fmt"

// Kind is the access right attached to a byte. Stronger kinds include the
// bits of the weaker ones, so [Kind.Has] can be used to test for an ability.
type Kind byte

const (
	Read  Kind = 1
	Write      = 1<<1 | Read
	Lock       = 1<<2 | Write
	Free       = 1<<3 | Write

	// None only asserts that the byte exists.
	None Kind = 0
	// Freed marks storage that has been deallocated. It grants no rights.
	Freed Kind = 1 << 4
)

// Share is a fraction of ownership of a byte, expressed over [Full].
type Share uint16

const Full Share = 1 << 15

// Perm is the permission tag of a single byte. The zero value is the empty
// permission: no share of the byte is owned.
type Perm struct {
	Kind  Kind
	Share Share
}

// New returns a fully owned permission of kind [k].
func New(k Kind) Perm {
	return Perm{Kind: k, Share: Full}
}

// Has returns true if [k] has all the permissions that are contained in require
func (k Kind) Has(require Kind) bool {
	return require&^k == 0
}

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Read:
		return "read"
	case Write:
		return "write"
	case Lock:
		return "locked"
	case Free:
		return "freeable"
	case Freed:
		return "freed"
	default:
		return fmt.Sprintf("kind(%#x)", byte(k))
	}
}

func (p Perm) IsEmpty() bool {
	return p.Share == 0
}

func (p Perm) Valid() bool {
	if p.Share > Full {
		return false
	}
	if p.Share == 0 {
		return p.Kind == None
	}
	switch p.Kind {
	case None, Read, Write, Lock, Free, Freed:
		return true
	default:
		return false
	}
}

// Unshared is true when no other owner can hold a share of the byte.
func (p Perm) Unshared() bool {
	return p.Share == Full
}

// Unmapped is true when the permission grants no way to observe the byte.
func (p Perm) Unmapped() bool {
	return p.IsEmpty() || !p.Kind.Has(Read)
}

func (p Perm) IsFreed() bool {
	return p.Kind == Freed
}

func (p Perm) Disjoint(q Perm) bool {
	if p.IsEmpty() || q.IsEmpty() {
		return true
	}
	return p.Kind == q.Kind && uint32(p.Share)+uint32(q.Share) <= uint32(Full)
}

// Union combines the shares of two disjoint permissions.
func (p Perm) Union(q Perm) Perm {
	if p.IsEmpty() {
		return q
	}
	if q.IsEmpty() {
		return p
	}
	return Perm{Kind: p.Kind, Share: p.Share + q.Share}
}

// Split divides [p] into two disjoint halves whose union is [p]. The first
// half receives the odd unit.
func (p Perm) Split() (Perm, Perm) {
	if p.Share <= 1 {
		return p, Perm{}
	}
	half := p.Share / 2
	return Perm{Kind: p.Kind, Share: p.Share - half}, Perm{Kind: p.Kind, Share: half}
}

// WithKind keeps the share of [p] but replaces its kind. Empty permissions
// stay empty.
func (p Perm) WithKind(k Kind) Perm {
	if p.IsEmpty() {
		return p
	}
	return Perm{Kind: k, Share: p.Share}
}

func (p Perm) String() string {
	if p.IsEmpty() {
		return "⊥"
	}
	if p.Unshared() {
		return p.Kind.String()
	}
	return fmt.Sprintf("%s(%d/%d)", p.Kind, p.Share, Full)
}
