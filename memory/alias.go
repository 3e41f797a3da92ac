// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import (
	"fmt"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
)

// Aliasing classifies how two object-granular addresses, and every address
// obtained from them by pointer arithmetic, may overlap.
type Aliasing uint8

const (
	// Separate addresses never overlap.
	Separate Aliasing = iota
	// FirstWithinSecond addresses overlap only where the first points to a
	// sub-object of what the second points to.
	FirstWithinSecond
	// SecondWithinFirst is FirstWithinSecond with the roles swapped.
	SecondWithinFirst
	// NonInterfering addresses go through different variants of a union.
	// A write through one makes the other unreadable.
	NonInterfering
)

func (a Aliasing) String() string {
	switch a {
	case Separate:
		return "separate"
	case FirstWithinSecond:
		return "first-within-second"
	case SecondWithinFirst:
		return "second-within-first"
	case NonInterfering:
		return "non-interfering"
	default:
		return fmt.Sprintf("aliasing(%d)", a)
	}
}

func (m Map) aliasable(env *types.Env, a addr.Addr) (types.Type, error) {
	if !a.IsObj() {
		return types.Type{}, fmt.Errorf("%w: %s is byte-granular", ErrNotAliasable, a)
	}
	if !a.IsFrozen() {
		return types.Type{}, fmt.Errorf("%w: %s is not frozen", ErrNotAliasable, a)
	}
	if !a.Strict(env) {
		return types.Type{}, fmt.Errorf("%w: %s is not strict", ErrNotAliasable, a)
	}
	t, err := a.Typed(env, m.TypeOf)
	if err != nil {
		return types.Type{}, fmt.Errorf("%w: %w", ErrNotAliasable, err)
	}
	return t, nil
}

// region returns the reference to the storage every translate of [a] stays
// within: the array [a] moves across, or the sub-object it points to.
func region(a addr.Addr) ref.Path {
	if last, ok := a.Ref.Last(); ok && last.Kind == ref.Array {
		return a.Ref[:len(a.Ref)-1]
	}
	return a.Ref
}

// NonAliasing decides how the strict, frozen, object-granular addresses [a1]
// and [a2] of [m] may alias.
func (m Map) NonAliasing(env *types.Env, a1, a2 addr.Addr) (Aliasing, error) {
	t1, err := m.aliasable(env, a1)
	if err != nil {
		return 0, err
	}
	t2, err := m.aliasable(env, a2)
	if err != nil {
		return 0, err
	}
	if a1.Index != a2.Index {
		return Separate, nil
	}

	r1, r2 := region(a1), region(a2)
	n := min(len(r1), len(r2))
	for i := 0; i < n; i++ {
		s1, s2 := r1[i].Freeze(), r2[i].Freeze()
		if s1 == s2 {
			continue
		}
		switch {
		case s1.Kind == ref.Union && s2.Kind == ref.Union:
			return NonInterfering, nil
		case s1.Kind == s2.Kind && s1.Index != s2.Index:
			return Separate, nil
		default:
			return 0, fmt.Errorf("%w: %s and %s diverge at %s and %s", ErrNotAliasable, a1.Ref, a2.Ref, s1, s2)
		}
	}

	switch {
	case len(r1) > len(r2):
		return FirstWithinSecond, nil
	case len(r1) < len(r2):
		return SecondWithinFirst, nil
	case env.Subtype(t1, t2):
		return FirstWithinSecond, nil
	default:
		return SecondWithinFirst, nil
	}
}
