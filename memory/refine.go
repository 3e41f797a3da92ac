// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import (
	"fmt"

	"github.com/ava-labs/symmem/meminj"
	"github.com/ava-labs/symmem/types"
)

// Refines checks that [m2] simulates [m1] when every object of [m1] mapped by
// [f] is located at its target in [m2].
//
// Objects that [f] does not map are not constrained.
func Refines(env *types.Env, f *meminj.Injection, m1, m2 Map) error {
	if err := m1.Validate(env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	if err := m2.Validate(env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	for _, o1 := range m1.Indices() {
		obj1 := m1.objects[o1]
		o2, p, ok := f.Lookup(o1)
		if !ok {
			continue
		}
		obj2, ok := m2.objects[o2]
		if !ok {
			return fmt.Errorf("%w: %d (from %d)", ErrMissingTarget, o2, o1)
		}
		if obj1.Alive != obj2.Alive {
			return fmt.Errorf("%w: %d is %t, %d is %t", ErrLivenessMismatch, o1, obj1.Alive, o2, obj2.Alive)
		}
		if obj1.Alive && len(p) != 0 {
			return fmt.Errorf("%w: %d at %d%s", ErrLiveSubobject, o1, o2, p)
		}
		w2, ok := obj2.Tree.Lookup(p.Freeze())
		if !ok {
			return fmt.Errorf("%w: %d%s", ErrUnresolvedPath, o2, p)
		}
		if !obj1.Tree.Refines(w2) {
			return fmt.Errorf("%w: %d by %d%s", ErrNotRefined, o1, o2, p)
		}
	}
	return nil
}

func IsRefinement(env *types.Env, f *meminj.Injection, m1, m2 Map) bool {
	return Refines(env, f, m1, m2) == nil
}
