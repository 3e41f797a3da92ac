// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import (
	"fmt"

	"github.com/ava-labs/symmem/consts"
	"github.com/ava-labs/symmem/types"
)

// Validate checks that every object of [m] is well-typed under [env], owns
// at least one byte and fits in the pointer range.
func (m Map) Validate(env *types.Env) error {
	for _, i := range m.Indices() {
		o := m.objects[i]
		t, err := o.Tree.TypeCheck(env)
		if err != nil {
			return fmt.Errorf("%w: object %d: %w", ErrIllTyped, i, err)
		}
		if o.Tree.IsEmpty() {
			return fmt.Errorf("%w: %d", ErrEmptyObject, i)
		}
		size, ok := env.SizeOf(t)
		if !ok || size > consts.MaxSignedPtr {
			return fmt.Errorf("%w: object %d of type %s", ErrObjectTooLarge, i, t)
		}
	}
	return nil
}

func (m Map) IsValid(env *types.Env) bool {
	return m.Validate(env) == nil
}
