// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memory

import "errors"

var (
	ErrIndexInUse     = errors.New("object index already in use")
	ErrNilTree        = errors.New("nil value tree")
	ErrUnknownIndex   = errors.New("unknown object index")
	ErrIllTyped       = errors.New("ill-typed object")
	ErrEmptyObject    = errors.New("object owns no bytes")
	ErrObjectTooLarge = errors.New("object size exceeds the pointer range")

	ErrNotAliasable       = errors.New("addresses do not satisfy the non-aliasing hypotheses")
	ErrOverlappingUpdates = errors.New("updates overlap")

	ErrInvalidSource    = errors.New("source memory is not valid")
	ErrInvalidTarget    = errors.New("target memory is not valid")
	ErrMissingTarget    = errors.New("target object is not mapped")
	ErrLivenessMismatch = errors.New("liveness flags differ")
	ErrUnresolvedPath   = errors.New("injection path does not resolve in target")
	ErrNotRefined       = errors.New("object is not refined by its target")
	ErrLiveSubobject    = errors.New("live object injected into a sub-object")
)
