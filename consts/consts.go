// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	// PtrSize is the size in bytes of pointers and of the pointer-sized
	// integer types of the abstract machine.
	PtrSize   = 8
	CharBits  = 8
	CharSize  = 1
	MaxUint64 = ^uint64(0)

	// MaxSignedPtr is the largest object size representable in the signed
	// pointer-sized integer type.
	MaxSignedPtr = MaxUint64 >> 1
)
