// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import "errors"

var (
	ErrIndexNotInScope    = errors.New("index not in scope or access denied")
	ErrAllocationDisabled = errors.New("allocation disabled")
	ErrNotFound           = errors.New("not found")
)
