// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"go.uber.org/atomic"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/memory"
	"github.com/ava-labs/symmem/types"
)

// TState serializes changes to a shared memory. Views record changes to a
// scoped set of objects and apply them to the shared memory on commit.
type TState struct {
	log logging.Logger
	env *types.Env

	l   sync.RWMutex
	mem memory.Map

	ops atomic.Int64
}

// New returns a TState holding [m].
func New(log logging.Logger, env *types.Env, m memory.Map) *TState {
	return &TState{log: log, env: env, mem: m}
}

// Memory returns the committed memory.
func (ts *TState) Memory() memory.Map {
	ts.l.RLock()
	defer ts.l.RUnlock()

	return ts.mem
}

// OpIndex returns the number of operations committed to [ts].
func (ts *TState) OpIndex() int {
	return int(ts.ops.Load())
}

// replace sets object [i] of [m] to [o], removing it if [o] is nothing.
func replace(m memory.Map, i addr.Index, o maybe.Maybe[memory.Object]) memory.Map {
	dom := m.Dom()
	dom.Remove(i)
	m = m.Restrict(dom)
	if o.IsNothing() {
		return m
	}
	v := o.Value()
	// Cannot fail: [i] was just removed and stored trees are never nil.
	m, _ = m.Insert(i, v.Tree, v.Alive)
	return m
}
