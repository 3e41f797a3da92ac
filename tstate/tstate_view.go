// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"go.uber.org/zap"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/memory"
	"github.com/ava-labs/symmem/vtree"
)

const defaultOps = 4

type op struct {
	index addr.Index

	pastChanged bool
	past        maybe.Maybe[memory.Object]
}

type TStateView struct {
	ts *TState

	// current is the committed memory seen at creation with every pending
	// change applied.
	current            memory.Map
	pendingChangedKeys map[addr.Index]maybe.Maybe[memory.Object]

	// Ops is a record of all operations performed on [TState]. Tracking
	// operations allows for reverting state to a certain point-in-time.
	ops []*op

	scope       Scope
	canAllocate bool
}

func (ts *TState) NewView(scope Scope) *TStateView {
	return &TStateView{
		ts:                 ts,
		current:            ts.Memory(),
		pendingChangedKeys: make(map[addr.Index]maybe.Maybe[memory.Object], len(scope)),

		ops: make([]*op, 0, defaultOps),

		scope:       scope,
		canAllocate: true, // default to allowing allocation
	}
}

// Rollback restores the TState to the ts.op[restorePoint] operation.
func (ts *TStateView) Rollback(_ context.Context, restorePoint int) {
	for i := len(ts.ops) - 1; i >= restorePoint; i-- {
		op := ts.ops[i]
		ts.current = replace(ts.current, op.index, op.past)
		if !op.pastChanged {
			delete(ts.pendingChangedKeys, op.index)
			continue
		}
		ts.pendingChangedKeys[op.index] = op.past
	}
	ts.ops = ts.ops[:restorePoint]
}

// OpIndex returns the number of operations done on ts.
func (ts *TStateView) OpIndex() int {
	return len(ts.ops)
}

// DisableAllocation causes [Alloc] to return an error. Existing objects can
// still be altered and freed.
//
// Note, allocation defaults to enabled.
func (ts *TStateView) DisableAllocation() {
	ts.canAllocate = false
}

func (ts *TStateView) EnableAllocation() {
	ts.canAllocate = true
}

func (ts *TStateView) checkScope(i addr.Index, require Access) error {
	if !ts.scope[i].Has(require) {
		return fmt.Errorf("%w: %d", ErrIndexNotInScope, i)
	}
	return nil
}

// record journals the state of [i] before an operation changes it.
func (ts *TStateView) record(i addr.Index) {
	_, changed := ts.pendingChangedKeys[i]
	past := maybe.Nothing[memory.Object]()
	if o, ok := ts.current.Get(i); ok {
		past = maybe.Some(o)
	}
	ts.ops = append(ts.ops, &op{
		index:       i,
		pastChanged: changed,
		past:        past,
	})
}

func (ts *TStateView) update(i addr.Index, m memory.Map) {
	ts.record(i)
	ts.current = m
	o, _ := m.Get(i)
	ts.pendingChangedKeys[i] = maybe.Some(o)
}

// Lookup returns the contents [a] points to.
func (ts *TStateView) Lookup(_ context.Context, a addr.Addr) (*vtree.Tree, error) {
	if err := ts.checkScope(a.Index, Read); err != nil {
		return nil, err
	}
	w := ts.current.Lookup(ts.ts.env, a)
	if w.IsNothing() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, a)
	}
	return w.Value(), nil
}

// Alter applies [g] to the contents [a] points to.
func (ts *TStateView) Alter(_ context.Context, g memory.Transform, a addr.Addr) error {
	if err := ts.checkScope(a.Index, Write); err != nil {
		return err
	}
	if _, ok := ts.current.Get(a.Index); !ok {
		return fmt.Errorf("%w: object %d", ErrNotFound, a.Index)
	}
	ts.update(a.Index, ts.current.Alter(ts.ts.env, g, a))
	return nil
}

// Alloc allocates object [i] holding [tree].
func (ts *TStateView) Alloc(_ context.Context, i addr.Index, tree *vtree.Tree, alive bool) error {
	if err := ts.checkScope(i, Allocate); err != nil {
		return err
	}
	if !ts.canAllocate {
		return ErrAllocationDisabled
	}
	m, err := ts.current.Insert(i, tree, alive)
	if err != nil {
		return err
	}
	ts.update(i, m)
	return nil
}

// Free deallocates object [i].
func (ts *TStateView) Free(_ context.Context, i addr.Index) error {
	if err := ts.checkScope(i, Write); err != nil {
		return err
	}
	m, err := ts.current.Free(i)
	if err != nil {
		return err
	}
	ts.update(i, m)
	return nil
}

func (ts *TStateView) PendingChanges() int {
	return len(ts.pendingChangedKeys)
}

// Memory returns the memory as seen by the view.
func (ts *TStateView) Memory() memory.Map {
	return ts.current
}

// Commit applies the pending changes to the shared memory. Objects outside
// the scope of the view are left as they are in the shared memory, even if
// they changed since the view was created.
func (ts *TStateView) Commit() {
	ts.ts.l.Lock()
	defer ts.ts.l.Unlock()

	for i, o := range ts.pendingChangedKeys {
		ts.ts.mem = replace(ts.ts.mem, i, o)
	}
	ts.ts.ops.Add(int64(len(ts.ops)))
	ts.ts.log.Debug("committed view",
		zap.Int("changes", len(ts.pendingChangedKeys)),
		zap.Int("ops", len(ts.ops)),
	)
}
