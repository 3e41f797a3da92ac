// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package meminj implements injections: partial, injective maps from source
// objects to sub-objects of target objects.
package meminj

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/set"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/ref"
)

var (
	ErrDuplicateSource = errors.New("source already mapped")
	ErrAliasedTarget   = errors.New("target overlaps another source")
	ErrIdentity        = errors.New("identity injection cannot be extended")
)

// Target is the sub-object a source object is mapped to.
type Target struct {
	Index addr.Index
	Path  ref.Path
}

// Injection maps source objects to targets. No two sources map to
// overlapping parts of the same target object.
type Injection struct {
	identity bool
	forward  map[addr.Index]Target
	// byTarget lists, per target object, the sources mapped into it.
	byTarget map[addr.Index][]addr.Index
}

func New() *Injection {
	return &Injection{
		forward:  make(map[addr.Index]Target),
		byTarget: make(map[addr.Index][]addr.Index),
	}
}

// Identity returns the injection that maps every object to itself.
func Identity() *Injection {
	return &Injection{identity: true}
}

func (f *Injection) IsIdentity() bool {
	return f.identity
}

// Insert maps [src] to [dst].
func (f *Injection) Insert(src addr.Index, dst Target) error {
	if f.identity {
		return ErrIdentity
	}
	if _, ok := f.forward[src]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateSource, src)
	}
	for _, other := range f.byTarget[dst.Index] {
		if !f.forward[other].Path.Disjoint(dst.Path) {
			return fmt.Errorf("%w: %d and %d at %d%s", ErrAliasedTarget, other, src, dst.Index, dst.Path)
		}
	}
	dst.Path = slices.Clone(dst.Path)
	f.forward[src] = dst
	f.byTarget[dst.Index] = append(f.byTarget[dst.Index], src)
	return nil
}

// Lookup returns the target [src] is mapped to.
func (f *Injection) Lookup(src addr.Index) (addr.Index, ref.Path, bool) {
	if f.identity {
		return src, nil, true
	}
	t, ok := f.forward[src]
	return t.Index, t.Path, ok
}

// Len returns the number of mapped sources. The identity has none listed.
func (f *Injection) Len() int {
	return len(f.forward)
}

// Domain returns the listed sources.
func (f *Injection) Domain() set.Set[addr.Index] {
	return set.Of(maps.Keys(f.forward)...)
}

// Compose returns the injection that follows [f1] and then [f2]. A source of
// [f1] whose target is not mapped by [f2] is dropped. Paths concatenate with
// the outer object's path first.
func Compose(f1, f2 *Injection) (*Injection, error) {
	switch {
	case f1.identity && f2.identity:
		return Identity(), nil
	case f2.identity:
		return f1.clone(), nil
	}
	g := New()
	add := func(src addr.Index, mid addr.Index, p1 ref.Path) error {
		dst, p2, ok := f2.Lookup(mid)
		if !ok {
			return nil
		}
		return g.Insert(src, Target{Index: dst, Path: ref.Concat(p2, p1)})
	}
	if f1.identity {
		for _, src := range sortedKeys(f2.forward) {
			if err := add(src, src, nil); err != nil {
				return nil, err
			}
		}
		return g, nil
	}
	for _, src := range sortedKeys(f1.forward) {
		t := f1.forward[src]
		if err := add(src, t.Index, t.Path); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AgreesOn returns true if [f] and [g] map every index of [indices] to the
// same target.
func (f *Injection) AgreesOn(g addr.Renaming, indices set.Set[addr.Index]) bool {
	for i := range indices {
		d1, p1, ok1 := f.Lookup(i)
		d2, p2, ok2 := g.Lookup(i)
		if ok1 != ok2 || d1 != d2 || !p1.FreezeEqual(p2) {
			return false
		}
	}
	return true
}

func (f *Injection) clone() *Injection {
	if f.identity {
		return Identity()
	}
	g := New()
	for _, src := range sortedKeys(f.forward) {
		_ = g.Insert(src, f.forward[src])
	}
	return g
}

func sortedKeys(m map[addr.Index]Target) []addr.Index {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
