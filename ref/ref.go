// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ref

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/ava-labs/symmem/types"
)

type Kind uint8

const (
	Array Kind = iota
	Struct
	Union
)

// Segment selects one immediate sub-object: an array element, a struct field
// or a union variant.
type Segment struct {
	Kind  Kind
	Index uint64
	// Len is the length of the array the segment indexes into.
	Len uint64
	// Tag names the struct or union.
	Tag string
	// Frozen is only meaningful for union segments. An unfrozen segment was
	// produced by an access that may still change the active variant.
	Frozen bool
}

func ArraySeg(i, n uint64) Segment {
	return Segment{Kind: Array, Index: i, Len: n}
}

func StructSeg(tag string, i uint64) Segment {
	return Segment{Kind: Struct, Index: i, Tag: tag}
}

func UnionSeg(tag string, i uint64, frozen bool) Segment {
	return Segment{Kind: Union, Index: i, Tag: tag, Frozen: frozen}
}

func (s Segment) Freeze() Segment {
	if s.Kind == Union {
		s.Frozen = true
	}
	return s
}

// Step returns the type of the sub-object selected by [s] in an object of
// type [t].
func (s Segment) Step(env *types.Env, t types.Type) (types.Type, bool) {
	switch s.Kind {
	case Array:
		if t.Kind() != types.Array || t.Len() != s.Len || s.Index >= s.Len {
			return types.Type{}, false
		}
		return t.Elem(), true
	case Struct:
		if t.Kind() != types.Struct || t.Tag() != s.Tag {
			return types.Type{}, false
		}
		return env.Field(t, s.Index)
	case Union:
		if t.Kind() != types.Union || t.Tag() != s.Tag {
			return types.Type{}, false
		}
		return env.Field(t, s.Index)
	default:
		return types.Type{}, false
	}
}

// disjoint is true if [s] and [o] select different, non-overlapping
// sub-objects of the same aggregate.
func (s Segment) disjoint(o Segment) bool {
	switch {
	case s.Kind == Array && o.Kind == Array:
		return s.Len == o.Len && s.Index != o.Index
	case s.Kind == Struct && o.Kind == Struct:
		return s.Tag == o.Tag && s.Index != o.Index
	default:
		return false
	}
}

func (s Segment) String() string {
	switch s.Kind {
	case Array:
		return fmt.Sprintf("[%d/%d]", s.Index, s.Len)
	case Struct:
		return fmt.Sprintf(".%s#%d", s.Tag, s.Index)
	default:
		if s.Frozen {
			return fmt.Sprintf(".%s|%d", s.Tag, s.Index)
		}
		return fmt.Sprintf(".%s|%d?", s.Tag, s.Index)
	}
}

// Path is a sequence of segments, outermost first. The empty path denotes
// the whole object.
type Path []Segment

func (p Path) Freeze() Path {
	if len(p) == 0 {
		return p
	}
	frozen := make(Path, len(p))
	for i, s := range p {
		frozen[i] = s.Freeze()
	}
	return frozen
}

func (p Path) IsFrozen() bool {
	for _, s := range p {
		if s.Kind == Union && !s.Frozen {
			return false
		}
	}
	return true
}

// Last returns the innermost segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// WithLastIndex returns a copy of [p] whose innermost segment selects [i].
func (p Path) WithLastIndex(i uint64) Path {
	if len(p) == 0 {
		return p
	}
	c := slices.Clone(p)
	c[len(c)-1].Index = i
	return c
}

func (p Path) Equal(o Path) bool {
	return slices.Equal(p, o)
}

// FreezeEqual compares [p] and [o] ignoring whether union segments are
// frozen.
func (p Path) FreezeEqual(o Path) bool {
	return slices.EqualFunc(p, o, func(a, b Segment) bool {
		return a.Freeze() == b.Freeze()
	})
}

// HasPrefix returns true if [prefix] is freeze-equal to the outermost
// segments of [p].
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && p[:len(prefix)].FreezeEqual(prefix)
}

// Disjoint returns true if [p] and [o] denote sub-objects that cannot share
// storage. Paths that diverge at a union overlap.
func (p Path) Disjoint(o Path) bool {
	n := min(len(p), len(o))
	for i := 0; i < n; i++ {
		if p[i].Freeze() == o[i].Freeze() {
			continue
		}
		return p[i].disjoint(o[i])
	}
	return false
}

// Concat returns [outer] followed by [inner].
func Concat(outer, inner Path) Path {
	c := make(Path, 0, len(outer)+len(inner))
	c = append(c, outer...)
	return append(c, inner...)
}

// TypeOf returns the type of the sub-object [p] selects in an object of type
// [t].
func TypeOf(env *types.Env, t types.Type, p Path) (types.Type, bool) {
	for _, s := range p {
		var ok bool
		t, ok = s.Step(env, t)
		if !ok {
			return types.Type{}, false
		}
	}
	return t, true
}

func (p Path) String() string {
	if len(p) == 0 {
		return "ε"
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}
