// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package addr

import (
	"errors"
	"fmt"

	smath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/symmem/ref"
	"github.com/ava-labs/symmem/types"
)

var (
	ErrUnknownIndex  = errors.New("unknown object index")
	ErrTypeMismatch  = errors.New("object type mismatch")
	ErrUnresolvedRef = errors.New("reference does not resolve")
	ErrOutOfBounds   = errors.New("address out of bounds")
	ErrMisaligned    = errors.New("misaligned address")
	ErrPointerType   = errors.New("invalid pointer type")
)

// Index names one allocation.
type Index uint64

// Renaming maps an object to the sub-object of another object that
// represents it.
type Renaming interface {
	Lookup(Index) (Index, ref.Path, bool)
}

// Addr is a pointer into an object.
//
// Ref selects a sub-object of type RefType. When the innermost segment of Ref
// indexes an array, Offset is counted from the selected element and the
// address may move across all elements of that array. Otherwise the address
// moves within the single sub-object Ref selects. PtrType is the type the
// pointer is dereferenced at: RefType for object-granular addresses and
// unsigned char for byte-granular ones.
type Addr struct {
	Index   Index
	Type    types.Type
	Ref     ref.Path
	Offset  uint64
	RefType types.Type
	PtrType types.Type
}

// New returns the address of the whole object [i] of type [t].
func New(i Index, t types.Type) Addr {
	return Addr{Index: i, Type: t, RefType: t, PtrType: t}
}

// Down returns the object-granular address of the sub-object that [p]
// selects below [a]. [a] must be an object-granular address with no offset.
func (a Addr) Down(env *types.Env, p ref.Path) (Addr, bool) {
	if !a.IsObj() || a.Offset != 0 {
		return Addr{}, false
	}
	t, ok := ref.TypeOf(env, a.RefType, p)
	if !ok {
		return Addr{}, false
	}
	return Addr{
		Index:   a.Index,
		Type:    a.Type,
		Ref:     ref.Concat(a.Ref, p),
		RefType: t,
		PtrType: t,
	}, true
}

// Bytes returns the byte-granular address of the first byte [a] points to.
func (a Addr) Bytes() Addr {
	a.PtrType = types.UChar
	return a
}

// IsObj is true for addresses that point to a whole sub-object.
func (a Addr) IsObj() bool {
	return a.RefType.Equal(a.PtrType)
}

func (a Addr) Freeze() Addr {
	a.Ref = a.Ref.Freeze()
	return a
}

func (a Addr) IsFrozen() bool {
	return a.Ref.IsFrozen()
}

// span returns the number of elements of type RefType the address may move
// across.
func (a Addr) span() uint64 {
	if last, ok := a.Ref.Last(); ok && last.Kind == ref.Array {
		return last.Len
	}
	return 1
}

func (a Addr) first() uint64 {
	if last, ok := a.Ref.Last(); ok && last.Kind == ref.Array {
		return last.Index
	}
	return 0
}

// bounds returns the size of RefType and the number of bytes the address may
// move across.
func (a Addr) bounds(env *types.Env) (uint64, uint64, bool) {
	size, ok := env.SizeOf(a.RefType)
	if !ok || size == 0 {
		return 0, 0, false
	}
	limit, err := smath.Mul64(a.span(), size)
	if err != nil {
		return 0, 0, false
	}
	return size, limit, true
}

// Position returns the byte offset of [a] from the start of the array (or
// sub-object) it moves across.
func (a Addr) Position(env *types.Env) (uint64, bool) {
	size, _, ok := a.bounds(env)
	if !ok {
		return 0, false
	}
	start, err := smath.Mul64(a.first(), size)
	if err != nil {
		return 0, false
	}
	pos, err := smath.Add64(start, a.Offset)
	return pos, err == nil
}

// Strict is true if [a] points inside its array (or sub-object) rather than
// one past its end.
func (a Addr) Strict(env *types.Env) bool {
	pos, ok := a.Position(env)
	if !ok {
		return false
	}
	_, limit, _ := a.bounds(env)
	return pos < limit
}

// EffectiveRef returns the reference of the sub-object [a] points into.
func (a Addr) EffectiveRef(env *types.Env) (ref.Path, bool) {
	last, ok := a.Ref.Last()
	if !ok || last.Kind != ref.Array {
		return a.Ref, true
	}
	pos, ok := a.Position(env)
	if !ok {
		return nil, false
	}
	size, _, _ := a.bounds(env)
	return a.Ref.WithLastIndex(pos / size), true
}

// RefByte returns the offset of [a] within the sub-object it points into.
func (a Addr) RefByte(env *types.Env) (uint64, bool) {
	pos, ok := a.Position(env)
	if !ok {
		return 0, false
	}
	size, _, _ := a.bounds(env)
	return pos % size, true
}

// Plus moves [a] by [j] elements of its pointer type. The result must stay
// within the array (or sub-object) [a] moves across; one past the end is
// allowed.
func (a Addr) Plus(env *types.Env, j int64) (Addr, bool) {
	pos, ok := a.Position(env)
	if !ok {
		return Addr{}, false
	}
	_, limit, _ := a.bounds(env)
	step, ok := env.SizeOf(a.PtrType)
	if !ok {
		return Addr{}, false
	}
	abs := uint64(j)
	if j < 0 {
		abs = -abs
	}
	delta, err := smath.Mul64(abs, step)
	if err != nil {
		return Addr{}, false
	}
	if j >= 0 {
		pos, err = smath.Add64(pos, delta)
		if err != nil {
			return Addr{}, false
		}
	} else {
		if delta > pos {
			return Addr{}, false
		}
		pos -= delta
	}
	if pos > limit {
		return Addr{}, false
	}
	if last, ok := a.Ref.Last(); ok && last.Kind == ref.Array {
		a.Ref = a.Ref.WithLastIndex(0)
	}
	a.Offset = pos
	return a, true
}

// Typed checks that [a] is well-formed in a memory whose objects have the
// types given by [typeOf], and returns the type [a] points to.
func (a Addr) Typed(env *types.Env, typeOf func(Index) (types.Type, bool)) (types.Type, error) {
	t, ok := typeOf(a.Index)
	if !ok {
		return types.Type{}, fmt.Errorf("%w: %d", ErrUnknownIndex, a.Index)
	}
	if !t.Equal(a.Type) {
		return types.Type{}, fmt.Errorf("%w: object %d has type %s, address expects %s", ErrTypeMismatch, a.Index, t, a.Type)
	}
	got, ok := ref.TypeOf(env, a.Type, a.Ref)
	if !ok || !got.Equal(a.RefType) {
		return types.Type{}, fmt.Errorf("%w: %s in %s", ErrUnresolvedRef, a.Ref, a.Type)
	}
	if !a.IsObj() && !a.PtrType.Equal(types.UChar) {
		return types.Type{}, fmt.Errorf("%w: %s pointer into %s", ErrPointerType, a.PtrType, a.RefType)
	}
	pos, ok := a.Position(env)
	if !ok {
		return types.Type{}, fmt.Errorf("%w: offset %d", ErrOutOfBounds, a.Offset)
	}
	if _, limit, _ := a.bounds(env); pos > limit {
		return types.Type{}, fmt.Errorf("%w: position %d of %d", ErrOutOfBounds, pos, limit)
	}
	step, ok := env.SizeOf(a.PtrType)
	if !ok || a.Offset%step != 0 {
		return types.Type{}, fmt.Errorf("%w: offset %d for %s", ErrMisaligned, a.Offset, a.PtrType)
	}
	return a.PtrType, nil
}

// Disjoint is true if [a] and [b] point to storage that cannot overlap.
func (a Addr) Disjoint(env *types.Env, b Addr) bool {
	if a.Index != b.Index {
		return true
	}
	ra, ok := a.EffectiveRef(env)
	if !ok {
		return false
	}
	rb, ok := b.EffectiveRef(env)
	if !ok {
		return false
	}
	if ra.Disjoint(rb) {
		return true
	}
	if a.IsObj() || b.IsObj() || !ra.FreezeEqual(rb) {
		return false
	}
	ia, _ := a.RefByte(env)
	ib, _ := b.RefByte(env)
	return ia != ib
}

// Refines is true if [b] points to what [a] points to once objects are
// renamed by [f].
func (a Addr) Refines(env *types.Env, f Renaming, b Addr) bool {
	dst, p, ok := f.Lookup(a.Index)
	if !ok || dst != b.Index {
		return false
	}
	if !b.Ref.FreezeEqual(ref.Concat(p, a.Ref)) {
		return false
	}
	if a.Offset != b.Offset || !a.RefType.Equal(b.RefType) || !a.PtrType.Equal(b.PtrType) {
		return false
	}
	t, ok := ref.TypeOf(env, b.Type, p)
	return ok && t.Equal(a.Type)
}

func (a Addr) String() string {
	if a.IsObj() {
		return fmt.Sprintf("%d%s+%d:%s", a.Index, a.Ref, a.Offset, a.RefType)
	}
	return fmt.Sprintf("%d%s+%d:%s>%s", a.Index, a.Ref, a.Offset, a.RefType, a.PtrType)
}
