// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vtree

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/ava-labs/symmem/types"
)

var (
	ErrIllTyped     = errors.New("ill-typed value tree")
	ErrSizeMismatch = errors.New("byte count does not match type size")
	ErrInvalidByte  = errors.New("invalid byte")
)

type Kind uint8

const (
	Base Kind = iota
	Array
	Struct
	Union
	// UnionAll is a union without an active variant; its contents are raw
	// bytes.
	UnionAll
)

func (k Kind) String() string {
	switch k {
	case Base:
		return "base"
	case Array:
		return "array"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case UnionAll:
		return "union-all"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Tree holds the contents of an object (or sub-object) shaped after its
// type. Trees are never modified after construction; operations that change
// contents return new trees that share unchanged sub-trees.
type Tree struct {
	kind     Kind
	typ      types.Type
	bytes    []Byte  // Base contents, Union padding, UnionAll contents
	children []*Tree // Array elements, Struct fields, the active Union variant
	variant  uint64
}

// NewBase returns a leaf of base type [t].
func NewBase(t types.Type, bytes []Byte) *Tree {
	return &Tree{kind: Base, typ: t, bytes: slices.Clone(bytes)}
}

func NewArray(elem types.Type, elems ...*Tree) *Tree {
	return &Tree{
		kind:     Array,
		typ:      types.ArrayOf(elem, uint64(len(elems))),
		children: slices.Clone(elems),
	}
}

func NewStruct(tag string, fields ...*Tree) *Tree {
	return &Tree{kind: Struct, typ: types.StructType(tag), children: slices.Clone(fields)}
}

// NewUnion returns a union whose active variant [variant] holds [value].
// [padding] fills the union up to its size.
func NewUnion(tag string, variant uint64, value *Tree, padding []Byte) *Tree {
	return &Tree{
		kind:     Union,
		typ:      types.UnionType(tag),
		bytes:    slices.Clone(padding),
		children: []*Tree{value},
		variant:  variant,
	}
}

func NewUnionAll(tag string, bytes []Byte) *Tree {
	return &Tree{kind: UnionAll, typ: types.UnionType(tag), bytes: slices.Clone(bytes)}
}

// Fill returns a tree of type [t] whose every byte is [b].
func Fill(env *types.Env, t types.Type, b Byte) (*Tree, error) {
	size, ok := env.SizeOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no size", ErrIllTyped, t)
	}
	bytes := make([]Byte, size)
	for i := range bytes {
		bytes[i] = b
	}
	return ofBytes(env, t, bytes), nil
}

// OfBytes shapes a flat byte sequence as a tree of type [t]. Unions have no
// active variant in the result.
func OfBytes(env *types.Env, t types.Type, bytes []Byte) (*Tree, error) {
	size, ok := env.SizeOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no size", ErrIllTyped, t)
	}
	if size != uint64(len(bytes)) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrSizeMismatch, t, size, len(bytes))
	}
	return ofBytes(env, t, slices.Clone(bytes)), nil
}

// ofBytes assumes that [bytes] has the size of [t] and may retain it.
func ofBytes(env *types.Env, t types.Type, bytes []Byte) *Tree {
	switch t.Kind() {
	case types.Array:
		elem := t.Elem()
		size, _ := env.SizeOf(elem)
		elems := make([]*Tree, t.Len())
		for i := range elems {
			off := uint64(i) * size
			elems[i] = ofBytes(env, elem, bytes[off:off+size:off+size])
		}
		return &Tree{kind: Array, typ: t, children: elems}
	case types.Struct:
		fields, _ := env.Fields(t)
		children := make([]*Tree, len(fields))
		var off uint64
		for i, f := range fields {
			size, _ := env.SizeOf(f)
			children[i] = ofBytes(env, f, bytes[off:off+size:off+size])
			off += size
		}
		return &Tree{kind: Struct, typ: t, children: children}
	case types.Union:
		return &Tree{kind: UnionAll, typ: t, bytes: bytes}
	default:
		return &Tree{kind: Base, typ: t, bytes: bytes}
	}
}

func (t *Tree) Kind() Kind        { return t.kind }
func (t *Tree) Type() types.Type  { return t.typ }
func (t *Tree) Variant() uint64   { return t.variant }
func (t *Tree) Children() []*Tree { return slices.Clone(t.children) }
func (t *Tree) Bytes() []Byte     { return slices.Clone(t.bytes) }
func (t *Tree) NumChildren() int  { return len(t.children) }
func (t *Tree) Child(i int) *Tree { return t.children[i] }

// Flatten returns the bytes of [t] in layout order.
func (t *Tree) Flatten() []Byte {
	return t.appendBytes(nil)
}

func (t *Tree) appendBytes(dst []Byte) []Byte {
	switch t.kind {
	case Array, Struct:
		for _, c := range t.children {
			dst = c.appendBytes(dst)
		}
		return dst
	case Union:
		dst = t.children[0].appendBytes(dst)
		return append(dst, t.bytes...)
	default:
		return append(dst, t.bytes...)
	}
}

// TypeCheck returns the type of [t] if it is well-formed under [env].
func (t *Tree) TypeCheck(env *types.Env) (types.Type, error) {
	if t == nil {
		return types.Type{}, fmt.Errorf("%w: nil tree", ErrIllTyped)
	}
	if !env.Valid(t.typ) {
		return types.Type{}, fmt.Errorf("%w: %s is not valid", ErrIllTyped, t.typ)
	}
	switch t.kind {
	case Base:
		if !t.typ.IsBase() {
			return types.Type{}, fmt.Errorf("%w: leaf of non-base type %s", ErrIllTyped, t.typ)
		}
		if err := t.checkBytes(env, t.typ); err != nil {
			return types.Type{}, err
		}
	case Array:
		if t.typ.Kind() != types.Array || uint64(len(t.children)) != t.typ.Len() {
			return types.Type{}, fmt.Errorf("%w: %d elements for %s", ErrIllTyped, len(t.children), t.typ)
		}
		for i, c := range t.children {
			if err := c.expect(env, t.typ.Elem()); err != nil {
				return types.Type{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
	case Struct:
		fields, ok := env.Fields(t.typ)
		if !ok || t.typ.Kind() != types.Struct || len(fields) != len(t.children) {
			return types.Type{}, fmt.Errorf("%w: %d fields for %s", ErrIllTyped, len(t.children), t.typ)
		}
		for i, c := range t.children {
			if err := c.expect(env, fields[i]); err != nil {
				return types.Type{}, fmt.Errorf("field %d: %w", i, err)
			}
		}
	case Union:
		field, ok := env.Field(t.typ, t.variant)
		if !ok || t.typ.Kind() != types.Union || len(t.children) != 1 {
			return types.Type{}, fmt.Errorf("%w: variant %d of %s", ErrIllTyped, t.variant, t.typ)
		}
		if err := t.children[0].expect(env, field); err != nil {
			return types.Type{}, fmt.Errorf("variant %d: %w", t.variant, err)
		}
		total, _ := env.SizeOf(t.typ)
		size, _ := env.SizeOf(field)
		if uint64(len(t.bytes)) != total-size {
			return types.Type{}, fmt.Errorf("%w: %d padding bytes for variant %d of %s", ErrSizeMismatch, len(t.bytes), t.variant, t.typ)
		}
		if err := checkValid(t.bytes); err != nil {
			return types.Type{}, err
		}
	case UnionAll:
		if t.typ.Kind() != types.Union {
			return types.Type{}, fmt.Errorf("%w: raw union of type %s", ErrIllTyped, t.typ)
		}
		if err := t.checkBytes(env, t.typ); err != nil {
			return types.Type{}, err
		}
	default:
		return types.Type{}, fmt.Errorf("%w: unknown kind %s", ErrIllTyped, t.kind)
	}
	return t.typ, nil
}

func (t *Tree) expect(env *types.Env, want types.Type) error {
	got, err := t.TypeCheck(env)
	if err != nil {
		return err
	}
	if !got.Equal(want) {
		return fmt.Errorf("%w: expected %s, got %s", ErrIllTyped, want, got)
	}
	return nil
}

func (t *Tree) checkBytes(env *types.Env, typ types.Type) error {
	size, ok := env.SizeOf(typ)
	if !ok || size != uint64(len(t.bytes)) {
		return fmt.Errorf("%w: %d bytes for %s", ErrSizeMismatch, len(t.bytes), typ)
	}
	return checkValid(t.bytes)
}

func checkValid(bytes []Byte) error {
	for i, b := range bytes {
		if !b.Valid() {
			return fmt.Errorf("%w: %d (%s)", ErrInvalidByte, i, b)
		}
	}
	return nil
}

func (t *Tree) all(pred func(Byte) bool) bool {
	switch t.kind {
	case Array, Struct:
		for _, c := range t.children {
			if !c.all(pred) {
				return false
			}
		}
		return true
	case Union:
		if !t.children[0].all(pred) {
			return false
		}
	}
	for _, b := range t.bytes {
		if !pred(b) {
			return false
		}
	}
	return true
}

// IsEmpty is true if no byte of [t] is owned.
func (t *Tree) IsEmpty() bool {
	return t.all(func(b Byte) bool { return b.Perm.IsEmpty() })
}

// Unmapped is true if no byte of [t] can be observed.
func (t *Tree) Unmapped() bool {
	return t.all(func(b Byte) bool { return b.Perm.Unmapped() })
}

// Unshared is true if every byte of [t] is wholly owned.
func (t *Tree) Unshared() bool {
	return t.all(func(b Byte) bool { return b.Perm.Unshared() })
}

// Freed is true if every byte of [t] has been deallocated.
func (t *Tree) Freed() bool {
	return t.all(func(b Byte) bool { return b.Perm.IsFreed() })
}

// MapBytes returns a tree of the same shape with [f] applied to every byte.
func (t *Tree) MapBytes(f func(Byte) Byte) *Tree {
	c := &Tree{kind: t.kind, typ: t.typ, variant: t.variant}
	if t.bytes != nil {
		c.bytes = make([]Byte, len(t.bytes))
		for i, b := range t.bytes {
			c.bytes[i] = f(b)
		}
	}
	if t.children != nil {
		c.children = make([]*Tree, len(t.children))
		for i, child := range t.children {
			c.children[i] = child.MapBytes(f)
		}
	}
	return c
}

func (t *Tree) sameShape(o *Tree) bool {
	return t.kind == o.kind &&
		t.variant == o.variant &&
		len(t.children) == len(o.children) &&
		len(t.bytes) == len(o.bytes) &&
		t.typ.Equal(o.typ)
}

func (t *Tree) Equal(o *Tree) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || !t.sameShape(o) || !slices.Equal(t.bytes, o.bytes) {
		return false
	}
	for i, c := range t.children {
		if !c.Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (t *Tree) String() string {
	switch t.kind {
	case Base, UnionAll:
		return fmt.Sprintf("%s%v", t.typ, t.bytes)
	case Union:
		return fmt.Sprintf("%s{%d: %s}%v", t.typ, t.variant, t.children[0], t.bytes)
	default:
		return fmt.Sprintf("%s%v", t.typ, t.children)
	}
}
