// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"
	"strconv"

	"github.com/ava-labs/symmem/consts"
)

type Kind uint8

const (
	Void Kind = iota
	Int
	Pointer
	Array
	Struct
	Union
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Int:
		return "int"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Struct:
		return "struct"
	case Union:
		return "union"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Type is an immutable C type. Struct and union types are nominal: their
// fields live in an [Env].
type Type struct {
	kind   Kind
	signed bool
	size   uint64 // Int only
	elem   *Type  // Pointer and Array
	n      uint64 // Array only
	tag    string // Struct and Union
}

var (
	UChar = IntType(false, 1)
	SChar = IntType(true, 1)
	Short = IntType(true, 2)
	Int32 = IntType(true, 4)
	Long  = IntType(true, 8)
)

func VoidType() Type {
	return Type{kind: Void}
}

// IntType returns an integer type of [size] bytes.
func IntType(signed bool, size uint64) Type {
	return Type{kind: Int, signed: signed, size: size}
}

func PointerTo(t Type) Type {
	return Type{kind: Pointer, elem: &t}
}

func ArrayOf(t Type, n uint64) Type {
	return Type{kind: Array, elem: &t, n: n}
}

func StructType(tag string) Type {
	return Type{kind: Struct, tag: tag}
}

func UnionType(tag string) Type {
	return Type{kind: Union, tag: tag}
}

func (t Type) Kind() Kind        { return t.kind }
func (t Type) Signed() bool      { return t.signed }
func (t Type) Tag() string       { return t.tag }
func (t Type) Len() uint64       { return t.n }
func (t Type) IsBase() bool      { return t.kind <= Pointer }
func (t Type) IsVoid() bool      { return t.kind == Void }
func (t Type) IsAggregate() bool { return t.kind == Array || t.kind == Struct }

// Elem returns the element type of an array or the pointee of a pointer.
func (t Type) Elem() Type {
	if t.elem == nil {
		return VoidType()
	}
	return *t.elem
}

func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case Void:
		return true
	case Int:
		return t.signed == o.signed && t.size == o.size
	case Pointer:
		return t.Elem().Equal(o.Elem())
	case Array:
		return t.n == o.n && t.Elem().Equal(o.Elem())
	default:
		return t.tag == o.tag
	}
}

func (t Type) String() string {
	switch t.kind {
	case Void:
		return "void"
	case Int:
		if t.signed {
			return fmt.Sprintf("int%d", t.size*consts.CharBits)
		}
		return fmt.Sprintf("uint%d", t.size*consts.CharBits)
	case Pointer:
		return t.Elem().String() + "*"
	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem(), t.n)
	case Struct:
		return "struct " + t.tag
	case Union:
		return "union " + t.tag
	default:
		return t.kind.String()
	}
}
