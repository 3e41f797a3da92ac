// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	smath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/symmem/consts"
)

var (
	ErrTagExists      = errors.New("tag already declared")
	ErrNoFields       = errors.New("aggregate declared without fields")
	ErrIncompleteType = errors.New("incomplete type")
	ErrInvalidType    = errors.New("invalid type")
)

// Env is the type environment: the declared struct and union tags and their
// field types. An Env is append-only; declarations are never changed, which
// keeps every size computed from it stable as the environment grows.
type Env struct {
	structs map[string][]Type
	unions  map[string][]Type
}

func NewEnv() *Env {
	return &Env{
		structs: make(map[string][]Type),
		unions:  make(map[string][]Type),
	}
}

func (e *Env) DeclareStruct(tag string, fields ...Type) error {
	return e.declare(e.structs, tag, fields)
}

func (e *Env) DeclareUnion(tag string, fields ...Type) error {
	return e.declare(e.unions, tag, fields)
}

func (e *Env) declare(decls map[string][]Type, tag string, fields []Type) error {
	if _, ok := decls[tag]; ok {
		return fmt.Errorf("%w: %q", ErrTagExists, tag)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: %q", ErrNoFields, tag)
	}
	for i, f := range fields {
		if !e.Valid(f) {
			return fmt.Errorf("%w: field %d of %q has type %s", ErrIncompleteType, i, tag, f)
		}
	}
	decls[tag] = slices.Clone(fields)
	return nil
}

// Fields returns the field types of a struct or union type.
func (e *Env) Fields(t Type) ([]Type, bool) {
	if e == nil {
		return nil, false
	}
	var (
		fields []Type
		ok     bool
	)
	switch t.kind {
	case Struct:
		fields, ok = e.structs[t.tag]
	case Union:
		fields, ok = e.unions[t.tag]
	}
	return fields, ok
}

// Field returns the type of field [i] of a struct or union type.
func (e *Env) Field(t Type, i uint64) (Type, bool) {
	fields, ok := e.Fields(t)
	if !ok || i >= uint64(len(fields)) {
		return Type{}, false
	}
	return fields[i], true
}

// Valid returns true if [t] is a complete object type under [e]. Pointers
// may point to types that are not (yet) declared.
func (e *Env) Valid(t Type) bool {
	switch t.kind {
	case Void, Pointer:
		return true
	case Int:
		switch t.size {
		case 1, 2, 4, 8:
			return true
		default:
			return false
		}
	case Array:
		return t.n > 0 && t.elem != nil && e.Valid(*t.elem)
	case Struct, Union:
		_, ok := e.Fields(t)
		return ok
	default:
		return false
	}
}

// SizeOf returns the size of [t] in bytes. Aggregates are laid out without
// padding. It returns false if [t] is not valid or its size overflows.
func (e *Env) SizeOf(t Type) (uint64, bool) {
	switch t.kind {
	case Void:
		return consts.CharSize, true
	case Int:
		if !e.Valid(t) {
			return 0, false
		}
		return t.size, true
	case Pointer:
		return consts.PtrSize, true
	case Array:
		if t.n == 0 || t.elem == nil {
			return 0, false
		}
		sz, ok := e.SizeOf(*t.elem)
		if !ok {
			return 0, false
		}
		total, err := smath.Mul64(sz, t.n)
		if err != nil {
			return 0, false
		}
		return total, true
	case Struct:
		fields, ok := e.Fields(t)
		if !ok {
			return 0, false
		}
		var (
			total uint64
			err   error
		)
		for _, f := range fields {
			sz, ok := e.SizeOf(f)
			if !ok {
				return 0, false
			}
			total, err = smath.Add64(total, sz)
			if err != nil {
				return 0, false
			}
		}
		return total, true
	case Union:
		fields, ok := e.Fields(t)
		if !ok {
			return 0, false
		}
		var largest uint64
		for _, f := range fields {
			sz, ok := e.SizeOf(f)
			if !ok {
				return 0, false
			}
			largest = max(largest, sz)
		}
		return largest, true
	default:
		return 0, false
	}
}

// Includes returns true if every declaration of [sub] is present, with
// identical fields, in [e].
func (e *Env) Includes(sub *Env) bool {
	if sub == nil {
		return true
	}
	for tag, fields := range sub.structs {
		mine, ok := e.structs[tag]
		if !ok || !slices.EqualFunc(mine, fields, Type.Equal) {
			return false
		}
	}
	for tag, fields := range sub.unions {
		mine, ok := e.unions[tag]
		if !ok || !slices.EqualFunc(mine, fields, Type.Equal) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of [e] that can be extended without
// affecting the original.
func (e *Env) Clone() *Env {
	return &Env{
		structs: maps.Clone(e.structs),
		unions:  maps.Clone(e.unions),
	}
}

// Subtype returns true if [sub] occurs as a sub-object of [t] (including [t]
// itself).
func (e *Env) Subtype(sub, t Type) bool {
	if sub.Equal(t) {
		return true
	}
	switch t.kind {
	case Array:
		return e.Subtype(sub, t.Elem())
	case Struct, Union:
		fields, _ := e.Fields(t)
		for _, f := range fields {
			if e.Subtype(sub, f) {
				return true
			}
		}
	}
	return false
}
