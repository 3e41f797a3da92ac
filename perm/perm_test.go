// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package perm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHas(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		canRead  bool
		canWrite bool
		canFree  bool
	}{
		{
			name:     "existence only",
			kind:     None,
			canRead:  false,
			canWrite: false,
			canFree:  false,
		},
		{
			name:     "read only",
			kind:     Read,
			canRead:  true,
			canWrite: false,
			canFree:  false,
		},
		{
			name:     "locked bytes are writable",
			kind:     Lock,
			canRead:  true,
			canWrite: true,
			canFree:  false,
		},
		{
			name:     "freeable",
			kind:     Free,
			canRead:  true,
			canWrite: true,
			canFree:  true,
		},
		{
			name:     "freed grants nothing",
			kind:     Freed,
			canRead:  false,
			canWrite: false,
			canFree:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			require.Equal(tt.canRead, tt.kind.Has(Read))
			require.Equal(tt.canWrite, tt.kind.Has(Write))
			require.Equal(tt.canFree, tt.kind.Has(Free))
			require.True(tt.kind.Has(None))
		})
	}
}

func TestSplitUnion(t *testing.T) {
	require := require.New(t)

	p := New(Write)
	require.True(p.Valid())
	require.True(p.Unshared())

	a, b := p.Split()
	require.True(a.Disjoint(b))
	require.False(a.Unshared())
	require.Equal(p, a.Union(b))

	// a share of one unit cannot be divided further
	one := Perm{Kind: Read, Share: 1}
	c, d := one.Split()
	require.Equal(one, c)
	require.True(d.IsEmpty())
}

func TestDisjoint(t *testing.T) {
	require := require.New(t)

	full := New(Write)
	require.False(full.Disjoint(full))
	require.True(full.Disjoint(Perm{}))
	require.True(Perm{}.Disjoint(full))

	a, _ := full.Split()
	r, _ := New(Read).Split()
	require.False(a.Disjoint(r), "kinds must agree")
	require.True(a.Disjoint(a))
	require.Equal(full, a.Union(a))
}

func TestUnmapped(t *testing.T) {
	require := require.New(t)

	require.True(Perm{}.Unmapped())
	require.True(New(None).Unmapped())
	require.True(New(Freed).Unmapped())
	require.False(New(Read).Unmapped())

	require.False(Perm{Kind: Write}.Valid())
	require.False(Perm{Kind: Read, Share: Full + 1}.Valid())
	require.True(New(Freed).IsFreed())
	require.Equal(New(Freed), New(Free).WithKind(Freed))
	require.True(Perm{}.WithKind(Freed).IsEmpty())
}
