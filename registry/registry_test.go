// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/nftgateway"
	"github.com/stretchr/testify/require"
)

var (
	owner  = common.HexToAddress("0x0a")
	other  = common.HexToAddress("0x0b")
	local  = common.HexToAddress("0x11")
	remote = common.HexToAddress("0x21")
)

func TestUpdateAndLookup(t *testing.T) {
	require := require.New(t)

	r := New(owner)
	require.Equal(owner, r.Owner())
	require.Equal(common.Address{}, r.Lookup(local))

	old, err := r.Update(owner, local, remote)
	require.NoError(err)
	require.Equal(common.Address{}, old)
	require.Equal(remote, r.Lookup(local))

	replacement := common.HexToAddress("0x22")
	old, err = r.Update(owner, local, replacement)
	require.NoError(err)
	require.Equal(remote, old)
	require.Equal(replacement, r.Lookup(local))
}

func TestUpdateRejected(t *testing.T) {
	tests := []struct {
		name   string
		caller common.Address
		local  common.Address
		remote common.Address
		err    error
	}{
		{"not owner", other, local, remote, nftgateway.ErrUnauthorized},
		{"zero remote", owner, local, common.Address{}, nftgateway.ErrInvalidArgument},
		{"zero local", owner, common.Address{}, remote, nftgateway.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(owner)
			prior := common.HexToAddress("0x99")
			_, err := r.Update(owner, local, prior)
			require.NoError(t, err)

			_, err = r.Update(tt.caller, tt.local, tt.remote)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, prior, r.Lookup(local))
		})
	}
}

func TestMappingsSorted(t *testing.T) {
	require := require.New(t)

	r := New(owner)
	_, err := r.Update(owner, common.HexToAddress("0x30"), remote)
	require.NoError(err)
	_, err = r.Update(owner, common.HexToAddress("0x10"), remote)
	require.NoError(err)

	got := r.Mappings()
	require.Len(got, 2)
	require.Equal(common.HexToAddress("0x10"), got[0].Local)
	require.Equal(common.HexToAddress("0x30"), got[1].Local)
}
