// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package payload

import (
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	l1Token = common.HexToAddress("0x1111111111111111111111111111111111111111")
	l2Token = common.HexToAddress("0x2222222222222222222222222222222222222222")
	from    = common.HexToAddress("0x3333333333333333333333333333333333333333")
	to      = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func TestSelectorsMatchSignatures(t *testing.T) {
	tests := []struct {
		method    Method
		signature string
	}{
		{FinalizeDeposit, "finalizeDepositERC721(address,address,address,address,uint256)"},
		{FinalizeBatchDeposit, "finalizeBatchDepositERC721(address,address,address,address,uint256[])"},
		{FinalizeWithdraw, "finalizeWithdrawERC721(address,address,address,address,uint256)"},
		{FinalizeBatchWithdraw, "finalizeBatchWithdrawERC721(address,address,address,address,uint256[])"},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			expected := crypto.Keccak256([]byte(tt.signature))[:4]
			require.Equal(t, expected, tt.method.Selector())
		})
	}
}

func TestPackDecode(t *testing.T) {
	tests := []struct {
		name     string
		method   Method
		tokenIDs []*big.Int
	}{
		{"single deposit", FinalizeDeposit, []*big.Int{big.NewInt(5)}},
		{"batch deposit", FinalizeBatchDeposit, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}},
		{"single withdraw", FinalizeWithdraw, []*big.Int{big.NewInt(0)}},
		{"batch withdraw", FinalizeBatchWithdraw, []*big.Int{big.NewInt(7), big.NewInt(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			call, err := NewFinalizeCall(tt.method, l1Token, l2Token, from, to, tt.tokenIDs)
			require.NoError(err)

			data, err := call.Pack()
			require.NoError(err)
			require.Equal(tt.method.Selector(), data[:4])

			decoded, err := Decode(data)
			require.NoError(err)
			require.Equal(tt.method, decoded.Method)
			require.Equal(l1Token, decoded.LocalToken)
			require.Equal(l2Token, decoded.RemoteToken)
			require.Equal(from, decoded.From)
			require.Equal(to, decoded.To)
			require.Len(decoded.TokenIDs, len(tt.tokenIDs))
			for i := range tt.tokenIDs {
				require.Zero(tt.tokenIDs[i].Cmp(decoded.TokenIDs[i]))
			}
		})
	}
}

func TestNewFinalizeCallInvalid(t *testing.T) {
	_, err := NewFinalizeCall(FinalizeDeposit, l1Token, l2Token, from, to, []*big.Int{big.NewInt(1), big.NewInt(2)})
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = NewFinalizeCall(FinalizeWithdraw, l1Token, l2Token, from, to, nil)
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = NewFinalizeCall(FinalizeBatchWithdraw, l1Token, l2Token, from, to, []*big.Int{big.NewInt(-1)})
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = NewFinalizeCall(Method(42), l1Token, l2Token, from, to, []*big.Int{big.NewInt(1)})
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode([]byte{0xde, 0xad, 0xbe, 0xef, 0x00})
	require.ErrorIs(t, err, ErrInvalidPayload)

	call, err := NewFinalizeCall(FinalizeWithdraw, l1Token, l2Token, from, to, []*big.Int{big.NewInt(1)})
	require.NoError(t, err)
	data := call.Bytes()
	_, err = Decode(data[:len(data)-10])
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{FinalizeDeposit, FinalizeBatchDeposit, FinalizeWithdraw, FinalizeBatchWithdraw} {
		parsed, err := ParseMethod(m.String())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}

	_, err := ParseMethod("transferFrom")
	require.ErrorIs(t, err, ErrInvalidPayload)
}
