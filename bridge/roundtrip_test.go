// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/nftgateway"
	"github.com/luxfi/nftgateway/backend"
	"github.com/luxfi/nftgateway/guard"
	"github.com/luxfi/nftgateway/ledger"
	"github.com/luxfi/nftgateway/payload"
	"github.com/luxfi/nftgateway/registry"
	"github.com/stretchr/testify/require"
)

const feePerGas = 2

var (
	l2MessengerAddr = common.HexToAddress("0x3e55000000000000000000000000000000000002")
	finalRecipient  = common.HexToAddress("0x0000000000000000000000000000000000000f01")
)

// l2Gateway is a minimal counterpart: it mints on finalized deposits and
// burns on withdrawal.
type l2Gateway struct {
	address     common.Address
	counterpart common.Address
	messenger   *backend.Messenger
	ledger      *ledger.Memory
	auth        guard.Authorizer
}

func (g *l2Gateway) ReceiveMessage(_ context.Context, call nftgateway.Call, data []byte) error {
	if err := g.auth.Authorize(call.Caller, g.messenger); err != nil {
		return err
	}
	fc, err := payload.Decode(data)
	if err != nil {
		return err
	}
	if fc.Method != payload.FinalizeDeposit && fc.Method != payload.FinalizeBatchDeposit {
		return fmt.Errorf("unexpected method %s", fc.Method)
	}
	for _, id := range fc.TokenIDs {
		if err := g.ledger.Mint(fc.RemoteToken, fc.To, id); err != nil {
			return err
		}
	}
	return nil
}

func (g *l2Gateway) withdraw(
	ctx context.Context,
	caller, to common.Address,
	tokenIDs []*big.Int,
	gasLimit uint64,
) (*nftgateway.Envelope, error) {
	for _, id := range tokenIDs {
		if err := g.ledger.Burn(caller, remoteToken, id); err != nil {
			return nil, err
		}
	}
	method := payload.FinalizeWithdraw
	if len(tokenIDs) > 1 {
		method = payload.FinalizeBatchWithdraw
	}
	fc, err := payload.NewFinalizeCall(method, localToken, remoteToken, caller, to, tokenIDs)
	if err != nil {
		return nil, err
	}
	fee := uint256.NewInt(gasLimit * feePerGas)
	return g.messenger.SendMessage(ctx, &nftgateway.SendRequest{
		Sender:        g.address,
		Target:        g.counterpart,
		Value:         fee,
		Payload:       fc.Bytes(),
		GasLimit:      gasLimit,
		RefundAddress: caller,
	})
}

type roundTrip struct {
	l1, l2   *backend.Messenger
	gw       *Gateway
	l1Ledger *ledger.Memory
	remote   *l2Gateway
	events   *Recorder
}

func newRoundTrip(t *testing.T) *roundTrip {
	t.Helper()
	require := require.New(t)

	var l1Chain, l2Chain ids.ID
	_, _ = rand.Read(l1Chain[:])
	_, _ = rand.Read(l2Chain[:])

	l1 := backend.NewMessenger(&backend.Config{
		Address:       messengerAddr,
		ChainID:       l1Chain,
		RemoteChainID: l2Chain,
		FeePerGas:     uint256.NewInt(feePerGas),
	})
	l2 := backend.NewMessenger(&backend.Config{
		Address:       l2MessengerAddr,
		ChainID:       l2Chain,
		RemoteChainID: l1Chain,
		FeePerGas:     uint256.NewInt(feePerGas),
	})

	l1Ledger := ledger.NewMemory()
	rec := &Recorder{}
	gw, err := New(&GatewayConfig{
		Address:     gatewayAddr,
		Counterpart: counterpartAddr,
		Messenger:   l1,
		Registry:    registry.New(ownerAddr),
		Ledger:      l1Ledger,
		Notifier:    rec,
	})
	require.NoError(err)
	l1Ledger.RegisterReceiver(gatewayAddr, gw)
	l1.RegisterReceiver(gatewayAddr, gw)
	require.NoError(gw.UpdateTokenMapping(context.Background(), nftgateway.Call{Caller: ownerAddr}, localToken, remoteToken))

	counterpart := &l2Gateway{
		address:     counterpartAddr,
		counterpart: gatewayAddr,
		messenger:   l2,
		ledger:      ledger.NewMemory(),
		auth:        guard.Authorizer{Messenger: l2MessengerAddr, Counterpart: gatewayAddr},
	}
	l2.RegisterReceiver(counterpartAddr, counterpart)

	return &roundTrip{l1: l1, l2: l2, gw: gw, l1Ledger: l1Ledger, remote: counterpart, events: rec}
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	rt := newRoundTrip(t)
	require.NoError(rt.l1Ledger.Mint(localToken, depositor, big.NewInt(5)))
	require.NoError(rt.l1Ledger.Approve(depositor, localToken, gatewayAddr, big.NewInt(5)))

	// deposit on L1
	_, err := rt.gw.DepositERC721(ctx, nftgateway.Call{Caller: depositor, Value: uint256.NewInt(200)}, localToken, recipient, big.NewInt(5), 100)
	require.NoError(err)
	owner, err := rt.l1Ledger.OwnerOf(localToken, big.NewInt(5))
	require.NoError(err)
	require.Equal(gatewayAddr, owner)

	n, err := backend.Relay(ctx, rt.l1, rt.l2)
	require.NoError(err)
	require.Equal(1, n)

	owner, err = rt.remote.ledger.OwnerOf(remoteToken, big.NewInt(5))
	require.NoError(err)
	require.Equal(recipient, owner)

	// withdraw on L2
	env, err := rt.remote.withdraw(ctx, recipient, finalRecipient, []*big.Int{big.NewInt(5)}, 100)
	require.NoError(err)
	_, err = rt.remote.ledger.OwnerOf(remoteToken, big.NewInt(5))
	require.ErrorIs(err, ledger.ErrNonexistentToken)

	n, err = backend.Relay(ctx, rt.l2, rt.l1)
	require.NoError(err)
	require.Equal(1, n)

	owner, err = rt.l1Ledger.OwnerOf(localToken, big.NewInt(5))
	require.NoError(err)
	require.Equal(finalRecipient, owner)
	require.True(rt.l1.IsDelivered(env.ID()))

	// replaying the withdrawal is refused by the messenger
	require.ErrorIs(rt.l1.Deliver(ctx, env), backend.ErrAlreadyDelivered)

	events := rt.events.Events()
	require.Len(events, 3)
	require.IsType(DepositERC721{}, events[1])
	require.Equal(FinalizeWithdrawERC721{
		LocalToken:  localToken,
		RemoteToken: remoteToken,
		From:        recipient,
		To:          finalRecipient,
		TokenID:     big.NewInt(5),
	}, events[2])
}

func TestRoundTripInsufficientFeeKeepsCustody(t *testing.T) {
	require := require.New(t)

	rt := newRoundTrip(t)
	require.NoError(rt.l1Ledger.Mint(localToken, depositor, big.NewInt(1)))
	rt.l1Ledger.SetApprovalForAll(depositor, localToken, gatewayAddr, true)

	_, err := rt.gw.DepositERC721(context.Background(), nftgateway.Call{Caller: depositor, Value: uint256.NewInt(1)}, localToken, recipient, big.NewInt(1), 100)
	require.ErrorIs(err, backend.ErrInsufficientFee)

	owner, err := rt.l1Ledger.OwnerOf(localToken, big.NewInt(1))
	require.NoError(err)
	require.Equal(depositor, owner)
	require.Empty(rt.l1.GetPendingMessages())
}

func TestRoundTripOutOfOrderDelivery(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	rt := newRoundTrip(t)
	rt.l1Ledger.SetApprovalForAll(depositor, localToken, gatewayAddr, true)
	for _, id := range []int64{1, 2} {
		require.NoError(rt.l1Ledger.Mint(localToken, depositor, big.NewInt(id)))
		_, err := rt.gw.DepositERC721(ctx, nftgateway.Call{Caller: depositor, Value: uint256.NewInt(200)}, localToken, depositor, big.NewInt(id), 100)
		require.NoError(err)
	}
	_, err := backend.Relay(ctx, rt.l1, rt.l2)
	require.NoError(err)

	first, err := rt.remote.withdraw(ctx, depositor, recipient, []*big.Int{big.NewInt(1)}, 100)
	require.NoError(err)
	second, err := rt.remote.withdraw(ctx, depositor, recipient, []*big.Int{big.NewInt(2)}, 100)
	require.NoError(err)

	require.NoError(rt.l1.Deliver(ctx, second))
	require.NoError(rt.l1.Deliver(ctx, first))

	for _, id := range []int64{1, 2} {
		owner, err := rt.l1Ledger.OwnerOf(localToken, big.NewInt(id))
		require.NoError(err)
		require.Equal(recipient, owner)
	}
}

func TestRoundTripForgedWithdrawal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	rt := newRoundTrip(t)
	require.NoError(rt.l1Ledger.Mint(localToken, gatewayAddr, big.NewInt(9)))

	// A contract other than the counterpart sends a withdrawal through the
	// legitimate L2 messenger.
	fc, err := payload.NewFinalizeCall(payload.FinalizeWithdraw, localToken, remoteToken, stranger, stranger, []*big.Int{big.NewInt(9)})
	require.NoError(err)
	env, err := rt.remote.messenger.SendMessage(ctx, &nftgateway.SendRequest{
		Sender:        stranger,
		Target:        gatewayAddr,
		Value:         uint256.NewInt(200),
		Payload:       fc.Bytes(),
		GasLimit:      100,
		RefundAddress: stranger,
	})
	require.NoError(err)

	require.ErrorIs(rt.l1.Deliver(ctx, env), nftgateway.ErrUnauthorized)
	owner, err := rt.l1Ledger.OwnerOf(localToken, big.NewInt(9))
	require.NoError(err)
	require.Equal(gatewayAddr, owner)
	require.False(rt.l1.IsDelivered(env.ID()))
}
