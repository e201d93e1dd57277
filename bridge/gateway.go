// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge provides the layer-1 side of a cross-domain NFT bridge.
// Deposits take instances into custody and send a finalize instruction to the
// counterpart gateway through the messenger; finalized withdrawals coming
// back through the messenger release custody to the named recipient.
package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/luxfi/nftgateway"
	"github.com/luxfi/nftgateway/guard"
	"github.com/luxfi/nftgateway/ledger"
	"github.com/luxfi/nftgateway/metrics"
	"github.com/luxfi/nftgateway/payload"
	"github.com/luxfi/nftgateway/registry"
)

var (
	_ nftgateway.Receiver = (*Gateway)(nil)
	_ ledger.Receiver     = (*Gateway)(nil)
)

const (
	opDeposit       = "deposit"
	opFinalize      = "finalize_withdraw"
	opUpdateMapping = "update_mapping"
	opReceive       = "receive_message"
)

// Hooks are optional extension points run inside a gateway operation. An
// error returned by a hook aborts the operation and undoes its effects.
type Hooks struct {
	// BeforeDeposit runs after custody is taken and before the message is
	// sent. call is the instruction about to be sent.
	BeforeDeposit func(ctx context.Context, call *payload.FinalizeCall) error
	// AfterFinalize runs after custody is released.
	AfterFinalize func(ctx context.Context, call *payload.FinalizeCall) error
}

// GatewayConfig configuration for the gateway
type GatewayConfig struct {
	// Address is the gateway's own identity on the ledger and towards the
	// messenger.
	Address common.Address
	// Counterpart is the gateway on the remote domain.
	Counterpart common.Address
	Messenger   nftgateway.Messenger
	Registry    *registry.Registry
	Ledger      ledger.Ledger
	Notifier    Notifier
	Metrics     *metrics.GatewayMetrics
	Log         log.Logger
}

// Gateway custodies deposited instances and releases them on authorized
// finalize instructions.
type Gateway struct {
	address     common.Address
	counterpart common.Address
	messenger   nftgateway.Messenger
	auth        guard.Authorizer
	guard       guard.Guard
	registry    *registry.Registry
	ledger      ledger.Ledger
	notifier    Notifier
	metrics     *metrics.GatewayMetrics
	log         log.Logger
	hooks       Hooks
}

// New creates a gateway. The counterpart and messenger identities are fixed
// for the life of the gateway.
func New(cfg *GatewayConfig) (*Gateway, error) {
	switch {
	case cfg.Address == (common.Address{}):
		return nil, fmt.Errorf("%w: gateway address cannot be 0", nftgateway.ErrInvalidArgument)
	case cfg.Counterpart == (common.Address{}):
		return nil, fmt.Errorf("%w: counterpart address cannot be 0", nftgateway.ErrInvalidArgument)
	case cfg.Messenger == nil || cfg.Messenger.Address() == (common.Address{}):
		return nil, fmt.Errorf("%w: messenger address cannot be 0", nftgateway.ErrInvalidArgument)
	case cfg.Registry == nil:
		return nil, fmt.Errorf("%w: registry is required", nftgateway.ErrInvalidArgument)
	case cfg.Ledger == nil:
		return nil, fmt.Errorf("%w: ledger is required", nftgateway.ErrInvalidArgument)
	}

	logger := cfg.Log
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Event) {})
	}

	return &Gateway{
		address:     cfg.Address,
		counterpart: cfg.Counterpart,
		messenger:   cfg.Messenger,
		auth: guard.Authorizer{
			Messenger:   cfg.Messenger.Address(),
			Counterpart: cfg.Counterpart,
		},
		registry: cfg.Registry,
		ledger:   cfg.Ledger,
		notifier: notifier,
		metrics:  cfg.Metrics,
		log:      logger,
	}, nil
}

// SetHooks installs the gateway extension points
func (g *Gateway) SetHooks(hooks Hooks) {
	g.hooks = hooks
}

// Address returns the gateway's own identity
func (g *Gateway) Address() common.Address { return g.address }

// Counterpart returns the remote gateway identity
func (g *Gateway) Counterpart() common.Address { return g.counterpart }

// Messenger returns the identity of the authorized messenger
func (g *Gateway) Messenger() common.Address { return g.auth.Messenger }

// TokenMapping returns the remote counterpart of a local token
func (g *Gateway) TokenMapping(local common.Address) common.Address {
	return g.registry.Lookup(local)
}

// DepositERC721 deposits one instance. A zero to deposits to the caller.
func (g *Gateway) DepositERC721(
	ctx context.Context,
	call nftgateway.Call,
	token, to common.Address,
	tokenID *big.Int,
	gasLimit uint64,
) (*nftgateway.Envelope, error) {
	return g.deposit(ctx, call, token, to, []*big.Int{tokenID}, gasLimit, false)
}

// BatchDepositERC721 deposits several instances of one collection as a single
// unit: either all of them move into custody and one message is sent, or
// nothing changes. A zero to deposits to the caller.
func (g *Gateway) BatchDepositERC721(
	ctx context.Context,
	call nftgateway.Call,
	token, to common.Address,
	tokenIDs []*big.Int,
	gasLimit uint64,
) (*nftgateway.Envelope, error) {
	return g.deposit(ctx, call, token, to, tokenIDs, gasLimit, true)
}

func (g *Gateway) deposit(
	ctx context.Context,
	call nftgateway.Call,
	token, to common.Address,
	tokenIDs []*big.Int,
	gasLimit uint64,
	batch bool,
) (_ *nftgateway.Envelope, err error) {
	defer func() {
		if err != nil {
			g.rejected(opDeposit, call.Caller, err)
		}
	}()

	release, err := g.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if batch && len(tokenIDs) == 0 {
		return nil, fmt.Errorf("%w: no token to deposit", nftgateway.ErrEmptyBatch)
	}
	remoteToken := g.registry.Lookup(token)
	if remoteToken == (common.Address{}) {
		return nil, fmt.Errorf("%w: no corresponding remote token for %s", nftgateway.ErrUnmappedToken, token)
	}
	if to == (common.Address{}) {
		to = call.Caller
	}
	tokenIDs = copyTokenIDs(tokenIDs)
	if err := validTokenIDs(tokenIDs); err != nil {
		return nil, err
	}

	method := payload.FinalizeDeposit
	if batch {
		method = payload.FinalizeBatchDeposit
	}
	finalizeCall, err := payload.NewFinalizeCall(method, token, remoteToken, call.Caller, to, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nftgateway.ErrInvalidArgument, err)
	}

	snap := g.ledger.Snapshot()
	defer func() {
		if err != nil {
			g.ledger.RevertToSnapshot(snap)
			return
		}
		g.ledger.Commit(snap)
	}()

	for _, tokenID := range tokenIDs {
		if err := g.ledger.SafeTransferFrom(ctx, g.address, call.Caller, g.address, token, tokenID); err != nil {
			return nil, fmt.Errorf("%w: token %s: %w", nftgateway.ErrLedgerTransferFailed, tokenID, err)
		}
	}

	if g.hooks.BeforeDeposit != nil {
		if err := g.hooks.BeforeDeposit(ctx, finalizeCall); err != nil {
			return nil, err
		}
	}

	message, err := finalizeCall.Pack()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nftgateway.ErrInvalidArgument, err)
	}
	env, err := g.messenger.SendMessage(ctx, &nftgateway.SendRequest{
		Sender:        g.address,
		Target:        g.counterpart,
		Value:         call.AttachedValue(),
		Payload:       message,
		GasLimit:      gasLimit,
		RefundAddress: call.Caller,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if batch {
		g.notifier.Notify(BatchDepositERC721{
			LocalToken:  token,
			RemoteToken: remoteToken,
			From:        call.Caller,
			To:          to,
			TokenIDs:    tokenIDs,
		})
	} else {
		g.notifier.Notify(DepositERC721{
			LocalToken:  token,
			RemoteToken: remoteToken,
			From:        call.Caller,
			To:          to,
			TokenID:     tokenIDs[0],
		})
	}
	g.metrics.Deposited(batch, len(tokenIDs))
	g.log.Info(
		"deposit initiated",
		log.Stringer("token", token),
		log.Stringer("remoteToken", remoteToken),
		log.Stringer("from", call.Caller),
		log.Stringer("to", to),
		log.Int("instances", len(tokenIDs)),
		log.Uint64("nonce", env.Nonce),
		log.Stringer("messageID", env.ID()),
	)
	return env, nil
}

// FinalizeWithdrawERC721 releases one instance to to. Only the messenger,
// relaying on behalf of the counterpart, may call it.
func (g *Gateway) FinalizeWithdrawERC721(
	ctx context.Context,
	call nftgateway.Call,
	localToken, remoteToken, from, to common.Address,
	tokenID *big.Int,
) error {
	return g.finalize(ctx, call, localToken, remoteToken, from, to, []*big.Int{tokenID}, false)
}

// FinalizeBatchWithdrawERC721 releases instances in the order given. If any
// transfer fails none of the instances are released.
func (g *Gateway) FinalizeBatchWithdrawERC721(
	ctx context.Context,
	call nftgateway.Call,
	localToken, remoteToken, from, to common.Address,
	tokenIDs []*big.Int,
) error {
	return g.finalize(ctx, call, localToken, remoteToken, from, to, tokenIDs, true)
}

func (g *Gateway) finalize(
	ctx context.Context,
	call nftgateway.Call,
	localToken, remoteToken, from, to common.Address,
	tokenIDs []*big.Int,
	batch bool,
) (err error) {
	defer func() {
		if err != nil {
			g.rejected(opFinalize, call.Caller, err)
		}
	}()

	if err := g.auth.Authorize(call.Caller, g.messenger); err != nil {
		return fmt.Errorf("%w: only messenger may call on behalf of counterpart", err)
	}

	release, err := g.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	if remoteToken == (common.Address{}) {
		return fmt.Errorf("%w: remote token address cannot be 0", nftgateway.ErrInvalidArgument)
	}
	if mapped := g.registry.Lookup(localToken); remoteToken != mapped {
		return fmt.Errorf("%w: got %s, registry has %s", nftgateway.ErrTokenMismatch, remoteToken, mapped)
	}
	tokenIDs = copyTokenIDs(tokenIDs)
	if err := validTokenIDs(tokenIDs); err != nil {
		return err
	}

	snap := g.ledger.Snapshot()
	defer func() {
		if err != nil {
			g.ledger.RevertToSnapshot(snap)
			return
		}
		g.ledger.Commit(snap)
	}()

	for _, tokenID := range tokenIDs {
		if err := g.ledger.SafeTransferFrom(ctx, g.address, g.address, to, localToken, tokenID); err != nil {
			return fmt.Errorf("%w: token %s: %w", nftgateway.ErrLedgerTransferFailed, tokenID, err)
		}
	}

	if g.hooks.AfterFinalize != nil {
		method := payload.FinalizeWithdraw
		if batch {
			method = payload.FinalizeBatchWithdraw
		}
		finalizeCall := &payload.FinalizeCall{
			Method:      method,
			LocalToken:  localToken,
			RemoteToken: remoteToken,
			From:        from,
			To:          to,
			TokenIDs:    tokenIDs,
		}
		if err := g.hooks.AfterFinalize(ctx, finalizeCall); err != nil {
			return err
		}
	}

	if batch {
		g.notifier.Notify(FinalizeBatchWithdrawERC721{
			LocalToken:  localToken,
			RemoteToken: remoteToken,
			From:        from,
			To:          to,
			TokenIDs:    tokenIDs,
		})
	} else {
		g.notifier.Notify(FinalizeWithdrawERC721{
			LocalToken:  localToken,
			RemoteToken: remoteToken,
			From:        from,
			To:          to,
			TokenID:     tokenIDs[0],
		})
	}
	g.metrics.Finalized(batch, len(tokenIDs))
	g.log.Info(
		"withdrawal finalized",
		log.Stringer("token", localToken),
		log.Stringer("remoteToken", remoteToken),
		log.Stringer("from", from),
		log.Stringer("to", to),
		log.Int("instances", len(tokenIDs)),
	)
	return nil
}

// ReceiveMessage decodes a delivered finalize instruction and dispatches it.
func (g *Gateway) ReceiveMessage(ctx context.Context, call nftgateway.Call, data []byte) error {
	if err := g.auth.Authorize(call.Caller, g.messenger); err != nil {
		g.rejected(opReceive, call.Caller, err)
		return fmt.Errorf("%w: only messenger may call on behalf of counterpart", err)
	}

	finalizeCall, err := payload.Decode(data)
	if err != nil {
		err = fmt.Errorf("%w: %w", nftgateway.ErrInvalidArgument, err)
		g.rejected(opReceive, call.Caller, err)
		return err
	}

	switch finalizeCall.Method {
	case payload.FinalizeWithdraw:
		return g.FinalizeWithdrawERC721(
			ctx, call,
			finalizeCall.LocalToken, finalizeCall.RemoteToken,
			finalizeCall.From, finalizeCall.To,
			finalizeCall.TokenIDs[0],
		)
	case payload.FinalizeBatchWithdraw:
		return g.FinalizeBatchWithdrawERC721(
			ctx, call,
			finalizeCall.LocalToken, finalizeCall.RemoteToken,
			finalizeCall.From, finalizeCall.To,
			finalizeCall.TokenIDs,
		)
	default:
		err := fmt.Errorf("%w: %s is not a layer-1 entry point", nftgateway.ErrInvalidArgument, finalizeCall.Method)
		g.rejected(opReceive, call.Caller, err)
		return err
	}
}

// UpdateTokenMapping sets the remote counterpart of a local token. Owner only.
func (g *Gateway) UpdateTokenMapping(
	_ context.Context,
	call nftgateway.Call,
	localToken, remoteToken common.Address,
) (err error) {
	defer func() {
		if err != nil {
			g.rejected(opUpdateMapping, call.Caller, err)
		}
	}()

	release, err := g.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	old, err := g.registry.Update(call.Caller, localToken, remoteToken)
	if err != nil {
		return err
	}

	g.notifier.Notify(UpdateTokenMapping{
		LocalToken:     localToken,
		OldRemoteToken: old,
		NewRemoteToken: remoteToken,
	})
	g.metrics.MappingUpdated()
	g.log.Info(
		"token mapping updated",
		log.Stringer("token", localToken),
		log.Stringer("oldRemoteToken", old),
		log.Stringer("newRemoteToken", remoteToken),
	)
	return nil
}

// OnERC721Received accepts safe transfers into custody.
func (g *Gateway) OnERC721Received(context.Context, common.Address, common.Address, common.Address, *big.Int) error {
	return nil
}

func (g *Gateway) rejected(operation string, caller common.Address, err error) {
	g.metrics.Failed(operation, nftgateway.Reason(err))
	g.log.Debug(
		"gateway call aborted",
		log.String("operation", operation),
		log.Stringer("caller", caller),
		log.Err(err),
	)
}

// copyTokenIDs detaches ids from the caller's slice so events and payloads
// cannot change after the call returns. Nil entries stay nil.
func copyTokenIDs(tokenIDs []*big.Int) []*big.Int {
	out := make([]*big.Int, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		if tokenID != nil {
			out[i] = new(big.Int).Set(tokenID)
		}
	}
	return out
}

func validTokenIDs(tokenIDs []*big.Int) error {
	for i, tokenID := range tokenIDs {
		if tokenID == nil || tokenID.Sign() < 0 {
			return fmt.Errorf("%w: token id at position %d", nftgateway.ErrInvalidArgument, i)
		}
	}
	return nil
}
