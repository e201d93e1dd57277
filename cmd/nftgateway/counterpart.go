// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/luxfi/log"
	"github.com/luxfi/nftgateway"
	"github.com/luxfi/nftgateway/guard"
	"github.com/luxfi/nftgateway/ledger"
	"github.com/luxfi/nftgateway/payload"
)

// counterpart stands in for the remote gateway. Finalized deposits are
// minted on its own ledger; it never sends withdrawals.
type counterpart struct {
	auth      guard.Authorizer
	messenger guard.OriginReader
	ledger    *ledger.Memory
	log       log.Logger
}

func (c *counterpart) ReceiveMessage(_ context.Context, call nftgateway.Call, data []byte) error {
	if err := c.auth.Authorize(call.Caller, c.messenger); err != nil {
		return err
	}
	fc, err := payload.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %w", nftgateway.ErrInvalidArgument, err)
	}
	if fc.Method != payload.FinalizeDeposit && fc.Method != payload.FinalizeBatchDeposit {
		return fmt.Errorf("%w: unexpected method %s", nftgateway.ErrInvalidArgument, fc.Method)
	}

	snap := c.ledger.Snapshot()
	for _, tokenID := range fc.TokenIDs {
		if err := c.ledger.Mint(fc.RemoteToken, fc.To, tokenID); err != nil {
			c.ledger.RevertToSnapshot(snap)
			return err
		}
	}
	c.ledger.Commit(snap)

	c.log.Info(
		"deposit mirrored",
		log.Stringer("remoteToken", fc.RemoteToken),
		log.Stringer("to", fc.To),
		log.Int("instances", len(fc.TokenIDs)),
	)
	return nil
}
