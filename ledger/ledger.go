// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger describes the non-fungible asset ledger a gateway custodies
// instances on, and provides an in-memory implementation of it.
package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
)

var (
	ErrNonexistentToken = errors.New("nonexistent token")
	ErrTokenExists      = errors.New("token already minted")
	ErrNotOwner         = errors.New("transfer from incorrect owner")
	ErrNotApproved      = errors.New("caller is not token owner or approved")
	ErrZeroAddress      = errors.New("zero address")
	ErrInvalidTokenID   = errors.New("invalid token id")
	ErrReceiverRejected = errors.New("transfer rejected by receiver")
)

// Receiver is implemented by contracts that accept safe transfers.
type Receiver interface {
	OnERC721Received(ctx context.Context, operator, from, token common.Address, tokenID *big.Int) error
}

// Ledger is the ownership ledger for non-fungible instances.
//
// Snapshot and RevertToSnapshot let a caller undo every mutation made since
// the snapshot, including mutations made by receiver hooks. Commit closes a
// snapshot whose mutations are kept.
type Ledger interface {
	OwnerOf(token common.Address, tokenID *big.Int) (common.Address, error)
	SafeTransferFrom(ctx context.Context, operator, from, to, token common.Address, tokenID *big.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
	Commit(id int)
}
