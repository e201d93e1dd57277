// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"math/big"
	"sync"

	"github.com/luxfi/geth/common"
)

// Event is a notification emitted once per successful gateway operation.
type Event interface {
	Name() string
}

// DepositERC721 is emitted when a single instance is taken into custody and
// the finalize instruction has been handed to the messenger.
type DepositERC721 struct {
	LocalToken  common.Address
	RemoteToken common.Address
	From        common.Address
	To          common.Address
	TokenID     *big.Int
}

func (DepositERC721) Name() string { return "DepositERC721" }

// BatchDepositERC721 is the batch form of DepositERC721
type BatchDepositERC721 struct {
	LocalToken  common.Address
	RemoteToken common.Address
	From        common.Address
	To          common.Address
	TokenIDs    []*big.Int
}

func (BatchDepositERC721) Name() string { return "BatchDepositERC721" }

// FinalizeWithdrawERC721 is emitted when an instance is released to its
// recipient.
type FinalizeWithdrawERC721 struct {
	LocalToken  common.Address
	RemoteToken common.Address
	From        common.Address
	To          common.Address
	TokenID     *big.Int
}

func (FinalizeWithdrawERC721) Name() string { return "FinalizeWithdrawERC721" }

// FinalizeBatchWithdrawERC721 is the batch form of FinalizeWithdrawERC721
type FinalizeBatchWithdrawERC721 struct {
	LocalToken  common.Address
	RemoteToken common.Address
	From        common.Address
	To          common.Address
	TokenIDs    []*big.Int
}

func (FinalizeBatchWithdrawERC721) Name() string { return "FinalizeBatchWithdrawERC721" }

// UpdateTokenMapping is emitted when the owner changes a registry entry.
type UpdateTokenMapping struct {
	LocalToken     common.Address
	OldRemoteToken common.Address
	NewRemoteToken common.Address
}

func (UpdateTokenMapping) Name() string { return "UpdateTokenMapping" }

// Notifier receives gateway events after the operation has committed.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Recorder is a Notifier that keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
