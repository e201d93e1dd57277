// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var _ Ledger = (*Memory)(nil)

type collection struct {
	owners    map[uint256.Int]common.Address
	approved  map[uint256.Int]common.Address
	operators map[common.Address]map[common.Address]bool
}

func newCollection() *collection {
	return &collection{
		owners:    make(map[uint256.Int]common.Address),
		approved:  make(map[uint256.Int]common.Address),
		operators: make(map[common.Address]map[common.Address]bool),
	}
}

// Memory is an in-memory ERC-721 ledger covering any number of collections.
type Memory struct {
	mu          sync.Mutex
	collections map[common.Address]*collection
	receivers   map[common.Address]Receiver

	// undo entries are kept only while a snapshot is open
	journal []func()
	open    int
}

// NewMemory creates an empty ledger
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[common.Address]*collection),
		receivers:   make(map[common.Address]Receiver),
	}
}

func tokenKey(tokenID *big.Int) (uint256.Int, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return uint256.Int{}, ErrInvalidTokenID
	}
	key, overflow := uint256.FromBig(tokenID)
	if overflow {
		return uint256.Int{}, ErrInvalidTokenID
	}
	return *key, nil
}

// RegisterReceiver marks addr as a contract; safe transfers to it invoke r.
func (m *Memory) RegisterReceiver(addr common.Address, r Receiver) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.receivers[addr] = r
}

func (m *Memory) collection(token common.Address) *collection {
	c, ok := m.collections[token]
	if !ok {
		c = newCollection()
		m.collections[token] = c
	}
	return c
}

// Mint creates tokenID in collection token, owned by to.
func (m *Memory) Mint(token, to common.Address, tokenID *big.Int) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: mint to the zero address", ErrZeroAddress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(token)
	if _, exists := c.owners[key]; exists {
		return fmt.Errorf("%w: %s", ErrTokenExists, tokenID)
	}
	c.owners[key] = to
	m.record(func() { delete(c.owners, key) })
	return nil
}

// Burn destroys tokenID. Only the owner or an approved operator may burn.
func (m *Memory) Burn(operator, token common.Address, tokenID *big.Int) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(token)
	owner, ok := c.owners[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNonexistentToken, tokenID)
	}
	if !c.isApprovedOrOwner(operator, owner, key) {
		return ErrNotApproved
	}
	approved, hadApproval := c.approved[key]
	delete(c.owners, key)
	delete(c.approved, key)
	m.record(func() {
		c.owners[key] = owner
		if hadApproval {
			c.approved[key] = approved
		}
	})
	return nil
}

// OwnerOf returns the current owner of tokenID
func (m *Memory) OwnerOf(token common.Address, tokenID *big.Int) (common.Address, error) {
	key, err := tokenKey(tokenID)
	if err != nil {
		return common.Address{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[token]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNonexistentToken, tokenID)
	}
	owner, ok := c.owners[key]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNonexistentToken, tokenID)
	}
	return owner, nil
}

// Approve lets to transfer tokenID on the owner's behalf.
func (m *Memory) Approve(caller, token, to common.Address, tokenID *big.Int) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(token)
	owner, ok := c.owners[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNonexistentToken, tokenID)
	}
	if caller != owner && !c.operators[owner][caller] {
		return ErrNotApproved
	}
	prev, had := c.approved[key]
	c.approved[key] = to
	m.record(func() {
		if had {
			c.approved[key] = prev
		} else {
			delete(c.approved, key)
		}
	})
	return nil
}

// SetApprovalForAll grants or revokes operator over all of owner's tokens in
// collection token.
func (m *Memory) SetApprovalForAll(owner, token, operator common.Address, approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(token)
	ops, ok := c.operators[owner]
	if !ok {
		ops = make(map[common.Address]bool)
		c.operators[owner] = ops
	}
	prev := ops[operator]
	ops[operator] = approved
	m.record(func() { ops[operator] = prev })
}

func (c *collection) isApprovedOrOwner(operator, owner common.Address, key uint256.Int) bool {
	return operator == owner || c.approved[key] == operator || c.operators[owner][operator]
}

// SafeTransferFrom moves tokenID from from to to. If to is a registered
// receiver its hook runs after the ownership change; a hook error undoes the
// transfer and everything the hook did.
func (m *Memory) SafeTransferFrom(
	ctx context.Context,
	operator, from, to, token common.Address,
	tokenID *big.Int,
) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	c, ok := m.collections[token]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNonexistentToken, tokenID)
	}
	owner, ok := c.owners[key]
	switch {
	case !ok:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNonexistentToken, tokenID)
	case owner != from:
		m.mu.Unlock()
		return fmt.Errorf("%w: token %s is held by %s", ErrNotOwner, tokenID, owner)
	case to == (common.Address{}):
		m.mu.Unlock()
		return fmt.Errorf("%w: transfer to the zero address", ErrZeroAddress)
	case !c.isApprovedOrOwner(operator, owner, key):
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotApproved, operator)
	}

	snap := m.snapshotLocked()
	approved, hadApproval := c.approved[key]
	c.owners[key] = to
	delete(c.approved, key)
	m.record(func() {
		c.owners[key] = owner
		if hadApproval {
			c.approved[key] = approved
		}
	})
	receiver := m.receivers[to]
	m.mu.Unlock()

	if receiver != nil {
		if err := receiver.OnERC721Received(ctx, operator, from, token, tokenID); err != nil {
			m.RevertToSnapshot(snap)
			return fmt.Errorf("%w: %w", ErrReceiverRejected, err)
		}
	}
	m.Commit(snap)
	return nil
}

func (m *Memory) record(undo func()) {
	if m.open > 0 {
		m.journal = append(m.journal, undo)
	}
}

func (m *Memory) snapshotLocked() int {
	m.open++
	return len(m.journal)
}

// release closes one snapshot. Once none is open nothing can be undone.
func (m *Memory) release() {
	if m.open > 0 {
		m.open--
	}
	if m.open == 0 {
		m.journal = nil
	}
}

// Snapshot returns an identifier for the current state. Every Snapshot must
// be closed by exactly one Commit or RevertToSnapshot.
func (m *Memory) Snapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

// RevertToSnapshot undoes every mutation made after id was taken.
func (m *Memory) RevertToSnapshot(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 {
		id = 0
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		m.journal[i]()
	}
	if id < len(m.journal) {
		m.journal = m.journal[:id]
	}
	m.release()
}

// Commit keeps every mutation made after id was taken and closes the
// snapshot. An enclosing snapshot can still undo them.
func (m *Memory) Commit(int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.release()
}
