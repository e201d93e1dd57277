// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package backend is an in-memory messenger. Each Messenger is the endpoint
// of one domain: it stamps and queues outbound envelopes, and delivers
// inbound envelopes to registered receivers while attributing them to their
// original sender.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/luxfi/nftgateway"
)

var (
	ErrInsufficientFee    = errors.New("insufficient msg.value")
	ErrFeeOverflow        = errors.New("fee overflows uint256")
	ErrGasLimitExceeded   = errors.New("gas limit exceeds maximum")
	ErrWrongDestination   = errors.New("message addressed to another chain")
	ErrAlreadyDelivered   = errors.New("message already delivered")
	ErrUnknownTarget      = errors.New("no receiver registered for target")
	ErrDeliveryInProgress = errors.New("another delivery is in progress")
)

var _ nftgateway.Messenger = (*Messenger)(nil)

// Config configuration for a messenger endpoint
type Config struct {
	Address       common.Address
	ChainID       ids.ID
	RemoteChainID ids.ID
	// FeePerGas is charged against the attached value for every unit of gas
	// a message asks for. Nil means free.
	FeePerGas *uint256.Int
	// MaxGasLimit bounds the gas a message may ask for. Zero means unbounded.
	MaxGasLimit uint64
	Log         log.Logger
}

// Messenger is an in-memory implementation of nftgateway.Messenger
type Messenger struct {
	address       common.Address
	chainID       ids.ID
	remoteChainID ids.ID
	feePerGas     *uint256.Int
	maxGasLimit   uint64
	log           log.Logger

	mu        sync.RWMutex
	nonce     uint64
	pending   []*nftgateway.Envelope
	receivers map[common.Address]nftgateway.Receiver
	delivered set.Set[ids.ID]
	origin    common.Address

	deliverLock sync.Mutex
}

// NewMessenger creates a new messenger endpoint
func NewMessenger(cfg *Config) *Messenger {
	feePerGas := new(uint256.Int)
	if cfg.FeePerGas != nil {
		feePerGas.Set(cfg.FeePerGas)
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Messenger{
		address:       cfg.Address,
		chainID:       cfg.ChainID,
		remoteChainID: cfg.RemoteChainID,
		feePerGas:     feePerGas,
		maxGasLimit:   cfg.MaxGasLimit,
		log:           logger,
		receivers:     make(map[common.Address]nftgateway.Receiver),
		delivered:     set.NewSet[ids.ID](16),
		origin:        nftgateway.DefaultXDomainMessageSender,
	}
}

// Address returns the identity the messenger delivers under
func (m *Messenger) Address() common.Address {
	return m.address
}

// ChainID returns the chain this endpoint lives on
func (m *Messenger) ChainID() ids.ID {
	return m.chainID
}

// RegisterReceiver makes r reachable as addr
func (m *Messenger) RegisterReceiver(addr common.Address, r nftgateway.Receiver) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.receivers[addr] = r
}

// Fee returns what a message asking for gasLimit costs
func (m *Messenger) Fee(gasLimit uint64) (*uint256.Int, error) {
	fee, overflow := new(uint256.Int).MulOverflow(m.feePerGas, uint256.NewInt(gasLimit))
	if overflow {
		return nil, ErrFeeOverflow
	}
	return fee, nil
}

// SendMessage stamps and queues a message for the remote chain
func (m *Messenger) SendMessage(_ context.Context, req *nftgateway.SendRequest) (*nftgateway.Envelope, error) {
	if m.maxGasLimit != 0 && req.GasLimit > m.maxGasLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrGasLimitExceeded, req.GasLimit, m.maxGasLimit)
	}
	fee, err := m.Fee(req.GasLimit)
	if err != nil {
		return nil, err
	}
	value := req.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if value.Lt(fee) {
		return nil, fmt.Errorf("%w: attached %s, fee %s", ErrInsufficientFee, value.Dec(), fee.Dec())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	env, err := nftgateway.NewEnvelope(m.chainID, m.remoteChainID, m.nonce, req)
	if err != nil {
		return nil, err
	}
	m.nonce++
	m.pending = append(m.pending, env)

	m.log.Debug(
		"message queued",
		log.Stringer("messageID", env.ID()),
		log.Stringer("sender", env.Sender),
		log.Stringer("target", env.Target),
		log.Uint64("nonce", env.Nonce),
	)
	return env, nil
}

// XDomainMessageSender returns the original sender of the message being
// delivered, or the default sender outside of a delivery.
func (m *Messenger) XDomainMessageSender() common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.origin
}

func (m *Messenger) setOrigin(addr common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.origin = addr
}

// Deliver executes env against its target. A message is marked delivered
// only if the target accepts it, so a failed delivery can be retried; a
// delivered message is never executed again.
func (m *Messenger) Deliver(ctx context.Context, env *nftgateway.Envelope) error {
	if env.DestChainID != m.chainID {
		return fmt.Errorf("%w: %s", ErrWrongDestination, env.DestChainID)
	}
	if !m.deliverLock.TryLock() {
		return ErrDeliveryInProgress
	}
	defer m.deliverLock.Unlock()

	messageID := env.ID()
	m.mu.RLock()
	alreadyDelivered := m.delivered.Contains(messageID)
	receiver := m.receivers[env.Target]
	m.mu.RUnlock()

	if alreadyDelivered {
		return fmt.Errorf("%w: %s", ErrAlreadyDelivered, messageID)
	}
	if receiver == nil {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, env.Target)
	}

	if env.Value == nil || env.Value.Sign() < 0 {
		return fmt.Errorf("%w: invalid value", nftgateway.ErrInvalidMessage)
	}
	value, overflow := uint256.FromBig(env.Value)
	if overflow {
		return fmt.Errorf("%w: value out of range", nftgateway.ErrInvalidMessage)
	}

	m.setOrigin(env.Sender)
	defer m.setOrigin(nftgateway.DefaultXDomainMessageSender)

	call := nftgateway.Call{Caller: m.address, Value: value}
	if err := receiver.ReceiveMessage(ctx, call, env.Payload); err != nil {
		m.log.Warn(
			"message execution failed",
			log.Stringer("messageID", messageID),
			log.Stringer("target", env.Target),
			log.Err(err),
		)
		return fmt.Errorf("failed to execute message %s: %w", messageID, err)
	}

	m.markDelivered(messageID)
	m.log.Debug(
		"message delivered",
		log.Stringer("messageID", messageID),
		log.Stringer("target", env.Target),
	)
	return nil
}

func (m *Messenger) markDelivered(messageID ids.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.delivered.Add(messageID)
}

// IsDelivered reports whether the message has been executed here
func (m *Messenger) IsDelivered(messageID ids.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.delivered.Contains(messageID)
}

// GetPendingMessages returns all queued outbound messages
func (m *Messenger) GetPendingMessages() []*nftgateway.Envelope {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := make([]*nftgateway.Envelope, len(m.pending))
	copy(msgs, m.pending)
	return msgs
}

// ClearPendingMessages clears all pending messages
func (m *Messenger) ClearPendingMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = m.pending[:0]
}

func (m *Messenger) dropPending(env *nftgateway.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.pending {
		if e == env {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Relay delivers src's queued messages to dst in order, stopping at the
// first failure. Delivered messages leave src's queue; the failed message and
// everything after it stay queued.
func Relay(ctx context.Context, src, dst *Messenger) (int, error) {
	relayed := 0
	for _, env := range src.GetPendingMessages() {
		if err := dst.Deliver(ctx, env); err != nil {
			return relayed, err
		}
		src.dropPending(env)
		relayed++
	}
	return relayed, nil
}
