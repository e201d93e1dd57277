// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package nftgateway

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	CodecVersion   = 0
	MaxMessageSize = 256 * KiB
)

var ErrInvalidMessage = errors.New("invalid message")

// Call describes the immediate caller of a state-mutating entry point and the
// value attached to the call.
type Call struct {
	Caller common.Address
	Value  *uint256.Int
}

// AttachedValue returns the attached value, treating nil as zero.
func (c Call) AttachedValue() *uint256.Int {
	if c.Value == nil {
		return new(uint256.Int)
	}
	return c.Value
}

// SendRequest is what a gateway hands to its messenger.
type SendRequest struct {
	Sender        common.Address
	Target        common.Address
	Value         *uint256.Int
	Payload       []byte
	GasLimit      uint64
	RefundAddress common.Address
}

// Envelope is a cross-domain message as stamped by the sending messenger.
type Envelope struct {
	SourceChainID ids.ID         `serialize:"true"`
	DestChainID   ids.ID         `serialize:"true"`
	Sender        common.Address `serialize:"true"`
	Target        common.Address `serialize:"true"`
	Value         *big.Int       `serialize:"true"`
	Nonce         uint64         `serialize:"true"`
	GasLimit      uint64         `serialize:"true"`
	RefundAddress common.Address `serialize:"true"`
	Payload       []byte         `serialize:"true"`
}

// NewEnvelope creates a new envelope
func NewEnvelope(
	sourceChainID, destChainID ids.ID,
	nonce uint64,
	req *SendRequest,
) (*Envelope, error) {
	value := new(big.Int)
	if req.Value != nil {
		value = req.Value.ToBig()
	}
	env := &Envelope{
		SourceChainID: sourceChainID,
		DestChainID:   destChainID,
		Sender:        req.Sender,
		Target:        req.Target,
		Value:         value,
		Nonce:         nonce,
		GasLimit:      req.GasLimit,
		RefundAddress: req.RefundAddress,
		Payload:       req.Payload,
	}
	if err := env.Verify(); err != nil {
		return nil, err
	}
	return env, nil
}

// ParseEnvelope decodes an envelope from its wire form
func ParseEnvelope(b []byte) (*Envelope, error) {
	env := &Envelope{}
	if _, err := Codec.Unmarshal(b, env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := env.Verify(); err != nil {
		return nil, err
	}
	return env, nil
}

// Verify verifies the envelope
func (e *Envelope) Verify() error {
	if e.Target == (common.Address{}) {
		return fmt.Errorf("%w: zero target", ErrInvalidMessage)
	}
	if e.Value == nil || e.Value.Sign() < 0 {
		return fmt.Errorf("%w: invalid value", ErrInvalidMessage)
	}
	b, err := Codec.Marshal(CodecVersion, e)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if len(b) > MaxMessageSize {
		return fmt.Errorf("%w: message size %d exceeds maximum %d", ErrInvalidMessage, len(b), MaxMessageSize)
	}
	return nil
}

// Bytes returns the byte representation of the envelope
func (e *Envelope) Bytes() []byte {
	b, _ := Codec.Marshal(CodecVersion, e)
	return b
}

// ID returns the hash of the envelope
func (e *Envelope) ID() ids.ID {
	return ids.ID(ComputeHash256(e.Bytes()))
}
