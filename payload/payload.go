// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package payload encodes the calls gateways make on each other through the
// messenger. Payloads use the Solidity ABI so that a contract counterpart can
// execute them unchanged.
package payload

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

var (
	// ErrInvalidPayload is returned when a payload is invalid
	ErrInvalidPayload = errors.New("invalid payload")
)

const gatewayABIJSON = `[
	{"type":"function","name":"finalizeDepositERC721","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},
		{"name":"_from","type":"address"},{"name":"_to","type":"address"},
		{"name":"_tokenId","type":"uint256"}]},
	{"type":"function","name":"finalizeBatchDepositERC721","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},
		{"name":"_from","type":"address"},{"name":"_to","type":"address"},
		{"name":"_tokenIds","type":"uint256[]"}]},
	{"type":"function","name":"finalizeWithdrawERC721","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},
		{"name":"_from","type":"address"},{"name":"_to","type":"address"},
		{"name":"_tokenId","type":"uint256"}]},
	{"type":"function","name":"finalizeBatchWithdrawERC721","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},
		{"name":"_from","type":"address"},{"name":"_to","type":"address"},
		{"name":"_tokenIds","type":"uint256[]"}]}
]`

var gatewayABI = mustParseABI(gatewayABIJSON)

// mustParseABI parses an ABI definition, panicking on error (for use in package-level variables)
func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("failed to parse gateway ABI: %v", err))
	}
	return parsed
}

// Method identifies one of the finalize entry points
type Method uint8

const (
	// FinalizeDeposit is executed by the layer-2 gateway after a deposit
	FinalizeDeposit Method = iota
	// FinalizeBatchDeposit is the batch form of FinalizeDeposit
	FinalizeBatchDeposit
	// FinalizeWithdraw is executed by the layer-1 gateway to release custody
	FinalizeWithdraw
	// FinalizeBatchWithdraw is the batch form of FinalizeWithdraw
	FinalizeBatchWithdraw
)

var methodNames = [...]string{
	FinalizeDeposit:       "finalizeDepositERC721",
	FinalizeBatchDeposit:  "finalizeBatchDepositERC721",
	FinalizeWithdraw:      "finalizeWithdrawERC721",
	FinalizeBatchWithdraw: "finalizeBatchWithdrawERC721",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

// IsBatch reports whether the method carries a list of token ids
func (m Method) IsBatch() bool {
	return m == FinalizeBatchDeposit || m == FinalizeBatchWithdraw
}

// Selector returns the 4-byte ABI selector of the method
func (m Method) Selector() []byte {
	method, ok := gatewayABI.Methods[m.String()]
	if !ok {
		return nil
	}
	return method.ID
}

// ParseMethod returns the method with the given ABI name
func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown method %s", ErrInvalidPayload, name)
}

// FinalizeCall is a decoded finalize instruction. Token fields are named from
// the point of view of the layer-1 gateway: LocalToken is the layer-1
// collection, RemoteToken its layer-2 representation.
type FinalizeCall struct {
	Method      Method
	LocalToken  common.Address
	RemoteToken common.Address
	From        common.Address
	To          common.Address
	TokenIDs    []*big.Int
}

// NewFinalizeCall creates a new finalize call payload
func NewFinalizeCall(
	method Method,
	localToken, remoteToken, from, to common.Address,
	tokenIDs []*big.Int,
) (*FinalizeCall, error) {
	c := &FinalizeCall{
		Method:      method,
		LocalToken:  localToken,
		RemoteToken: remoteToken,
		From:        from,
		To:          to,
		TokenIDs:    tokenIDs,
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// Verify verifies the finalize call payload
func (c *FinalizeCall) Verify() error {
	if int(c.Method) >= len(methodNames) {
		return fmt.Errorf("%w: unknown method %d", ErrInvalidPayload, c.Method)
	}
	if !c.Method.IsBatch() && len(c.TokenIDs) != 1 {
		return fmt.Errorf("%w: %s takes exactly one token id, got %d", ErrInvalidPayload, c.Method, len(c.TokenIDs))
	}
	for _, id := range c.TokenIDs {
		if id == nil || id.Sign() < 0 {
			return fmt.Errorf("%w: invalid token id", ErrInvalidPayload)
		}
	}
	return nil
}

// Pack ABI-encodes the call, selector first
func (c *FinalizeCall) Pack() ([]byte, error) {
	if err := c.Verify(); err != nil {
		return nil, err
	}
	var ids interface{} = c.TokenIDs
	if !c.Method.IsBatch() {
		ids = c.TokenIDs[0]
	}
	data, err := gatewayABI.Pack(c.Method.String(), c.LocalToken, c.RemoteToken, c.From, c.To, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return data, nil
}

// Bytes returns the byte representation of the payload
func (c *FinalizeCall) Bytes() []byte {
	data, _ := c.Pack()
	return data
}

// Decode parses an ABI-encoded finalize call
func Decode(data []byte) (*FinalizeCall, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a call", ErrInvalidPayload, len(data))
	}
	abiMethod, err := gatewayABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	method, err := ParseMethod(abiMethod.RawName)
	if err != nil {
		return nil, err
	}

	values, err := abiMethod.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("%w: expected 5 arguments, got %d", ErrInvalidPayload, len(values))
	}

	c := &FinalizeCall{Method: method}
	addrs := []*common.Address{&c.LocalToken, &c.RemoteToken, &c.From, &c.To}
	for i, dst := range addrs {
		addr, ok := values[i].(common.Address)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is not an address", ErrInvalidPayload, i)
		}
		*dst = addr
	}

	switch v := values[4].(type) {
	case *big.Int:
		c.TokenIDs = []*big.Int{v}
	case []*big.Int:
		c.TokenIDs = v
	default:
		return nil, fmt.Errorf("%w: unexpected token id argument %T", ErrInvalidPayload, values[4])
	}

	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}
