// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package nftgateway

import (
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

const (
	// KiB is 1024 bytes
	KiB = 1024
)

// DefaultXDomainMessageSender is reported by a messenger while no
// cross-domain message is being executed.
var DefaultXDomainMessageSender = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

// ComputeHash256 computes the Keccak-256 hash of data
func ComputeHash256(data []byte) common.Hash {
	return common.BytesToHash(crypto.Keccak256(data))
}
