// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package guard holds the two policies every gateway entry point enforces:
// mutual exclusion of state-mutating calls and the authorization of inbound
// cross-domain calls.
package guard

import (
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/nftgateway"
)

// Guard admits one state-mutating call at a time. A second entry while the
// guard is held fails immediately instead of waiting, which is what turns a
// nested call from a transfer hook into an error rather than a deadlock.
type Guard struct {
	mu sync.Mutex
}

// Enter acquires the guard. The returned release func must be called on
// every exit path; calling it more than once is a no-op.
func (g *Guard) Enter() (release func(), err error) {
	if !g.mu.TryLock() {
		return nil, nftgateway.ErrReentrantCall
	}
	var once sync.Once
	return func() { once.Do(g.mu.Unlock) }, nil
}

// OriginReader exposes the identity a messenger attributes the current
// delivery to.
type OriginReader interface {
	XDomainMessageSender() common.Address
}

// Authorizer accepts a call only when it comes from the configured messenger
// acting for the configured counterpart.
type Authorizer struct {
	Messenger   common.Address
	Counterpart common.Address
}

// Authorize is a pure predicate over the immediate caller and the origin the
// messenger reports.
func (a Authorizer) Authorize(caller common.Address, origin OriginReader) error {
	if caller != a.Messenger {
		return nftgateway.ErrUnauthorized
	}
	if origin == nil || origin.XDomainMessageSender() != a.Counterpart {
		return nftgateway.ErrUnauthorized
	}
	return nil
}
