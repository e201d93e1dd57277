// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package nftgateway

import (
	"context"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

var _ Messenger = (*FakeMessenger)(nil)

// FakeMessenger is a test implementation of Messenger that records every
// request instead of relaying it.
type FakeMessenger struct {
	Addr   common.Address
	Origin common.Address
	// SendErr, when set, is returned by SendMessage and nothing is recorded.
	SendErr error

	mu   sync.Mutex
	sent []*Envelope
}

func NewFakeMessenger(addr common.Address) *FakeMessenger {
	return &FakeMessenger{
		Addr:   addr,
		Origin: DefaultXDomainMessageSender,
	}
}

func (f *FakeMessenger) Address() common.Address {
	return f.Addr
}

func (f *FakeMessenger) SendMessage(_ context.Context, req *SendRequest) (*Envelope, error) {
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	env, err := NewEnvelope(ids.ID{}, ids.ID{}, uint64(len(f.sent)), req)
	if err != nil {
		return nil, err
	}
	f.sent = append(f.sent, env)
	return env, nil
}

func (f *FakeMessenger) XDomainMessageSender() common.Address {
	return f.Origin
}

// Sent returns a copy of the recorded envelopes.
func (f *FakeMessenger) Sent() []*Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Envelope, len(f.sent))
	copy(out, f.sent)
	return out
}
