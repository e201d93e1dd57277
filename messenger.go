// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package nftgateway

import (
	"context"

	"github.com/luxfi/geth/common"
)

// Messenger is the cross-domain transport a gateway sends through and
// receives from.
type Messenger interface {
	// Address is the identity the messenger presents as immediate caller
	// when it delivers a message.
	Address() common.Address

	// SendMessage queues a message for delivery on the remote domain. It
	// either accepts the message or fails without side effects.
	SendMessage(ctx context.Context, req *SendRequest) (*Envelope, error)

	// XDomainMessageSender reports on whose behalf the message currently
	// being delivered was sent.
	XDomainMessageSender() common.Address
}

// Receiver is implemented by contracts a messenger can deliver to.
type Receiver interface {
	ReceiveMessage(ctx context.Context, call Call, payload []byte) error
}
