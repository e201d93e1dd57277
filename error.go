// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package nftgateway

import (
	"errors"
	"fmt"
)

// Error represents a gateway error. Errors returned by the gateway wrap one of
// the sentinels below, so callers should match with errors.Is.
type Error struct {
	Code    int32
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

var (
	ErrUnauthorized         = &Error{Code: 1, Message: "unauthorized"}
	ErrInvalidArgument      = &Error{Code: 2, Message: "invalid argument"}
	ErrUnmappedToken        = &Error{Code: 3, Message: "unmapped token"}
	ErrTokenMismatch        = &Error{Code: 4, Message: "token mismatch"}
	ErrEmptyBatch           = &Error{Code: 5, Message: "empty batch"}
	ErrLedgerTransferFailed = &Error{Code: 6, Message: "ledger transfer failed"}
	ErrReentrantCall        = &Error{Code: 7, Message: "reentrant call"}
)

// Reason returns a short label for err, suitable for metric labels.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return "other"
}
