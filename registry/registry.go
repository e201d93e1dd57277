// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry maps local token identifiers to their counterparts on the
// remote domain.
package registry

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/nftgateway"
)

// Mapping is one registry entry
type Mapping struct {
	Local  common.Address
	Remote common.Address
}

// Registry is an owner-controlled local→remote token table. Entries are only
// ever overwritten, never removed.
type Registry struct {
	owner    common.Address
	mappings map[common.Address]common.Address
	mu       sync.RWMutex
}

// New creates an empty registry administered by owner
func New(owner common.Address) *Registry {
	return &Registry{
		owner:    owner,
		mappings: make(map[common.Address]common.Address),
	}
}

// Owner returns the registry owner
func (r *Registry) Owner() common.Address {
	return r.owner
}

// Update sets the remote counterpart of local and returns the previous value.
func (r *Registry) Update(caller, local, remote common.Address) (common.Address, error) {
	if caller != r.owner {
		return common.Address{}, fmt.Errorf("%w: %s is not the registry owner", nftgateway.ErrUnauthorized, caller)
	}
	if local == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: local token address cannot be 0", nftgateway.ErrInvalidArgument)
	}
	if remote == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: remote token address cannot be 0", nftgateway.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.mappings[local]
	r.mappings[local] = remote
	return old, nil
}

// Lookup returns the remote counterpart of local, or the zero address.
func (r *Registry) Lookup(local common.Address) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.mappings[local]
}

// Mappings returns every entry ordered by local address
func (r *Registry) Mappings() []Mapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Mapping, 0, len(r.mappings))
	for local, remote := range r.mappings {
		out = append(out, Mapping{Local: local, Remote: remote})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Local[:], out[j].Local[:]) < 0
	})
	return out
}
