// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vechain/dpos/log"
	"github.com/vechain/dpos/thor"
)

var logger = log.WithContext("pkg", "session")

// Manager selects validators at session boundaries.
type Manager interface {
	// NewSession plans the set of session index. false means keep the current set.
	NewSession(index uint32) ([]thor.Address, bool, error)
	StartSession(index uint32)
	EndSession(index uint32)
}

// Driver tracks the current session and its active validator set.
// It is safe for concurrent use.
type Driver struct {
	manager Manager

	mu         sync.RWMutex
	index      uint32
	validators []thor.Address
	started    bool
}

func NewDriver(manager Manager) *Driver {
	return &Driver{manager: manager}
}

// Init starts session 0 with the set planned for it, if any.
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}
	validators, ok, err := d.manager.NewSession(0)
	if err != nil {
		return err
	}
	if ok {
		d.validators = validators
	} else {
		logger.Warn("no genesis validator set")
	}
	d.manager.StartSession(0)
	d.started = true
	logger.Info("session started", "index", 0, "validators", len(d.validators))
	return nil
}

// Rotate ends the current session and starts the next one.
// The planned set is adopted only if the manager decided one; a planning
// error keeps the current set and is returned after the rotation.
func (d *Driver) Rotate() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.index + 1
	validators, ok, err := d.manager.NewSession(next)
	if err != nil {
		logger.Warn("failed to plan session, keeping validators", "index", next, "error", err)
		ok = false
	}
	if d.started {
		d.manager.EndSession(d.index)
	}
	d.manager.StartSession(next)
	d.index = next
	d.started = true

	if ok {
		d.validators = validators
		logger.Info("session started with new validators", "index", next, "validators", len(validators))
	} else {
		logger.Info("session started", "index", next, "validators", len(d.validators))
	}
	return ok, err
}

// Index returns the current session index.
func (d *Driver) Index() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index
}

// Validators returns the active validator set.
func (d *Driver) Validators() []thor.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.validators)
}

// Current returns the session index together with its validator set.
func (d *Driver) Current() (uint32, []thor.Address) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index, slices.Clone(d.validators)
}

// Run rotates sessions every period until ctx is done.
func (d *Driver) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Rotate(); err != nil {
				logger.Debug("rotation error", "error", err)
			}
		}
	}
}
