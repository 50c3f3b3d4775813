// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/vechain/dpos/cache"
	"github.com/vechain/dpos/kv"
	"github.com/vechain/dpos/stackedmap"
	"github.com/vechain/dpos/thor"
)

const defaultCacheSize = 4096

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) dbKey() []byte {
	b := make([]byte, 0, thor.AddressLength+32)
	return append(append(b, k.addr[:]...), k.key[:]...)
}

// State manages contract storage on top of a kv store.
// Writes are kept in a journal until Commit, and can be reverted to any checkpoint.
// State is not safe for concurrent use.
type State struct {
	store kv.Store
	cache *cache.LRU[storageKey, []byte] // committed values
	sm    *stackedmap.StackedMap[storageKey, []byte]
}

// New create state object.
func New(store kv.Store) *State {
	return NewWithCacheSize(store, defaultCacheSize)
}

// NewWithCacheSize create state object with the given count of cached slots.
func NewWithCacheSize(store kv.Store, cacheSize int) *State {
	if cacheSize < 1 {
		cacheSize = defaultCacheSize
	}
	c, _ := cache.NewLRU[storageKey, []byte](cacheSize)

	s := &State{store: store, cache: c}
	s.sm = stackedmap.New(s.load)
	return s
}

// load implements stackedmap.MapGetter.
func (s *State) load(key storageKey) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(k storageKey) ([]byte, error) {
		v, err := s.store.Get(k.dbKey())
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetRawStorage returns the raw value of the storage slot. Empty means not set.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) ([]byte, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// SetRawStorage sets the raw value of the storage slot. Empty value deletes the slot.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	data, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, data)
	return nil
}

// DecodeStorage get and decode storage value.
// The dec func is called with empty raw if the slot is not set.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Dirty returns the count of slots changed since last commit.
func (s *State) Dirty() int {
	seen := make(map[storageKey]struct{})
	s.sm.Journal(func(k storageKey, _ []byte) bool {
		seen[k] = struct{}{}
		return true
	})
	return len(seen)
}

// Commit writes all journaled changes into the store in one batch.
// All checkpoints are dropped on success.
func (s *State) Commit() error {
	changes := make(map[storageKey][]byte)
	var order []storageKey
	s.sm.Journal(func(k storageKey, v []byte) bool {
		if _, ok := changes[k]; !ok {
			order = append(order, k)
		}
		changes[k] = v
		return true
	})
	if len(order) == 0 {
		return nil
	}

	batch := s.store.NewBatch()
	for _, k := range order {
		var err error
		if v := changes[k]; len(v) == 0 {
			err = batch.Delete(k.dbKey())
		} else {
			err = batch.Put(k.dbKey(), v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for _, k := range order {
		s.cache.Add(k, changes[k])
	}
	s.sm = stackedmap.New(s.load)
	return nil
}
