// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/dpos/api/utils"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/thor"
)

// Reader is the read side of the staking ledgers.
type Reader interface {
	Bonded(stash thor.Address) (uint64, bool, error)
	UserStaked(voter, target thor.Address) (uint64, bool, error)
	Target(target thor.Address) (staked uint64, ok bool, votes []staker.Vote, err error)
	MinimumValidatorCount() (uint32, error)
	MaximumValidatorCount() (uint32, error)
	Stashes() ([]staker.Stash, error)
}

type Staking struct {
	reader Reader
}

func New(reader Reader) *Staking {
	return &Staking{reader}
}

func (s *Staking) handleGetStashes(w http.ResponseWriter, _ *http.Request) error {
	stashes, err := s.reader.Stashes()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Stashes{
		Count:   uint64(len(stashes)),
		Stashes: convertStashes(stashes),
	})
}

func (s *Staking) handleGetStash(w http.ResponseWriter, req *http.Request) error {
	stash, err := utils.AddressVar(req, "stash")
	if err != nil {
		return err
	}
	bonded, ok, err := s.reader.Bonded(stash)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(errors.New("stash not bonded"))
	}
	return utils.WriteJSON(w, &Stash{Address: stash, Bonded: bonded})
}

func (s *Staking) handleGetTarget(w http.ResponseWriter, req *http.Request) error {
	target, err := utils.AddressVar(req, "target")
	if err != nil {
		return err
	}
	staked, ok, voters, err := s.reader.Target(target)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(errors.New("target has no stake"))
	}
	return utils.WriteJSON(w, &Target{
		Target: target,
		Staked: staked,
		Voters: convertVotes(voters),
	})
}

func (s *Staking) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	voter, err := utils.AddressVar(req, "voter")
	if err != nil {
		return err
	}
	target, err := utils.AddressVar(req, "target")
	if err != nil {
		return err
	}
	amount, ok, err := s.reader.UserStaked(voter, target)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(errors.New("delegation not found"))
	}
	return utils.WriteJSON(w, &Delegation{Voter: voter, Target: target, Amount: amount})
}

func (s *Staking) handleGetBounds(w http.ResponseWriter, _ *http.Request) error {
	minimum, err := s.reader.MinimumValidatorCount()
	if err != nil {
		return err
	}
	maximum, err := s.reader.MaximumValidatorCount()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Bounds{Minimum: minimum, Maximum: maximum})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/stashes").
		Methods(http.MethodGet).
		Name("GET /staker/stashes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStashes))
	sub.Path("/stashes/{stash}").
		Methods(http.MethodGet).
		Name("GET /staker/stashes/{stash}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStash))
	sub.Path("/targets/{target}").
		Methods(http.MethodGet).
		Name("GET /staker/targets/{target}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTarget))
	sub.Path("/delegations/{voter}/{target}").
		Methods(http.MethodGet).
		Name("GET /staker/delegations/{voter}/{target}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegation))
	sub.Path("/bounds").
		Methods(http.MethodGet).
		Name("GET /staker/bounds").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetBounds))
}
