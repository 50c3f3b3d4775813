// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/thor"
)

// Script ops.
const (
	OpMint   = "mint"
	OpBond   = "bond"
	OpUnbond = "unbond"
	OpVote   = "vote"
	OpUnvote = "unvote"
	OpSetMin = "set-min"
	OpSetMax = "set-max"
	OpRotate = "rotate"
)

// Script is a sequence of ledger calls.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one call. Origin is an account address, "root" or "none".
// Governance steps default to root, mint credits the origin account.
type Step struct {
	Op     string       `yaml:"op"`
	Origin string       `yaml:"origin,omitempty"`
	Target thor.Address `yaml:"target,omitempty"`
	Amount uint64       `yaml:"amount,omitempty"`
	Value  uint32       `yaml:"value,omitempty"`
}

// StepResult reports the outcome of a replayed step.
type StepResult struct {
	Index   int
	Step    Step
	Changed bool
	Err     error
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, errors.Wrap(err, "decode script")
	}
	for i, step := range script.Steps {
		if err := step.validate(); err != nil {
			return nil, errors.WithMessagef(err, "step %d", i)
		}
	}
	return &script, nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpMint, OpBond, OpUnbond, OpVote, OpUnvote:
		if s.Origin == "" {
			return errors.Errorf("%s needs an origin", s.Op)
		}
	case OpSetMin, OpSetMax, OpRotate:
	default:
		return errors.Errorf("unknown op %q", s.Op)
	}
	_, err := s.origin()
	return err
}

func (s Step) origin() (staker.Origin, error) {
	switch strings.ToLower(s.Origin) {
	case "":
		if s.Op == OpSetMin || s.Op == OpSetMax {
			return staker.Root(), nil
		}
		return staker.Origin{}, nil
	case "root":
		return staker.Root(), nil
	case "none":
		return staker.Origin{}, nil
	}
	addr, err := thor.ParseAddress(s.Origin)
	if err != nil {
		return staker.Origin{}, errors.WithMessage(err, "origin")
	}
	return staker.Signed(addr), nil
}

type stakingLedger interface {
	Bond(origin staker.Origin, amount uint64) error
	Unbond(origin staker.Origin) error
	Vote(origin staker.Origin, target thor.Address, amount uint64) error
	Unvote(origin staker.Origin, target thor.Address) error
	SetMinimumValidatorCount(origin staker.Origin, value uint32) error
	SetMaximumValidatorCount(origin staker.Origin, value uint32) error
	Commit() error
}

type minter interface {
	Mint(addr thor.Address, amount uint64) error
}

type rotator interface {
	Rotate() (bool, error)
}

type replayer struct {
	ledger  stakingLedger
	minter  minter
	rotator rotator
}

func newReplayer(ledger stakingLedger, minter minter, rotator rotator) *replayer {
	return &replayer{ledger: ledger, minter: minter, rotator: rotator}
}

// Replay runs every step in order. Each successful step is committed, a failed
// one is logged and the replay continues.
func (r *replayer) Replay(script *Script) []StepResult {
	results := make([]StepResult, 0, len(script.Steps))
	for i, step := range script.Steps {
		changed, err := r.run(step)
		if err == nil {
			err = r.ledger.Commit()
		}
		if err != nil {
			logger.Warn("script step failed", "index", i, "op", step.Op, "origin", step.Origin, "error", err)
		} else {
			logger.Debug("script step done", "index", i, "op", step.Op)
		}
		results = append(results, StepResult{Index: i, Step: step, Changed: changed, Err: err})
	}
	return results
}

func (r *replayer) run(step Step) (bool, error) {
	origin, err := step.origin()
	if err != nil {
		return false, err
	}
	switch step.Op {
	case OpMint:
		addr, err := thor.ParseAddress(step.Origin)
		if err != nil {
			return false, errors.WithMessage(err, "mint account")
		}
		return true, r.minter.Mint(addr, step.Amount)
	case OpBond:
		return true, r.ledger.Bond(origin, step.Amount)
	case OpUnbond:
		return true, r.ledger.Unbond(origin)
	case OpVote:
		return true, r.ledger.Vote(origin, step.Target, step.Amount)
	case OpUnvote:
		return true, r.ledger.Unvote(origin, step.Target)
	case OpSetMin:
		return true, r.ledger.SetMinimumValidatorCount(origin, step.Value)
	case OpSetMax:
		return true, r.ledger.SetMaximumValidatorCount(origin, step.Value)
	case OpRotate:
		return r.rotator.Rotate()
	}
	return false, errors.Errorf("unknown op %q", step.Op)
}
