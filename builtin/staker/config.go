// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"
)

const (
	DefaultMinimumValidatorCount = 1
	DefaultMaximumValidatorCount = 100
)

// Config holds the validator count bounds used until governance sets them.
type Config struct {
	MinimumValidatorCount uint32 `yaml:"minimumValidatorCount"`
	MaximumValidatorCount uint32 `yaml:"maximumValidatorCount"`
}

func DefaultConfig() Config {
	return Config{
		MinimumValidatorCount: DefaultMinimumValidatorCount,
		MaximumValidatorCount: DefaultMaximumValidatorCount,
	}
}

func (c Config) Validate() error {
	if c.MinimumValidatorCount == 0 {
		return errors.New("minimum validator count must be positive")
	}
	if c.MinimumValidatorCount > c.MaximumValidatorCount {
		return errors.Errorf("minimum validator count %d exceeds maximum %d", c.MinimumValidatorCount, c.MaximumValidatorCount)
	}
	return nil
}
