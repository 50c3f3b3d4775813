// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collateral

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/thor"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrLiquidityRestrictions = errors.New("account liquidity restrictions prevent withdrawal")
	ErrTooManyConsumers      = errors.New("too many consumers")
	ErrNoConsumers           = errors.New("no consumers to remove")
	ErrOverflow              = errors.New("balance overflow")
)

var slotAccounts = thor.BytesToBytes32([]byte("collateral-accounts"))

const DefaultMaxConsumers = 16

type Config struct {
	// MinimumBalance is the existential deposit, the smallest balance worth keeping.
	MinimumBalance uint64 `yaml:"minimumBalance"`
	MaxConsumers   uint32 `yaml:"maxConsumers"`
}

// Ledger keeps free and reserved balances, locks and consumer references of accounts.
type Ledger struct {
	accounts       *solidity.Mapping[thor.Address, *account]
	minimumBalance uint64
	maxConsumers   uint32
}

func New(sctx *solidity.Context, cfg Config) *Ledger {
	if cfg.MaxConsumers == 0 {
		cfg.MaxConsumers = DefaultMaxConsumers
	}
	return &Ledger{
		accounts:       solidity.NewMapping[thor.Address, *account](sctx, slotAccounts),
		minimumBalance: cfg.MinimumBalance,
		maxConsumers:   cfg.MaxConsumers,
	}
}

func (l *Ledger) getAccount(addr thor.Address) (*account, error) {
	acc, err := l.accounts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc, nil
}

func (l *Ledger) setAccount(addr thor.Address, acc *account) error {
	if acc.isEmpty() {
		l.accounts.Delete(addr)
		return nil
	}
	if err := l.accounts.Set(addr, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

func (l *Ledger) MinimumBalance() uint64 {
	return l.minimumBalance
}

func (l *Ledger) FreeBalance(addr thor.Address) (uint64, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Free, nil
}

func (l *Ledger) ReservedBalance(addr thor.Address) (uint64, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Reserved, nil
}

// Locked returns the amount of free balance frozen for any of reasons.
func (l *Ledger) Locked(addr thor.Address, reasons WithdrawReasons) (uint64, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.locked(reasons), nil
}

func (l *Ledger) Consumers(addr thor.Address) (uint32, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Consumers, nil
}

func (l *Ledger) Balance(addr thor.Address) (*Balance, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Free:      acc.Free,
		Reserved:  acc.Reserved,
		Locked:    acc.locked(AllReasons),
		Consumers: acc.Consumers,
	}, nil
}

// SetLock creates or replaces the lock id on addr.
// A lock does not move funds, it only restricts withdrawals of free balance.
func (l *Ledger) SetLock(id LockID, addr thor.Address, amount uint64, reasons WithdrawReasons) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	if amount == 0 || reasons == 0 {
		acc.Locks = removeLock(acc.Locks, id)
		return l.setAccount(addr, acc)
	}
	nl := lock{ID: id, Amount: amount, Reasons: reasons}
	for i := range acc.Locks {
		if acc.Locks[i].ID == id {
			acc.Locks[i] = nl
			return l.setAccount(addr, acc)
		}
	}
	acc.Locks = append(acc.Locks, nl)
	return l.setAccount(addr, acc)
}

func (l *Ledger) RemoveLock(id LockID, addr thor.Address) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	acc.Locks = removeLock(acc.Locks, id)
	return l.setAccount(addr, acc)
}

func removeLock(locks []lock, id LockID) []lock {
	out := locks[:0]
	for _, lk := range locks {
		if lk.ID != id {
			out = append(out, lk)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Reserve moves amount from free to reserved balance.
func (l *Ledger) Reserve(addr thor.Address, amount uint64) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	if acc.Free < amount {
		return ErrInsufficientBalance
	}
	if acc.Free-amount < acc.locked(ReasonReserve) {
		return ErrLiquidityRestrictions
	}
	if acc.Reserved > math.MaxUint64-amount {
		return ErrOverflow
	}
	acc.Free -= amount
	acc.Reserved += amount
	return l.setAccount(addr, acc)
}

// Unreserve moves up to amount from reserved back to free balance.
// It returns the part of amount that could not be unreserved.
func (l *Ledger) Unreserve(addr thor.Address, amount uint64) (uint64, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return 0, err
	}
	actual := min(amount, acc.Reserved)
	if acc.Free > math.MaxUint64-actual {
		return 0, ErrOverflow
	}
	acc.Reserved -= actual
	acc.Free += actual
	if err := l.setAccount(addr, acc); err != nil {
		return 0, err
	}
	return amount - actual, nil
}

// IncConsumers adds a consumer reference to addr.
func (l *Ledger) IncConsumers(addr thor.Address) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	if acc.Consumers >= l.maxConsumers {
		return ErrTooManyConsumers
	}
	acc.Consumers++
	return l.setAccount(addr, acc)
}

func (l *Ledger) DecConsumers(addr thor.Address) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	if acc.Consumers == 0 {
		return ErrNoConsumers
	}
	acc.Consumers--
	return l.setAccount(addr, acc)
}

// Mint credits amount to the free balance of addr.
func (l *Ledger) Mint(addr thor.Address, amount uint64) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	if acc.Free > math.MaxUint64-amount {
		return ErrOverflow
	}
	acc.Free += amount
	return l.setAccount(addr, acc)
}

// Transfer moves amount of free balance, honoring transfer locks of the sender.
func (l *Ledger) Transfer(from, to thor.Address, amount uint64) error {
	if from == to {
		return nil
	}
	src, err := l.getAccount(from)
	if err != nil {
		return err
	}
	if src.Free < amount {
		return ErrInsufficientBalance
	}
	if src.Free-amount < src.locked(ReasonTransfer) {
		return ErrLiquidityRestrictions
	}
	dst, err := l.getAccount(to)
	if err != nil {
		return err
	}
	if dst.Free > math.MaxUint64-amount {
		return ErrOverflow
	}
	src.Free -= amount
	dst.Free += amount
	if err := l.setAccount(from, src); err != nil {
		return err
	}
	return l.setAccount(to, dst)
}
