// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package votingpower implements exact fractions of total stake.
//
// All arithmetic is integer only. Intermediate products are carried in 256
// bit integers so that sums of 64 bit fractions never wrap; a result that
// cannot be represented is reported as an error instead of being rounded.
package votingpower

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Len is the length of the storage encoding of a FractionalVotingPower.
const Len = 16

var (
	ErrZeroDenominator = errors.New("denominator can't be zero")
	ErrGreaterThanOne  = errors.New("voting power can't be greater than one")
	ErrOverflow        = errors.New("voting power overflows 64 bits")
	ErrInvalidLength   = errors.New("invalid voting power length")

	// Zero is the voting power of nobody. It equals the zero value.
	Zero = FractionalVotingPower{num: 0, den: 1}
	// One is the voting power of the whole active set.
	One = FractionalVotingPower{num: 1, den: 1}
	// TwoThirds is the finality threshold. Quorum must strictly exceed it.
	TwoThirds = FractionalVotingPower{num: 2, den: 3}
)

// FractionalVotingPower is a reduced fraction in [0, 1].
//
// The zero value represents 0.
type FractionalVotingPower struct {
	num uint64
	den uint64
}

// New returns num/den in lowest terms.
func New(num, den uint64) (FractionalVotingPower, error) {
	if den == 0 {
		return FractionalVotingPower{}, ErrZeroDenominator
	}
	if num > den {
		return FractionalVotingPower{}, fmt.Errorf("%w: %d/%d", ErrGreaterThanOne, num, den)
	}
	n, d := reduce(uint256.NewInt(num), uint256.NewInt(den))
	return FractionalVotingPower{num: n.Uint64(), den: d.Uint64()}, nil
}

// FromStake returns the share that [stake] holds of [total].
func FromStake(stake, total uint64) (FractionalVotingPower, error) {
	return New(stake, total)
}

func (f FractionalVotingPower) Numerator() uint64 {
	return f.num
}

func (f FractionalVotingPower) Denominator() uint64 {
	if f.den == 0 {
		return 1
	}
	return f.den
}

// Add returns f + o. The receiver is not modified.
func (f FractionalVotingPower) Add(o FractionalVotingPower) (FractionalVotingPower, error) {
	fDen := uint256.NewInt(f.Denominator())
	oDen := uint256.NewInt(o.Denominator())

	num := new(uint256.Int).Mul(uint256.NewInt(f.num), oDen)
	num.Add(num, new(uint256.Int).Mul(uint256.NewInt(o.num), fDen))
	den := new(uint256.Int).Mul(fDen, oDen)

	num, den = reduce(num, den)
	if num.Gt(den) {
		return FractionalVotingPower{}, fmt.Errorf("%w: %s + %s", ErrGreaterThanOne, f, o)
	}
	if !den.IsUint64() {
		return FractionalVotingPower{}, fmt.Errorf("%w: %s + %s", ErrOverflow, f, o)
	}
	return FractionalVotingPower{num: num.Uint64(), den: den.Uint64()}, nil
}

// Cmp returns -1, 0 or 1 as f is less than, equal to or greater than o.
func (f FractionalVotingPower) Cmp(o FractionalVotingPower) int {
	lhs := new(uint256.Int).Mul(uint256.NewInt(f.num), uint256.NewInt(o.Denominator()))
	rhs := new(uint256.Int).Mul(uint256.NewInt(o.num), uint256.NewInt(f.Denominator()))
	return lhs.Cmp(rhs)
}

func (f FractionalVotingPower) Equal(o FractionalVotingPower) bool {
	return f.Cmp(o) == 0
}

func (f FractionalVotingPower) Less(o FractionalVotingPower) bool {
	return f.Cmp(o) < 0
}

func (f FractionalVotingPower) GreaterThan(o FractionalVotingPower) bool {
	return f.Cmp(o) > 0
}

// HasQuorum reports whether [f] is strictly greater than two thirds.
func HasQuorum(f FractionalVotingPower) bool {
	return f.GreaterThan(TwoThirds)
}

// Bytes returns the big-endian numerator followed by the denominator.
func (f FractionalVotingPower) Bytes() []byte {
	b := make([]byte, Len)
	binary.BigEndian.PutUint64(b[:8], f.num)
	binary.BigEndian.PutUint64(b[8:], f.Denominator())
	return b
}

// Parse is the inverse of Bytes.
func Parse(b []byte) (FractionalVotingPower, error) {
	if len(b) != Len {
		return FractionalVotingPower{}, fmt.Errorf("%w: %d", ErrInvalidLength, len(b))
	}
	return New(
		binary.BigEndian.Uint64(b[:8]),
		binary.BigEndian.Uint64(b[8:]),
	)
}

func (f FractionalVotingPower) String() string {
	return fmt.Sprintf("%d/%d", f.num, f.Denominator())
}

func reduce(num, den *uint256.Int) (*uint256.Int, *uint256.Int) {
	if num.IsZero() {
		return uint256.NewInt(0), uint256.NewInt(1)
	}
	d := gcd(num, den)
	return new(uint256.Int).Div(num, d), new(uint256.Int).Div(den, d)
}

func gcd(a, b *uint256.Int) *uint256.Int {
	x, y := a.Clone(), b.Clone()
	for !y.IsZero() {
		x, y = y, new(uint256.Int).Mod(x, y)
	}
	return x
}
