// Package game holds the misère Nim rules: pure functions over pile
// state, no storage or I/O. The player who removes the last stick loses.
package game

import "errors"

var (
	ErrRowOutOfRange = errors.New("row_out_of_range")
	ErrBadCount      = errors.New("bad_count")
)

// NewPiles returns the starting configuration.
func NewPiles() []int32 {
	return []int32{1, 3, 5, 7}
}

// Remaining is the total stick count across piles.
func Remaining(piles []int32) int32 {
	var sum int32
	for _, p := range piles {
		sum += p
	}
	return sum
}

// ValidateMove checks row bounds and that count removes between 1 and
// the whole pile.
func ValidateMove(piles []int32, row, count int) error {
	if row < 0 || row >= len(piles) {
		return ErrRowOutOfRange
	}
	if count < 1 || int32(count) > piles[row] {
		return ErrBadCount
	}
	return nil
}

// ApplyMove returns the piles after removing count sticks from row, and
// whether the move ended the game. The input is not mutated.
func ApplyMove(piles []int32, row, count int) ([]int32, bool, error) {
	if err := ValidateMove(piles, row, count); err != nil {
		return nil, false, err
	}
	next := make([]int32, len(piles))
	copy(next, piles)
	next[row] -= int32(count)
	return next, Remaining(next) == 0, nil
}
