package game

import (
	"errors"
	"testing"
)

func TestNewPilesTotal(t *testing.T) {
	if got := Remaining(NewPiles()); got != 16 {
		t.Fatalf("expected 16 sticks, got %d", got)
	}
}

func TestValidateMoveRowBounds(t *testing.T) {
	piles := NewPiles()
	if err := ValidateMove(piles, -1, 1); !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("expected row_out_of_range, got %v", err)
	}
	if err := ValidateMove(piles, 4, 1); !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("expected row_out_of_range, got %v", err)
	}
}

func TestValidateMoveCountBounds(t *testing.T) {
	piles := NewPiles()
	if err := ValidateMove(piles, 1, 0); !errors.Is(err, ErrBadCount) {
		t.Fatalf("expected bad_count for zero, got %v", err)
	}
	if err := ValidateMove(piles, 1, 4); !errors.Is(err, ErrBadCount) {
		t.Fatalf("expected bad_count for overdraw, got %v", err)
	}
	if err := ValidateMove([]int32{1, 3, 0, 7}, 2, 1); !errors.Is(err, ErrBadCount) {
		t.Fatalf("expected bad_count on empty pile, got %v", err)
	}
}

func TestApplyMoveRemovesWholeRow(t *testing.T) {
	next, over, err := ApplyMove(NewPiles(), 3, 7)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if over {
		t.Fatal("game should not be over")
	}
	want := []int32{1, 3, 5, 0}
	for i := range want {
		if next[i] != want[i] {
			t.Fatalf("piles[%d] = %d, want %d", i, next[i], want[i])
		}
	}
	if Remaining(next) != 9 {
		t.Fatalf("expected 9 remaining, got %d", Remaining(next))
	}
}

func TestApplyMoveDoesNotMutateInput(t *testing.T) {
	piles := NewPiles()
	if _, _, err := ApplyMove(piles, 0, 1); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if piles[0] != 1 {
		t.Fatalf("input mutated: %v", piles)
	}
}

func TestApplyMoveFinalStickEndsGame(t *testing.T) {
	_, over, err := ApplyMove([]int32{0, 1, 0, 0}, 1, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !over {
		t.Fatal("removing the last stick must end the game")
	}
}

func TestTotalStrictlyDecreases(t *testing.T) {
	piles := NewPiles()
	moves := []struct{ row, count int }{{3, 2}, {2, 5}, {1, 3}, {3, 4}, {3, 1}, {0, 1}}
	prev := Remaining(piles)
	for i, m := range moves {
		next, over, err := ApplyMove(piles, m.row, m.count)
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		got := Remaining(next)
		if got != prev-int32(m.count) {
			t.Fatalf("move %d: total %d, want %d", i, got, prev-int32(m.count))
		}
		if got < 0 {
			t.Fatalf("move %d: negative total", i)
		}
		if over != (got == 0) {
			t.Fatalf("move %d: over=%v with %d remaining", i, over, got)
		}
		piles, prev = next, got
	}
	if Remaining(piles) != 0 {
		t.Fatalf("expected empty board, got %v", piles)
	}
}
