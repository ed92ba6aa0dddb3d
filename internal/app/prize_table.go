package app

import (
	"fmt"
	"time"

	"ladder-quiz-service/internal/domain"
)

// DefaultTimeLimit bounds a whole game, measured from its creation.
const DefaultTimeLimit = 35 * time.Minute

var (
	defaultPrizes = []int{
		100, 200, 300, 500, 1000,
		2000, 4000, 8000, 16000, 32000,
		64000, 125000, 250000, 500000, 1000000,
	}
	defaultFireproofLevels = []int{4, 9, 14}
)

// PrizeTable maps a passed level to its cumulative prize. Fireproof levels are
// checkpoints whose prize is kept even after a wrong answer.
type PrizeTable struct {
	prizes    []int
	fireproof []int
}

// DefaultPrizeTable returns the 15-level reference ladder.
func DefaultPrizeTable() PrizeTable {
	t, _ := NewPrizeTable(defaultPrizes, defaultFireproofLevels)
	return t
}

// NewPrizeTable validates and copies a prize ladder. Prizes must be positive and
// strictly increasing; fireproof levels must be in range and ascending.
func NewPrizeTable(prizes, fireproof []int) (PrizeTable, error) {
	if len(prizes) == 0 {
		return PrizeTable{}, fmt.Errorf("%w: no levels", domain.ErrInvalidPrizeTable)
	}
	for i, p := range prizes {
		if p <= 0 || (i > 0 && p <= prizes[i-1]) {
			return PrizeTable{}, fmt.Errorf("%w: prize %d at level %d", domain.ErrInvalidPrizeTable, p, i)
		}
	}
	for i, lvl := range fireproof {
		if lvl < 0 || lvl >= len(prizes) || (i > 0 && lvl <= fireproof[i-1]) {
			return PrizeTable{}, fmt.Errorf("%w: fireproof level %d", domain.ErrInvalidPrizeTable, lvl)
		}
	}
	return PrizeTable{
		prizes:    append([]int(nil), prizes...),
		fireproof: append([]int(nil), fireproof...),
	}, nil
}

// Levels is the number of questions in a game.
func (t PrizeTable) Levels() int {
	return len(t.prizes)
}

// MaxLevel is the 0-based index of the last question.
func (t PrizeTable) MaxLevel() int {
	return len(t.prizes) - 1
}

// MaxPayout is the prize for passing every level.
func (t PrizeTable) MaxPayout() int {
	return t.prizes[len(t.prizes)-1]
}

// PayoutForLevel returns the prize for having passed level. Level -1 (nothing
// passed) pays 0; out-of-range levels clamp.
func (t PrizeTable) PayoutForLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > t.MaxLevel() {
		level = t.MaxLevel()
	}
	return t.prizes[level]
}

// FireproofPayoutForLevel returns the prize of the nearest checkpoint at or
// below level, or 0 when none has been reached.
func (t PrizeTable) FireproofPayoutForLevel(level int) int {
	payout := 0
	for _, lvl := range t.fireproof {
		if lvl > level {
			break
		}
		payout = t.prizes[lvl]
	}
	return payout
}

// IsFireproof reports whether level is a checkpoint.
func (t PrizeTable) IsFireproof(level int) bool {
	for _, lvl := range t.fireproof {
		if lvl == level {
			return true
		}
	}
	return false
}

// Prizes returns a copy of the ladder.
func (t PrizeTable) Prizes() []int {
	return append([]int(nil), t.prizes...)
}

func (t PrizeTable) FireproofLevels() []int {
	return append([]int(nil), t.fireproof...)
}

// Rules groups the parameters a game is played under.
type Rules struct {
	Prizes    PrizeTable
	TimeLimit time.Duration
}

// DefaultRules uses the reference ladder and a 35 minute limit.
func DefaultRules() Rules {
	return Rules{Prizes: DefaultPrizeTable(), TimeLimit: DefaultTimeLimit}
}

