// Package brackets builds round pairings from the alive contestant pool and
// decides when a battle has converged. It never reads eliminated
// contestants; callers hand it the alive projection only.
package brackets

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/nftbrawl/arena-bot/models"
)

const (
	MinContestants = 2
	MaxContestants = 24
)

// teamSizes are the bracket sizes that guarantee clean pairings across team
// lines without byes.
var teamSizes = map[int]bool{4: true, 8: true, 16: true}

var (
	ErrTooFewContestants  = errors.New("at least 2 contestants are required")
	ErrOddContestants     = errors.New("contestant count must be even")
	ErrTooManyContestants = fmt.Errorf("contestant count must not exceed %d", MaxContestants)
	ErrInvalidTeamSize    = errors.New("team battles require 4, 8 or 16 contestants")
)

// ValidateSize is the legality gate applied once, at battle start.
func ValidateSize(n int, teamMode bool) error {
	if n < MinContestants {
		return ErrTooFewContestants
	}
	if teamMode {
		if !teamSizes[n] {
			return ErrInvalidTeamSize
		}
		return nil
	}
	if n > MaxContestants {
		return ErrTooManyContestants
	}
	if n%2 != 0 {
		return ErrOddContestants
	}
	return nil
}

// BuildRound shuffles the alive pool uniformly and pairs consecutive
// entries. With an odd pool the last shuffled contestant is returned as the
// bye: carried forward untouched instead of being forced into a forged
// match.
func BuildRound(alive []*models.Contestant, round int, rng *rand.Rand) ([]models.Pairing, *models.Contestant) {
	pool := make([]*models.Contestant, len(alive))
	copy(pool, alive)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	pairings := make([]models.Pairing, 0, len(pool)/2)
	for i := 0; i+1 < len(pool); i += 2 {
		pairings = append(pairings, models.Pairing{Round: round, A: pool[i], B: pool[i+1]})
	}

	var bye *models.Contestant
	if len(pool)%2 != 0 {
		bye = pool[len(pool)-1]
	}
	return pairings, bye
}

// Outcome is the terminal state of a battle.
type Outcome struct {
	Winner *models.Contestant
	Draw   bool
}

// Completion reports whether the battle is over. Exactly one alive
// contestant is the winner. Zero alive should not happen under correct
// elimination, but is reported as a draw terminal state rather than looping
// forever.
func Completion(alive []*models.Contestant) *Outcome {
	switch len(alive) {
	case 0:
		return &Outcome{Draw: true}
	case 1:
		return &Outcome{Winner: alive[0]}
	default:
		return nil
	}
}
