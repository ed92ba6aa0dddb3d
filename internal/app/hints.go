package app

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"ladder-quiz-service/internal/domain"
)

const friendAccuracy = 8 // out of 10

type hintStrategy func(q *GameQuestion, rnd *rand.Rand) domain.Hint

var hintStrategies = map[domain.HintType]hintStrategy{
	domain.HintFiftyFifty:       fiftyFifty,
	domain.HintAudienceVote:     audienceVote,
	domain.HintFriendSuggestion: friendSuggestion,
}

// fiftyFifty keeps the correct key and one random wrong key.
func fiftyFifty(q *GameQuestion, rnd *rand.Rand) domain.Hint {
	wrong := q.wrongKeys()
	keys := []domain.OptionKey{q.CorrectAnswerKey(), wrong[rnd.Intn(len(wrong))]}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return domain.Hint{Type: domain.HintFiftyFifty, Keys: keys}
}

// audienceVote draws a weight per key, the correct one from a higher range, and
// scales the weights to percentages that sum to exactly 100.
func audienceVote(q *GameQuestion, rnd *rand.Rand) domain.Hint {
	correct := q.CorrectAnswerKey()
	weights := make([]int, len(domain.OptionKeys))
	total := 0
	for i, key := range domain.OptionKeys {
		if key == correct {
			weights[i] = 30 + rnd.Intn(60)
		} else {
			weights[i] = rnd.Intn(40)
		}
		total += weights[i]
	}

	type share struct {
		idx       int
		remainder int
	}
	votes := make(map[domain.OptionKey]int, len(domain.OptionKeys))
	shares := make([]share, len(weights))
	assigned := 0
	for i, w := range weights {
		pct := w * 100 / total
		votes[domain.OptionKeys[i]] = pct
		assigned += pct
		shares[i] = share{idx: i, remainder: w * 100 % total}
	}
	// Largest remainder gets the leftover points.
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].remainder > shares[j].remainder })
	for i := 0; assigned < 100; i++ {
		votes[domain.OptionKeys[shares[i%len(shares)].idx]]++
		assigned++
	}
	return domain.Hint{Type: domain.HintAudienceVote, Votes: votes}
}

// friendSuggestion names the correct answer most of the time.
func friendSuggestion(q *GameQuestion, rnd *rand.Rand) domain.Hint {
	key := q.CorrectAnswerKey()
	if rnd.Intn(10) >= friendAccuracy {
		wrong := q.wrongKeys()
		key = wrong[rnd.Intn(len(wrong))]
	}
	text := q.Variants()[key]
	return domain.Hint{
		Type:       domain.HintFriendSuggestion,
		Suggestion: key,
		Message:    fmt.Sprintf("I think the answer is %s: %s", strings.ToUpper(string(key)), text),
	}
}
