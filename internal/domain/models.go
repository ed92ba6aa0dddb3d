package domain

import "time"

// OptionKey identifies one of the four answer options shown to the player.
type OptionKey string

const (
	OptionA OptionKey = "a"
	OptionB OptionKey = "b"
	OptionC OptionKey = "c"
	OptionD OptionKey = "d"
)

// OptionKeys lists the option identifiers in display order.
var OptionKeys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

// Valid reports whether k is one of a, b, c, d.
func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// AnswerCount is the number of answers every question carries.
const AnswerCount = 4

// Question is a question bank entry. Answers[0] is always the correct answer;
// games shuffle the order players see.
type Question struct {
	ID      string   `json:"id"`
	Level   int      `json:"level"`
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
}

// GameStatus is derived from a game's fields, never stored.
type GameStatus string

const (
	StatusInProgress GameStatus = "in_progress"
	StatusWon        GameStatus = "won"
	StatusFail       GameStatus = "fail"
	StatusTimeout    GameStatus = "timeout"
	StatusMoney      GameStatus = "money"
)

// Terminal reports whether no further moves are possible.
func (s GameStatus) Terminal() bool {
	return s != StatusInProgress
}

// HintType is the closed set of one-time aids.
type HintType string

const (
	HintFiftyFifty       HintType = "fifty_fifty"
	HintAudienceVote     HintType = "audience_vote"
	HintFriendSuggestion HintType = "friend_suggestion"
)

// HintTypes lists every hint type.
var HintTypes = []HintType{HintFiftyFifty, HintAudienceVote, HintFriendSuggestion}

// Valid reports whether t names a known hint.
func (t HintType) Valid() bool {
	switch t {
	case HintFiftyFifty, HintAudienceVote, HintFriendSuggestion:
		return true
	}
	return false
}

// Hint is the revealed payload of a hint. Which fields are set depends on Type:
// Keys for fifty_fifty, Votes for audience_vote, Suggestion and Message for
// friend_suggestion.
type Hint struct {
	Type       HintType          `json:"type"`
	Keys       []OptionKey       `json:"keys,omitempty"`
	Votes      map[OptionKey]int `json:"votes,omitempty"`
	Suggestion OptionKey         `json:"suggestion,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// GameQuestionRecord is the persisted form of a question bound to a game.
// KeyMap maps each option key to an index into Question.Answers.
type GameQuestionRecord struct {
	Level    int               `json:"level"`
	Question Question          `json:"question"`
	KeyMap   map[OptionKey]int `json:"keyMap"`
	Hints    map[HintType]Hint `json:"hints,omitempty"`
}

// GameRecord is the persisted form of a game. Repositories store it as-is.
type GameRecord struct {
	ID           string               `json:"id"`
	UserID       string               `json:"userId"`
	CurrentLevel int                  `json:"currentLevel"`
	Prize        int                  `json:"prize"`
	IsFailed     bool                 `json:"isFailed"`
	UsedHints    []HintType           `json:"usedHints,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	FinishedAt   *time.Time           `json:"finishedAt,omitempty"`
	Questions    []GameQuestionRecord `json:"questions"`
}

// Finished reports whether the record belongs to a terminal game.
func (r GameRecord) Finished() bool {
	return r.FinishedAt != nil
}

// QuestionView is what a player sees of the current question.
type QuestionView struct {
	Level    int                  `json:"level"`
	Text     string               `json:"text"`
	Variants map[OptionKey]string `json:"variants"`
	Hints    map[HintType]Hint    `json:"hints,omitempty"`

	// Fireproof marks a checkpoint: passing it secures its prize.
	Fireproof bool `json:"fireproof"`
}

// GameView is a client-facing snapshot of a game.
type GameView struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	Status       GameStatus    `json:"status"`
	CurrentLevel int           `json:"currentLevel"`
	Prize        int           `json:"prize"`
	UsedHints    []HintType    `json:"usedHints"`
	CreatedAt    time.Time     `json:"createdAt"`
	FinishedAt   *time.Time    `json:"finishedAt,omitempty"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	Question     *QuestionView `json:"question,omitempty"`
}

// AnswerResult summarizes one answer submission.
type AnswerResult struct {
	Correct          bool       `json:"correct"`
	CorrectAnswerKey OptionKey  `json:"correctAnswerKey,omitempty"`
	Status           GameStatus `json:"status"`
	Prize            int        `json:"prize"`
	Game             GameView   `json:"game"`
}

// HintResult carries a revealed hint together with the game it belongs to.
type HintResult struct {
	Hint Hint     `json:"hint"`
	Game GameView `json:"game"`
}

// Clone returns a deep copy of the record.
func (r GameRecord) Clone() GameRecord {
	out := r
	out.UsedHints = append([]HintType(nil), r.UsedHints...)
	if r.FinishedAt != nil {
		finished := *r.FinishedAt
		out.FinishedAt = &finished
	}
	out.Questions = make([]GameQuestionRecord, len(r.Questions))
	for i, q := range r.Questions {
		cq := q
		cq.Question.Answers = append([]string(nil), q.Question.Answers...)
		cq.KeyMap = make(map[OptionKey]int, len(q.KeyMap))
		for k, v := range q.KeyMap {
			cq.KeyMap[k] = v
		}
		if q.Hints != nil {
			cq.Hints = make(map[HintType]Hint, len(q.Hints))
			for k, h := range q.Hints {
				ch := h
				ch.Keys = append([]OptionKey(nil), h.Keys...)
				if h.Votes != nil {
					ch.Votes = make(map[OptionKey]int, len(h.Votes))
					for vk, vv := range h.Votes {
						ch.Votes[vk] = vv
					}
				}
				cq.Hints[k] = ch
			}
		}
		out.Questions[i] = cq
	}
	return out
}
