package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"ladder-quiz-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID      string `bun:"id,pk"`
	Level   int    `bun:"level"`
	Text    string `bun:"text"`
	Answer1 string `bun:"answer1"`
	Answer2 string `bun:"answer2"`
	Answer3 string `bun:"answer3"`
	Answer4 string `bun:"answer4"`
}

func toQuestionRow(q domain.Question) (questionRow, error) {
	if len(q.Answers) != domain.AnswerCount {
		return questionRow{}, fmt.Errorf("question %s: %w", q.ID, domain.ErrInvalidQuestion)
	}
	return questionRow{
		ID:      q.ID,
		Level:   q.Level,
		Text:    q.Text,
		Answer1: q.Answers[0],
		Answer2: q.Answers[1],
		Answer3: q.Answers[2],
		Answer4: q.Answers[3],
	}, nil
}

// SeedQuestions upserts questions by id and returns the number of rows written.
func SeedQuestions(ctx context.Context, db *bun.DB, questions []domain.Question) (int64, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		row, err := toQuestionRow(q)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("level = EXCLUDED.level").
		Set("text = EXCLUDED.text").
		Set("answer1 = EXCLUDED.answer1").
		Set("answer2 = EXCLUDED.answer2").
		Set("answer3 = EXCLUDED.answer3").
		Set("answer4 = EXCLUDED.answer4").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	return res.RowsAffected()
}
