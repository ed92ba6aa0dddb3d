package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"ladder-quiz-service/internal/domain"
)

// QuestionLoader loads question levels from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, level, text, answer1, answer2, answer3, answer4 FROM questions WHERE level=$1 ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			answers [domain.AnswerCount]string
		)
		if err := rows.Scan(&q.ID, &q.Level, &q.Text, &answers[0], &answers[1], &answers[2], &answers[3]); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Answers = answers[:]
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsExhausted
	}
	return questions, nil
}
