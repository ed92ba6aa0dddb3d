package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ladder-quiz-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions(2))}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.PickQuestion(context.Background(), 0); err != nil {
		t.Fatalf("pick question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.PickQuestion(context.Background(), 0); err != nil {
		t.Fatalf("pick question 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	if _, err := repo.PickQuestion(context.Background(), 1); err != nil {
		t.Fatalf("pick level 1: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected separate load per level, got %d", loader.calls)
	}
}

func TestQuestionRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions(1))}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.PickQuestion(context.Background(), 0)
	now = now.Add(2 * time.Minute)
	_, _ = repo.PickQuestion(context.Background(), 0)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestPickQuestionReturnsQuestionOfLevel(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(sampleQuestions(3)), time.Minute)

	for i := 0; i < 20; i++ {
		q, err := repo.PickQuestion(context.Background(), 2)
		if err != nil {
			t.Fatalf("pick question: %v", err)
		}
		if q.Level != 2 {
			t.Fatalf("expected level 2, got %d", q.Level)
		}
	}
}

func TestPickQuestionUnknownLevel(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(sampleQuestions(1)), time.Minute)

	_, err := repo.PickQuestion(context.Background(), 99)
	if !errors.Is(err, domain.ErrQuestionsExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadLevel(ctx, level)
}

// sampleQuestions builds perLevel questions for each of 15 levels.
func sampleQuestions(perLevel int) []domain.Question {
	var out []domain.Question
	for level := 0; level < 15; level++ {
		for i := 0; i < perLevel; i++ {
			out = append(out, domain.Question{
				ID:      fmt.Sprintf("q-%d-%d", level, i),
				Level:   level,
				Text:    fmt.Sprintf("Question %d of level %d", i, level),
				Answers: []string{"right", "wrong 1", "wrong 2", "wrong 3"},
			})
		}
	}
	return out
}
