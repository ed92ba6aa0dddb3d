package memory

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"ladder-quiz-service/internal/domain"
)

// questionFile is the YAML layout used for seeding and demo banks.
type questionFile struct {
	Questions []struct {
		ID      string   `yaml:"id"`
		Level   int      `yaml:"level"`
		Text    string   `yaml:"text"`
		Correct string   `yaml:"correct"`
		Wrong   []string `yaml:"wrong"`
	} `yaml:"questions"`
}

// ParseQuestions decodes a YAML question list. Each entry needs one correct and
// three wrong answers; entries without an id get a random UUID.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(file.Questions))
	for i, entry := range file.Questions {
		if entry.Text == "" || entry.Correct == "" || len(entry.Wrong) != domain.AnswerCount-1 {
			return nil, fmt.Errorf("question #%d: %w", i, domain.ErrInvalidQuestion)
		}
		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}
		questions = append(questions, domain.Question{
			ID:      id,
			Level:   entry.Level,
			Text:    entry.Text,
			Answers: append([]string{entry.Correct}, entry.Wrong...),
		})
	}
	return questions, nil
}

// LoadQuestionFile reads and parses a YAML question file.
func LoadQuestionFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(data)
}
