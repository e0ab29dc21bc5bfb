package memory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trivia-battle-service/internal/domain"
)

// StaticQuestionLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	if len(l.questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return l.questions, nil
}

// FileQuestionLoader reads the pool from a YAML document with a top-level "questions" list.
type FileQuestionLoader struct {
	path string
}

func NewFileQuestionLoader(path string) *FileQuestionLoader {
	return &FileQuestionLoader{path: path}
}

type questionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

func (l *FileQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}
	if err := validateQuestions(file.Questions); err != nil {
		return nil, err
	}
	if len(file.Questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return file.Questions, nil
}

func validateQuestions(questions []domain.Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %s: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Choices) < 2 {
			return fmt.Errorf("question %s: needs at least two choices", q.ID)
		}
		if q.CorrectIndex() < 0 {
			return fmt.Errorf("question %s: answer %q is not one of the choices", q.ID, q.Answer)
		}
	}
	return nil
}
