package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
)

// LoadExamsFile reads a JSON array of exams into the store.
func (s *MemoryStore) LoadExamsFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read exams file: %w", err)
	}
	var exams []models.Exam
	if err := json.Unmarshal(raw, &exams); err != nil {
		return 0, fmt.Errorf("decode exams file: %w", err)
	}
	for _, e := range exams {
		if e.ID == "" {
			return 0, fmt.Errorf("exam %q has no id", e.Title)
		}
		s.PutExam(e)
	}
	return len(exams), nil
}
