// Package practice narrows an exam down to the skills a test taker picked.
package practice

import (
	"fmt"
	"strings"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
)

// Selection is the outcome of validating a skill subset against an exam.
type Selection struct {
	Skills          []models.SkillType
	DurationMinutes int
}

// IsFullTest reports whether the selection covers the whole exam.
func (s Selection) IsFullTest() bool {
	return len(s.Skills) == 0
}

// Canonical is the form stored on an attempt: comma-joined skill names, or
// empty for a full test.
func (s Selection) Canonical() string {
	names := make([]string, len(s.Skills))
	for i, sk := range s.Skills {
		names[i] = string(sk)
	}
	return strings.Join(names, ",")
}

// SkillError reports a requested skill that cannot be used with the exam.
type SkillError struct {
	Skill string
}

func (e *SkillError) Error() string {
	return fmt.Sprintf("skill not available: %s", e.Skill)
}

// Select validates requested against the exam's skills. An empty request is a
// full test at the exam's own duration. A single unknown or missing skill
// rejects the whole request.
func Select(exam *models.Exam, requested []string) (Selection, error) {
	if len(requested) == 0 {
		return Selection{DurationMinutes: exam.DurationMinutes}, nil
	}

	var sel Selection
	seen := make(map[models.SkillType]bool, len(requested))
	for _, name := range requested {
		skill, ok := models.ParseSkill(name)
		if !ok {
			return Selection{}, &SkillError{Skill: name}
		}
		examSkill, ok := exam.SkillByType(skill)
		if !ok {
			return Selection{}, &SkillError{Skill: string(skill)}
		}
		if seen[skill] {
			continue
		}
		seen[skill] = true
		sel.Skills = append(sel.Skills, skill)
		sel.DurationMinutes += examSkill.DurationMinutes
	}
	return sel, nil
}
