package scoring

import (
	"strings"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
)

type matcher func(userAnswer, correctAnswer string) bool

// matchers is the closed set of auto-gradable question types. Anything not
// listed here (Essay, SpeakingRecording, unknown types) never scores.
var matchers = map[models.QuestionType]matcher{
	models.QuestionMultipleChoice:    exactMatch,
	models.QuestionTrueFalseNotGiven: exactMatch,
	models.QuestionMatchingHeadings:  exactMatch,
	models.QuestionDropDown:          exactMatch,
	models.QuestionFillInTheBlank:    normalizedMatch,
}

// ScoreAnswer reports whether userAnswer is correct for a question of the
// given type.
func ScoreAnswer(userAnswer, correctAnswer string, questionType models.QuestionType) bool {
	if strings.TrimSpace(userAnswer) == "" {
		return false
	}
	match, ok := matchers[questionType]
	if !ok {
		return false
	}
	return match(userAnswer, correctAnswer)
}

// IsAutoGradable reports whether answers of this type are scored automatically.
func IsAutoGradable(questionType models.QuestionType) bool {
	_, ok := matchers[questionType]
	return ok
}

func exactMatch(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))
}

func normalizedMatch(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(normalizeSpaces(userAnswer), normalizeSpaces(correctAnswer))
}

// normalizeSpaces trims and collapses internal whitespace runs to one space.
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
