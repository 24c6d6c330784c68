package scoring

import (
	"github.com/sang1833/EnglishPractice-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// Engine converts answers into correctness and band scores.
type Engine struct {
	table BandTable
}

// NewEngine creates an engine; a nil table selects DefaultBandTable.
func NewEngine(table BandTable) *Engine {
	if table == nil {
		table = DefaultBandTable()
	}
	return &Engine{table: table}
}

// CalculateBandScore maps a correct/total ratio onto the band table. The skill
// is part of the signature so skills can get their own curves later; today all
// skills share one table.
func (e *Engine) CalculateBandScore(correct, total int, skill models.SkillType) float64 {
	if total <= 0 {
		return 0
	}
	pct := percentage(correct, total)
	for _, t := range e.table {
		if pct >= t.MinPercentage {
			return t.Band
		}
	}
	if pct > 0 {
		return 1.0
	}
	return 0
}

// CalculateTestScore scores every question the attempt covers. Questions of
// skills outside a practice-mode selection are ignored entirely, even when
// answered.
func (e *Engine) CalculateTestScore(attempt *models.Attempt, answers []models.UserAnswer, questions []models.ExamQuestion) *Result {
	byQuestion := make(map[string]models.UserAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	result := &Result{
		SkillResults:    []models.SkillResult{},
		QuestionResults: []models.QuestionResult{},
	}
	skillIndex := map[models.SkillType]int{}

	for _, q := range questions {
		if !attempt.IncludesSkill(q.Skill) {
			continue
		}

		var response string
		if a, ok := byQuestion[q.ID]; ok {
			response = a.Response()
		}
		correct := ScoreAnswer(response, q.CorrectAnswer, q.QuestionType)

		earned := 0.0
		if correct {
			earned = q.MaxPoints()
			result.TotalCorrect++
		}
		result.TotalQuestions++
		result.QuestionResults = append(result.QuestionResults, models.QuestionResult{
			QuestionID:    q.ID,
			Skill:         q.Skill,
			QuestionType:  q.QuestionType,
			UserAnswer:    response,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			PointsEarned:  earned,
			MaxPoints:     q.MaxPoints(),
		})

		idx, ok := skillIndex[q.Skill]
		if !ok {
			idx = len(result.SkillResults)
			skillIndex[q.Skill] = idx
			result.SkillResults = append(result.SkillResults, models.SkillResult{Skill: q.Skill})
		}
		result.SkillResults[idx].TotalQuestions++
		if correct {
			result.SkillResults[idx].CorrectCount++
		}
	}

	if result.TotalQuestions > 0 {
		result.PercentageScore = percentage(result.TotalCorrect, result.TotalQuestions)
	}

	bands := make([]float64, 0, len(result.SkillResults))
	for i := range result.SkillResults {
		sr := &result.SkillResults[i]
		sr.PercentageScore = percentage(sr.CorrectCount, sr.TotalQuestions)
		sr.BandScore = e.CalculateBandScore(sr.CorrectCount, sr.TotalQuestions, sr.Skill)
		bands = append(bands, sr.BandScore)
	}
	result.OverallBandScore = OverallBand(bands)

	return result
}

// OverallBand averages skill bands and rounds to the nearest half band, with
// halves rounded away from zero.
func OverallBand(bands []float64) float64 {
	if len(bands) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, b := range bands {
		sum = sum.Add(decimal.NewFromFloat(b))
	}
	two := decimal.NewFromInt(2)
	mean := sum.Div(decimal.NewFromInt(int64(len(bands))))
	return mean.Mul(two).Round(0).Div(two).InexactFloat64()
}

func percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct*100) / float64(total)
}
