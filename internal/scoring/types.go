package scoring

import "github.com/sang1833/EnglishPractice-sub000/internal/models"

// BandThreshold maps an inclusive lower bound on the percentage of correct
// answers to a band.
type BandThreshold struct {
	MinPercentage float64 `json:"min_percentage"`
	Band          float64 `json:"band"`
}

// BandTable holds thresholds in descending order of MinPercentage.
type BandTable []BandThreshold

// DefaultBandTable is the simplified IELTS conversion shared by all skills.
func DefaultBandTable() BandTable {
	return BandTable{
		{97, 9.0},
		{93, 8.5},
		{87, 8.0},
		{80, 7.5},
		{73, 7.0},
		{65, 6.5},
		{57, 6.0},
		{50, 5.5},
		{42, 5.0},
		{35, 4.5},
		{27, 4.0},
		{20, 3.5},
		{13, 3.0},
		{7, 2.5},
		{3, 2.0},
	}
}

// Result is the full scoring outcome of one attempt.
type Result struct {
	OverallBandScore float64
	TotalCorrect     int
	TotalQuestions   int
	PercentageScore  float64
	SkillResults     []models.SkillResult
	QuestionResults  []models.QuestionResult
}

// SkillResult finds the breakdown for one skill.
func (r *Result) SkillResult(skill models.SkillType) (models.SkillResult, bool) {
	for _, s := range r.SkillResults {
		if s.Skill == skill {
			return s, true
		}
	}
	return models.SkillResult{}, false
}
