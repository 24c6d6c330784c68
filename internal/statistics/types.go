package statistics

import (
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Filter narrows the attempts that feed a summary or chart. Zero values mean
// no restriction.
type Filter struct {
	From    time.Time
	To      time.Time
	ExamIDs map[string]bool
	Skill   models.SkillType
}

type Summary struct {
	TotalAttempts       int                `json:"totalAttempts"`
	TotalPracticeHours  float64            `json:"totalPracticeHours"`
	AverageOverallScore float64            `json:"averageOverallScore"`
	HighestOverallScore float64            `json:"highestOverallScore"`
	AverageAccuracy     float64            `json:"averageAccuracy"`
	SkillAverages       map[string]float64 `json:"skillAverages"`
}

type ChartPoint struct {
	Date         time.Time          `json:"date"`
	Label        string             `json:"label"`
	OverallScore *float64           `json:"overallScore"`
	SkillScores  map[string]float64 `json:"skillScores"`
	AttemptCount int                `json:"attemptCount"`
}

// Window returns the start of the default look-back window for a period, or
// the zero time when the period is unbounded.
func (p Period) Window(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, 0, -30)
	case PeriodYear:
		return now.AddDate(0, 0, -365)
	}
	return time.Time{}
}

func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s), true
	case "":
		return PeriodAll, true
	}
	return "", false
}
