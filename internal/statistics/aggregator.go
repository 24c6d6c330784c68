// Package statistics summarizes a user's completed attempts.
package statistics

import (
	"sort"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// Apply keeps completed attempts that match the filter. Full tests always
// match a skill filter.
func Apply(attempts []models.Attempt, f Filter) []models.Attempt {
	var out []models.Attempt
	for _, a := range attempts {
		if a.Status != models.StatusCompleted || a.CompletedAt == nil {
			continue
		}
		if !f.From.IsZero() && a.CompletedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.CompletedAt.After(f.To) {
			continue
		}
		if f.ExamIDs != nil && !f.ExamIDs[a.ExamID] {
			continue
		}
		if f.Skill != "" && !a.IncludesSkill(f.Skill) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func Summarize(attempts []models.Attempt, f Filter) Summary {
	matched := Apply(attempts, f)

	summary := Summary{
		TotalAttempts: len(matched),
		SkillAverages: map[string]float64{},
	}

	var seconds float64
	var correct, total int
	var overall []float64
	for _, a := range matched {
		seconds += a.CompletedAt.Sub(a.StartedAt).Seconds()
		correct += a.CorrectQuestionCount
		total += a.TotalQuestionCount
		if a.OverallScore != nil {
			overall = append(overall, *a.OverallScore)
		}
	}

	summary.TotalPracticeHours = round1(seconds / 3600)
	if len(overall) > 0 {
		summary.AverageOverallScore = round1(mean(overall))
		summary.HighestOverallScore = highest(overall)
	}
	// Pooled ratio over all questions, not a mean of per-attempt percentages.
	if total > 0 {
		summary.AverageAccuracy = round1(float64(correct) * 100 / float64(total))
	}

	for skill, scores := range skillScores(matched) {
		summary.SkillAverages[string(skill)] = round1(mean(scores))
	}
	return summary
}

// Chart buckets attempts by completion day, or by month for a yearly view.
func Chart(attempts []models.Attempt, f Filter, period Period) []ChartPoint {
	matched := Apply(attempts, f)

	buckets := map[time.Time][]models.Attempt{}
	for _, a := range matched {
		key := bucketStart(*a.CompletedAt, period)
		buckets[key] = append(buckets[key], a)
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]ChartPoint, 0, len(keys))
	for _, k := range keys {
		group := buckets[k]
		point := ChartPoint{
			Date:         k,
			Label:        label(k, period),
			SkillScores:  map[string]float64{},
			AttemptCount: len(group),
		}
		var overall []float64
		for _, a := range group {
			if a.OverallScore != nil {
				overall = append(overall, *a.OverallScore)
			}
		}
		if len(overall) > 0 {
			v := round1(mean(overall))
			point.OverallScore = &v
		}
		for skill, scores := range skillScores(group) {
			point.SkillScores[string(skill)] = round1(mean(scores))
		}
		points = append(points, point)
	}
	return points
}

func skillScores(attempts []models.Attempt) map[models.SkillType][]float64 {
	out := map[models.SkillType][]float64{}
	for i := range attempts {
		for _, skill := range models.AllSkills {
			if v := attempts[i].SkillScore(skill); v != nil {
				out[skill] = append(out[skill], *v)
			}
		}
	}
	return out
}

func bucketStart(t time.Time, period Period) time.Time {
	t = t.UTC()
	if period == PeriodYear {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func label(t time.Time, period Period) string {
	if period == PeriodYear {
		return t.Format("Jan 2006")
	}
	return t.Format("Jan 02")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func highest(values []float64) float64 {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
