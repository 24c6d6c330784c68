package metrics

import (
	"net/http"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter for attempt state transitions
	attemptTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_attempt_transitions_total",
			Help: "Total number of attempt lifecycle transitions",
		},
		[]string{"transition"}, // started, resumed, restarted, paused, submitted, abandoned
	)

	bandScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exam_band_score",
			Help:    "Band scores awarded at submission",
			Buckets: prometheus.LinearBuckets(1, 0.5, 17),
		},
		[]string{"skill"}, // Listening, Reading, Writing, Speaking, Overall
	)

	scoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_scoring_duration_seconds",
			Help:    "Time spent scoring a submitted attempt",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func RecordTransition(transition string) {
	attemptTransitions.WithLabelValues(transition).Inc()
}

func ObserveScoring(d time.Duration) {
	scoringDuration.Observe(d.Seconds())
}

func ObserveResult(result *models.TestResult) {
	bandScores.WithLabelValues("Overall").Observe(result.OverallBandScore)
	for _, sr := range result.SkillResults {
		bandScores.WithLabelValues(string(sr.Skill)).Observe(sr.BandScore)
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
