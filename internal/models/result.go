package models

import "time"

type SkillResult struct {
	Skill           SkillType `bson:"skill" json:"skill"`
	CorrectCount    int       `bson:"correct_count" json:"correctCount"`
	TotalQuestions  int       `bson:"total_questions" json:"totalQuestions"`
	PercentageScore float64   `bson:"percentage_score" json:"percentageScore"`
	BandScore       float64   `bson:"band_score" json:"bandScore"`
}

type QuestionResult struct {
	QuestionID    string       `bson:"question_id" json:"questionId"`
	Skill         SkillType    `bson:"skill" json:"skill"`
	QuestionType  QuestionType `bson:"question_type" json:"questionType"`
	UserAnswer    string       `bson:"user_answer" json:"userAnswer"`
	CorrectAnswer string       `bson:"correct_answer" json:"correctAnswer"`
	IsCorrect     bool         `bson:"is_correct" json:"isCorrect"`
	PointsEarned  float64      `bson:"points_earned" json:"pointsEarned"`
	MaxPoints     float64      `bson:"max_points" json:"maxPoints"`
}

// TestResult is the frozen outcome of a submitted attempt.
type TestResult struct {
	ID               string           `bson:"_id" json:"id"`
	AttemptID        string           `bson:"attempt_id" json:"attemptId"`
	UserID           string           `bson:"user_id" json:"userId"`
	ExamID           string           `bson:"exam_id" json:"examId"`
	OverallBandScore float64          `bson:"overall_band_score" json:"overallBandScore"`
	TotalCorrect     int              `bson:"total_correct" json:"totalCorrect"`
	TotalQuestions   int              `bson:"total_questions" json:"totalQuestions"`
	PercentageScore  float64          `bson:"percentage_score" json:"percentageScore"`
	TimeTaken        int              `bson:"time_taken" json:"timeTaken"`
	SkillResults     []SkillResult    `bson:"skill_results" json:"skillResults"`
	QuestionResults  []QuestionResult `bson:"question_results" json:"questionResults"`
	CreatedAt        time.Time        `bson:"created_at" json:"createdAt"`
}
