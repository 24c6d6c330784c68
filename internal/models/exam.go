package models

import (
	"sort"
	"strings"
)

type SkillType string

const (
	SkillListening SkillType = "Listening"
	SkillReading   SkillType = "Reading"
	SkillWriting   SkillType = "Writing"
	SkillSpeaking  SkillType = "Speaking"
)

// AllSkills lists the skills in the order an IELTS paper presents them.
var AllSkills = []SkillType{SkillListening, SkillReading, SkillWriting, SkillSpeaking}

// ParseSkill resolves a skill name case-insensitively to its canonical form.
func ParseSkill(name string) (SkillType, bool) {
	name = strings.TrimSpace(name)
	for _, s := range AllSkills {
		if strings.EqualFold(string(s), name) {
			return s, true
		}
	}
	return "", false
}

type QuestionType string

const (
	QuestionMultipleChoice    QuestionType = "MultipleChoice"
	QuestionFillInTheBlank    QuestionType = "FillInTheBlank"
	QuestionTrueFalseNotGiven QuestionType = "TrueFalseNotGiven"
	QuestionMatchingHeadings  QuestionType = "MatchingHeadings"
	QuestionDropDown          QuestionType = "DropDown"
	QuestionEssay             QuestionType = "Essay"
	QuestionSpeakingRecording QuestionType = "SpeakingRecording"
)

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type Question struct {
	ID            string   `bson:"id" json:"id"`
	OrderIndex    int      `bson:"order_index" json:"orderIndex"`
	Content       string   `bson:"content" json:"content"`
	Options       []Option `bson:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer string   `bson:"correct_answer" json:"correctAnswer,omitempty"`
	Points        float64  `bson:"points" json:"points"`
}

// MaxPoints returns the question's weight, defaulting to 1 when unset.
func (q Question) MaxPoints() float64 {
	if q.Points <= 0 {
		return 1.0
	}
	return q.Points
}

type QuestionGroup struct {
	ID           string       `bson:"id" json:"id"`
	OrderIndex   int          `bson:"order_index" json:"orderIndex"`
	Instruction  string       `bson:"instruction" json:"instruction"`
	QuestionType QuestionType `bson:"question_type" json:"questionType"`
	Questions    []Question   `bson:"questions" json:"questions"`
}

type Section struct {
	ID         string          `bson:"id" json:"id"`
	OrderIndex int             `bson:"order_index" json:"orderIndex"`
	Title      string          `bson:"title" json:"title"`
	Content    string          `bson:"content" json:"content"`
	AudioURL   string          `bson:"audio_url,omitempty" json:"audioUrl,omitempty"`
	Groups     []QuestionGroup `bson:"groups" json:"questionGroups"`
}

type Skill struct {
	ID              string    `bson:"id" json:"id"`
	Type            SkillType `bson:"type" json:"type"`
	OrderIndex      int       `bson:"order_index" json:"orderIndex"`
	DurationMinutes int       `bson:"duration_minutes" json:"durationMinutes"`
	Sections        []Section `bson:"sections" json:"sections"`
}

// Exam is stored as a single document holding the whole content tree so a
// load never needs a second round trip.
type Exam struct {
	ID              string  `bson:"_id" json:"id"`
	Title           string  `bson:"title" json:"title"`
	ExamType        string  `bson:"exam_type" json:"examType"`
	DurationMinutes int     `bson:"duration_minutes" json:"durationMinutes"`
	Skills          []Skill `bson:"skills" json:"skills"`
}

// ExamQuestion is a question flattened out of the exam tree together with the
// skill and question type it inherits from its ancestors.
type ExamQuestion struct {
	Question
	Skill        SkillType
	QuestionType QuestionType
}

// SortTree orders every level of the tree by its order index.
func (e *Exam) SortTree() {
	sort.SliceStable(e.Skills, func(i, j int) bool { return e.Skills[i].OrderIndex < e.Skills[j].OrderIndex })
	for si := range e.Skills {
		sections := e.Skills[si].Sections
		sort.SliceStable(sections, func(i, j int) bool { return sections[i].OrderIndex < sections[j].OrderIndex })
		for ti := range sections {
			groups := sections[ti].Groups
			sort.SliceStable(groups, func(i, j int) bool { return groups[i].OrderIndex < groups[j].OrderIndex })
			for gi := range groups {
				qs := groups[gi].Questions
				sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })
			}
		}
	}
}

// Questions flattens the tree in presentation order.
func (e *Exam) Questions() []ExamQuestion {
	var out []ExamQuestion
	for _, sk := range e.Skills {
		for _, sec := range sk.Sections {
			for _, g := range sec.Groups {
				for _, q := range g.Questions {
					out = append(out, ExamQuestion{Question: q, Skill: sk.Type, QuestionType: g.QuestionType})
				}
			}
		}
	}
	return out
}

func (e *Exam) SkillByType(t SkillType) (Skill, bool) {
	for _, s := range e.Skills {
		if s.Type == t {
			return s, true
		}
	}
	return Skill{}, false
}

// Prune returns a copy of the exam restricted to the given skills. An empty
// list returns the full exam.
func (e *Exam) Prune(skills []SkillType) *Exam {
	out := *e
	if len(skills) == 0 {
		out.Skills = append([]Skill(nil), e.Skills...)
		return &out
	}
	keep := make(map[SkillType]bool, len(skills))
	for _, s := range skills {
		keep[s] = true
	}
	out.Skills = nil
	for _, s := range e.Skills {
		if keep[s.Type] {
			out.Skills = append(out.Skills, s)
		}
	}
	return &out
}

// WithoutAnswers returns a deep copy safe to hand to a test taker.
func (e *Exam) WithoutAnswers() *Exam {
	out := *e
	out.Skills = make([]Skill, len(e.Skills))
	for si, sk := range e.Skills {
		sk.Sections = append([]Section(nil), sk.Sections...)
		for ti := range sk.Sections {
			sec := &sk.Sections[ti]
			sec.Groups = append([]QuestionGroup(nil), sec.Groups...)
			for gi := range sec.Groups {
				g := &sec.Groups[gi]
				g.Questions = append([]Question(nil), g.Questions...)
				for qi := range g.Questions {
					g.Questions[qi].CorrectAnswer = ""
				}
			}
		}
		out.Skills[si] = sk
	}
	return &out
}
