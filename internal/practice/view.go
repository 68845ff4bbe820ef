package practice

import (
	"fmt"
	"strings"
)

// View is everything the practice panel template needs. It is derived from a
// State by BuildView and holds no references back into it.
type View struct {
	Empty bool

	Progress          string
	TimeRemaining     string
	HasCourseProgress bool
	CourseProgress    int

	Question QuestionView

	PrevDisabled   bool
	NextDisabled   bool
	SubmitDisabled bool

	PreviousLessonURL string
	NextLessonURL     string
	NextLessonLocked  bool

	Feedback Feedback
}

type QuestionView struct {
	Index      int
	Type       string
	Prompt     string
	PromptKana string
	Audio      string
	Choices    []ChoiceView
	Writing    bool
	Text       string
	Status     string
	Message    string
}

type ChoiceView struct {
	Value    string
	Label    string
	Text     string
	Selected bool
}

const (
	StatusIncorrect = "is-incorrect"
	StatusCorrect   = "is-correct"
)

// BuildView derives display data from s. It is pure.
func BuildView(s State) View {
	if s.Empty() {
		return View{Empty: true}
	}

	current := min(max(s.Current, 0), len(s.Questions)-1)
	q := s.Questions[current]
	answer, answered := s.Answers[q.Index]

	qv := QuestionView{
		Index:      q.Index,
		Type:       q.Kind.String(),
		Prompt:     q.Prompt,
		PromptKana: q.PromptKana,
		Writing:    q.Kind == Writing,
	}
	switch q.Kind {
	case Writing:
		qv.Text = answer
	case Choice, Listening:
		if q.Kind == Listening {
			qv.Audio = q.Audio
		}
		qv.Choices = make([]ChoiceView, 0, len(q.Choices))
		for _, c := range q.Choices {
			qv.Choices = append(qv.Choices, ChoiceView{
				Value:    c.Value,
				Label:    strings.ToUpper(c.Label),
				Text:     c.Text,
				Selected: answered && answer == c.Value,
			})
		}
	}
	switch {
	case s.Incorrect[q.Index]:
		qv.Status = StatusIncorrect
		qv.Message = MessageIncorrect
	case s.Passed:
		qv.Status = StatusCorrect
	}

	v := View{
		Progress:          fmt.Sprintf("%d / %d", current+1, len(s.Questions)),
		TimeRemaining:     s.TimeRemaining,
		Question:          qv,
		PrevDisabled:      current == 0,
		NextDisabled:      current == len(s.Questions)-1,
		SubmitDisabled:    s.Passed || !s.AllAnswered(),
		PreviousLessonURL: linkOrHash(s.Links.Previous),
		NextLessonURL:     linkOrHash(s.Links.Next),
		NextLessonLocked:  !s.Passed,
		Feedback:          s.Feedback,
	}
	if v.TimeRemaining == "" {
		v.TimeRemaining = "00:00"
	}
	if s.ProgressPercent != nil {
		v.HasCourseProgress = true
		v.CourseProgress = *s.ProgressPercent
	}
	return v
}

func linkOrHash(u string) string {
	if u == "" {
		return "#"
	}
	return u
}
