package practice

import (
	"fmt"
	"maps"
	"strings"
)

// FeedbackState classifies the global feedback line under the panel.
type FeedbackState string

const (
	FeedbackNone    FeedbackState = ""
	FeedbackWarning FeedbackState = "warning"
	FeedbackSuccess FeedbackState = "success"
	FeedbackError   FeedbackState = "error"
)

const (
	MessageIncomplete = "Hãy hoàn thành tất cả câu hỏi trước khi nộp bài."
	MessagePassed     = "Tuyệt vời! Bạn đã trả lời chính xác tất cả câu hỏi."
	MessageIncorrect  = "Câu trả lời chưa chính xác. Hãy thử lại."
	messageRemaining  = "Bạn còn %d câu chưa chính xác. Hãy xem lại các câu được đánh dấu."
)

type Feedback struct {
	State   FeedbackState `json:"state,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Links are the lesson navigation targets shown under the panel.
type Links struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

// State is the whole practice session. Treat values as immutable: Apply
// returns a new State and never mutates its input.
type State struct {
	Questions       []Question     `json:"questions"`
	Current         int            `json:"current"`
	Answers         map[int]string `json:"answers"`
	Incorrect       map[int]bool   `json:"incorrect"`
	Passed          bool           `json:"passed"`
	Feedback        Feedback       `json:"feedback"`
	Links           Links          `json:"links"`
	ProgressPercent *int           `json:"progressPercent,omitempty"`
	TimeRemaining   string         `json:"timeRemaining"`
}

// NewState builds the initial state for a practice document.
func NewState(d Data) State {
	return State{
		Questions:       Flatten(d),
		Answers:         map[int]string{},
		Incorrect:       map[int]bool{},
		Links:           Links{Previous: d.PreviousLessonURL, Next: d.NextLessonURL},
		ProgressPercent: d.roundedPercent(),
		TimeRemaining:   d.timeRemaining(),
	}
}

// Empty reports whether there is nothing to practice.
func (s State) Empty() bool {
	return len(s.Questions) == 0
}

// AllAnswered reports whether every question has a usable answer.
func (s State) AllAnswered() bool {
	for _, q := range s.Questions {
		a, ok := s.Answers[q.Index]
		if !q.isAnswered(a, ok) {
			return false
		}
	}
	return true
}

func (s State) clone() State {
	next := s
	next.Answers = maps.Clone(s.Answers)
	if next.Answers == nil {
		next.Answers = map[int]string{}
	}
	next.Incorrect = maps.Clone(s.Incorrect)
	if next.Incorrect == nil {
		next.Incorrect = map[int]bool{}
	}
	return next
}

// Action is one user interaction. The set of actions is closed.
type Action interface {
	apply(State) State
}

// Select stores (or clears, when Value is empty) the answer for the current question.
type Select struct {
	Index int
	Value string
}

type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

// ParseDirection accepts "prev" and "next".
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Prev, Next:
		return Direction(s), true
	}
	return "", false
}

type Navigate struct {
	Direction Direction
}

// Submit grades the session when every question is answered.
type Submit struct{}

// Apply returns the state that results from performing a on s.
func Apply(s State, a Action) State {
	return a.apply(s.clone())
}

func (a Select) apply(s State) State {
	if a.Index != s.Current || a.Index < 0 || a.Index >= len(s.Questions) {
		return s
	}
	q := s.Questions[a.Index]
	value := a.Value
	if q.Kind == Writing {
		value = strings.TrimSpace(value)
	} else if value != "" && !q.HasChoice(value) {
		return s
	}

	if value == "" {
		delete(s.Answers, a.Index)
	} else {
		s.Answers[a.Index] = value
	}
	delete(s.Incorrect, a.Index)
	s.Passed = false
	return s
}

func (a Navigate) apply(s State) State {
	switch a.Direction {
	case Prev:
		if s.Current > 0 {
			s.Current--
		}
	case Next:
		if s.Current < len(s.Questions)-1 {
			s.Current++
		}
	}
	return s
}

func (Submit) apply(s State) State {
	if !s.AllAnswered() {
		s.Feedback = Feedback{State: FeedbackWarning, Message: MessageIncomplete}
		return s
	}

	incorrect := map[int]bool{}
	for _, q := range s.Questions {
		if !q.IsCorrect(s.Answers[q.Index]) {
			incorrect[q.Index] = true
		}
	}
	s.Incorrect = incorrect
	s.Passed = len(incorrect) == 0
	if s.Passed {
		s.Feedback = Feedback{State: FeedbackSuccess, Message: MessagePassed}
	} else {
		s.Feedback = Feedback{State: FeedbackError, Message: fmt.Sprintf(messageRemaining, len(incorrect))}
	}
	return s
}
