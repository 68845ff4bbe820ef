package practice

import (
	"math"
	"slices"
	"strings"
)

// Kind is the type of a practice question.
type Kind int

const (
	Choice Kind = iota
	Listening
	Writing
)

// ParseKind maps the type string used by lesson data to a Kind.
// Anything that is not "listening" or "writing" is graded as a choice question.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "listening":
		return Listening
	case "writing":
		return Writing
	default:
		return Choice
	}
}

func (k Kind) String() string {
	switch k {
	case Listening:
		return "listening"
	case Writing:
		return "writing"
	default:
		return "multiple"
	}
}

// MarshalText lets Kind round-trip through JSON as its type string.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// ChoiceOption is one selectable answer of a choice or listening question.
type ChoiceOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single flattened practice item.
type Question struct {
	Index      int            `json:"index"`
	Kind       Kind           `json:"kind"`
	Prompt     string         `json:"prompt"`
	PromptKana string         `json:"promptKana,omitempty"`
	Choices    []ChoiceOption `json:"choices,omitempty"`
	Answer     string         `json:"answer"`
	Audio      string         `json:"audio,omitempty"`
}

// HasChoice reports whether value is one of the question's choice tokens.
func (q Question) HasChoice(value string) bool {
	return slices.ContainsFunc(q.Choices, func(c ChoiceOption) bool { return c.Value == value })
}

// IsCorrect grades a stored answer. Writing answers ignore all whitespace and case.
func (q Question) IsCorrect(answer string) bool {
	switch q.Kind {
	case Writing:
		return normalizeText(answer) == normalizeText(q.Answer)
	case Choice, Listening:
		return answer == q.Answer
	}
	return false
}

// isAnswered reports whether the stored entry counts toward a complete submission.
func (q Question) isAnswered(answer string, ok bool) bool {
	if !ok {
		return false
	}
	if q.Kind == Writing {
		return strings.TrimSpace(answer) != ""
	}
	return true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Data is the practice document of a lesson bundle, after defaults are merged.
type Data struct {
	Sections          []Section    `json:"sections,omitempty"`
	Quiz              *RawQuestion `json:"quiz,omitempty"`
	PreviousLessonURL string       `json:"previousLessonUrl,omitempty"`
	NextLessonURL     string       `json:"nextLessonUrl,omitempty"`
	ProgressPercent   *float64     `json:"progressPercent,omitempty"`
}

// roundedPercent is the course progress as a whole percentage, or nil.
func (d Data) roundedPercent() *int {
	if d.ProgressPercent == nil {
		return nil
	}
	pct := int(math.Round(*d.ProgressPercent))
	return &pct
}

type Section struct {
	Type      string        `json:"type,omitempty"`
	Title     string        `json:"title,omitempty"`
	Questions []RawQuestion `json:"questions"`
}

// RawQuestion is a question as authored in lesson data.
type RawQuestion struct {
	Type       string         `json:"type,omitempty"`
	Prompt     string         `json:"prompt"`
	PromptKana string         `json:"promptKana,omitempty"`
	Choices    []ChoiceOption `json:"choices,omitempty"`
	Answer     string         `json:"answer"`
	Audio      string         `json:"audio,omitempty"`
	Meta       *QuizMeta      `json:"meta,omitempty"`
}

type QuizMeta struct {
	TimeRemaining string `json:"timeRemaining,omitempty"`
}

// Flatten turns sections (or the single quiz fallback) into an ordered question list.
// A present sections array wins over the quiz, even when it is empty.
func Flatten(d Data) []Question {
	var out []Question
	switch {
	case d.Sections != nil:
		for _, s := range d.Sections {
			for _, raw := range s.Questions {
				out = append(out, raw.toQuestion(len(out), s.Type))
			}
		}
	case d.Quiz != nil:
		out = append(out, d.Quiz.toQuestion(0, ""))
	}
	return out
}

func (r RawQuestion) toQuestion(index int, sectionType string) Question {
	typ := r.Type
	if typ == "" {
		typ = sectionType
	}
	q := Question{
		Index:      index,
		Kind:       ParseKind(typ),
		Prompt:     r.Prompt,
		PromptKana: r.PromptKana,
		Answer:     r.Answer,
	}
	if q.Kind != Writing {
		q.Choices = slices.Clone(r.Choices)
	}
	if q.Kind == Listening {
		q.Audio = r.Audio
	}
	return q
}

// timeRemaining returns the timer badge text carried by the quiz metadata.
func (d Data) timeRemaining() string {
	if d.Quiz != nil && d.Quiz.Meta != nil && d.Quiz.Meta.TimeRemaining != "" {
		return d.Quiz.Meta.TimeRemaining
	}
	return "00:00"
}
