package practice

import "errors"

var (
	ErrNotCurrent    = errors.New("question is not the one being displayed")
	ErrUnknownChoice = errors.New("answer is not one of the question's choices")
	ErrNoQuestions   = errors.New("practice has no questions")
)

// Result summarises a submission for callers that record progress.
type Result struct {
	Graded  bool
	Total   int
	Correct int
	Passed  bool
}

// Outcome is the metrics label for a submission.
func (r Result) Outcome() string {
	switch {
	case !r.Graded:
		return "incomplete"
	case r.Passed:
		return "passed"
	default:
		return "failed"
	}
}

// Controller owns one practice session. It is not safe for concurrent use;
// stores serialise access per session.
type Controller struct {
	state State
}

// New builds a controller for a lesson's practice document.
func New(d Data) *Controller {
	return &Controller{state: NewState(d)}
}

// Restore wraps a previously saved state.
func Restore(s State) *Controller {
	return &Controller{state: s.clone()}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state.clone()
}

func (c *Controller) Empty() bool {
	return c.state.Empty()
}

// SelectAnswer records the learner's answer for the displayed question.
func (c *Controller) SelectAnswer(index int, value string) error {
	if c.state.Empty() {
		return ErrNoQuestions
	}
	if index != c.state.Current {
		return ErrNotCurrent
	}
	q := c.state.Questions[index]
	if q.Kind != Writing && value != "" && !q.HasChoice(value) {
		return ErrUnknownChoice
	}
	c.state = Apply(c.state, Select{Index: index, Value: value})
	return nil
}

func (c *Controller) Navigate(d Direction) {
	c.state = Apply(c.state, Navigate{Direction: d})
}

// Submit grades the session and reports what happened.
func (c *Controller) Submit() Result {
	if c.state.Empty() {
		return Result{}
	}
	c.state = Apply(c.state, Submit{})
	if c.state.Feedback.State == FeedbackWarning {
		return Result{Total: len(c.state.Questions)}
	}
	total := len(c.state.Questions)
	return Result{
		Graded:  true,
		Total:   total,
		Correct: total - len(c.state.Incorrect),
		Passed:  c.state.Passed,
	}
}

// View renders the current state into display data.
func (c *Controller) View() View {
	return BuildView(c.state)
}
