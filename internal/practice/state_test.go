package practice

import (
	"strings"
	"testing"
)

func choiceQ(prompt, answer string) RawQuestion {
	return RawQuestion{
		Prompt: prompt,
		Answer: answer,
		Choices: []ChoiceOption{
			{Value: "a", Label: "a", Text: "あ"},
			{Value: "b", Label: "b", Text: "い"},
			{Value: "c", Label: "c", Text: "う"},
		},
	}
}

func twoChoiceData() Data {
	return Data{Sections: []Section{{Type: "multiple", Questions: []RawQuestion{
		choiceQ("Q1", "a"),
		choiceQ("Q2", "b"),
	}}}}
}

func TestFlattenSections(t *testing.T) {
	a, b, c := choiceQ("A", "a"), choiceQ("B", "b"), RawQuestion{Prompt: "C", Answer: "か"}
	got := Flatten(Data{Sections: []Section{
		{Type: "multiple", Questions: []RawQuestion{a, b}},
		{Type: "writing", Questions: []RawQuestion{c}},
	}})

	want := []struct {
		prompt string
		kind   Kind
	}{{"A", Choice}, {"B", Choice}, {"C", Writing}}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Index != i || got[i].Prompt != w.prompt || got[i].Kind != w.kind {
			t.Errorf("question %d = {%d %q %v}, want {%d %q %v}", i, got[i].Index, got[i].Prompt, got[i].Kind, i, w.prompt, w.kind)
		}
	}
	if got[2].Choices != nil {
		t.Error("writing question should carry no choices")
	}
}

func TestFlattenFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		data      Data
		wantLen   int
		wantKind  Kind
		wantTimer string
	}{
		{
			name:      "quiz only defaults to multiple",
			data:      Data{Quiz: &RawQuestion{Prompt: "Q", Answer: "a"}},
			wantLen:   1,
			wantKind:  Choice,
			wantTimer: "00:00",
		},
		{
			name:      "quiz keeps its own type and timer",
			data:      Data{Quiz: &RawQuestion{Type: "listening", Prompt: "Q", Audio: "/a.mp3", Meta: &QuizMeta{TimeRemaining: "04:30"}}},
			wantLen:   1,
			wantKind:  Listening,
			wantTimer: "04:30",
		},
		{
			name:      "question type overrides section type",
			data:      Data{Sections: []Section{{Type: "writing", Questions: []RawQuestion{{Type: "listening"}}}}},
			wantLen:   1,
			wantKind:  Listening,
			wantTimer: "00:00",
		},
		{
			name:      "unknown type grades as choice",
			data:      Data{Sections: []Section{{Type: "matching", Questions: []RawQuestion{{}}}}},
			wantLen:   1,
			wantKind:  Choice,
			wantTimer: "00:00",
		},
		{
			name:      "empty sections win over quiz",
			data:      Data{Sections: []Section{}, Quiz: &RawQuestion{Prompt: "Q"}},
			wantLen:   0,
			wantTimer: "00:00",
		},
		{
			name:      "nothing at all",
			data:      Data{},
			wantLen:   0,
			wantTimer: "00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(tt.data)
			if len(s.Questions) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(s.Questions), tt.wantLen)
			}
			if tt.wantLen > 0 {
				if s.Questions[0].Index != 0 || s.Questions[0].Kind != tt.wantKind {
					t.Errorf("question = %+v, want index 0 kind %v", s.Questions[0], tt.wantKind)
				}
			}
			if s.TimeRemaining != tt.wantTimer {
				t.Errorf("TimeRemaining = %q, want %q", s.TimeRemaining, tt.wantTimer)
			}
		})
	}
}

func TestAnswerSurvivesNavigation(t *testing.T) {
	c := New(twoChoiceData())

	if err := c.SelectAnswer(0, "b"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	c.Navigate(Next)
	if got := c.View().Question.Index; got != 1 {
		t.Fatalf("after next, current = %d", got)
	}
	c.Navigate(Prev)

	v := c.View()
	for _, ch := range v.Question.Choices {
		if ch.Selected != (ch.Value == "b") {
			t.Errorf("choice %q selected = %v", ch.Value, ch.Selected)
		}
	}
}

func TestSubmitRequiresAllAnswers(t *testing.T) {
	c := New(twoChoiceData())
	_ = c.SelectAnswer(0, "a")

	res := c.Submit()
	s := c.State()

	if res.Graded {
		t.Error("incomplete submission should not be graded")
	}
	if s.Feedback.State != FeedbackWarning || s.Feedback.Message != MessageIncomplete {
		t.Errorf("feedback = %+v", s.Feedback)
	}
	if len(s.Incorrect) != 0 || s.Passed {
		t.Errorf("incorrect = %v passed = %v", s.Incorrect, s.Passed)
	}
	if !c.View().SubmitDisabled {
		t.Error("submit should stay disabled while questions are unanswered")
	}
}

func TestFullCorrectPass(t *testing.T) {
	c := New(twoChoiceData())
	_ = c.SelectAnswer(0, "a")
	c.Navigate(Next)
	_ = c.SelectAnswer(1, "b")

	res := c.Submit()
	s := c.State()
	v := c.View()

	if !res.Passed || res.Correct != 2 || res.Outcome() != "passed" {
		t.Errorf("result = %+v", res)
	}
	if len(s.Incorrect) != 0 || !s.Passed {
		t.Errorf("incorrect = %v passed = %v", s.Incorrect, s.Passed)
	}
	if !v.SubmitDisabled {
		t.Error("submit should be disabled after passing")
	}
	if v.NextLessonLocked {
		t.Error("next lesson should be unlocked after passing")
	}
	if v.Question.Status != StatusCorrect {
		t.Errorf("status = %q, want %q", v.Question.Status, StatusCorrect)
	}
	if s.Feedback.State != FeedbackSuccess || s.Feedback.Message != MessagePassed {
		t.Errorf("feedback = %+v", s.Feedback)
	}
}

func TestWritingNormalization(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		input  string
		want   bool
	}{
		{"surrounding spaces", "こんにちは", "  こんにちは ", true},
		{"inner spaces", "こんにちは", "こん にち は", true},
		{"ideographic space", "こんにちは", "こんにちは　", true},
		{"case", "Konnichiwa", "konNICHIwa", true},
		{"different text", "こんにちは", "こんばんは", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Data{Quiz: &RawQuestion{Type: "writing", Answer: tt.answer}})
			if err := c.SelectAnswer(0, tt.input); err != nil {
				t.Fatalf("SelectAnswer: %v", err)
			}
			if got := c.Submit().Passed; got != tt.want {
				t.Errorf("passed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEditInvalidatesPass(t *testing.T) {
	c := New(twoChoiceData())
	_ = c.SelectAnswer(0, "a")
	c.Navigate(Next)
	_ = c.SelectAnswer(1, "b")
	if !c.Submit().Passed {
		t.Fatal("setup: expected pass")
	}

	if err := c.SelectAnswer(1, "c"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	v := c.View()

	if c.State().Passed {
		t.Error("passed should reset after an edit")
	}
	if v.SubmitDisabled {
		t.Error("submit should be enabled again")
	}
	if !v.NextLessonLocked {
		t.Error("next lesson should be locked again")
	}
	if v.Question.Status != "" {
		t.Errorf("status = %q, want none", v.Question.Status)
	}
}

func TestPartialFailMarking(t *testing.T) {
	data := Data{Sections: []Section{{Questions: []RawQuestion{
		choiceQ("Q1", "a"),
		choiceQ("Q2", "b"),
		{Type: "writing", Prompt: "Q3", Answer: "ねこ"},
	}}}}
	c := New(data)
	_ = c.SelectAnswer(0, "a")
	c.Navigate(Next)
	_ = c.SelectAnswer(1, "c")
	c.Navigate(Next)
	_ = c.SelectAnswer(2, "ねこ")

	res := c.Submit()
	s := c.State()

	if res.Passed || res.Correct != 2 || res.Outcome() != "failed" {
		t.Errorf("result = %+v", res)
	}
	if len(s.Incorrect) != 1 || !s.Incorrect[1] {
		t.Errorf("incorrect = %v, want {1}", s.Incorrect)
	}
	if s.Feedback.State != FeedbackError || !strings.Contains(s.Feedback.Message, "còn 1 câu") {
		t.Errorf("feedback = %+v", s.Feedback)
	}
	if c.View().SubmitDisabled {
		t.Error("submit should stay enabled after a failed submission")
	}

	c.Navigate(Prev)
	v := c.View()
	if v.Question.Status != StatusIncorrect || v.Question.Message != MessageIncorrect {
		t.Errorf("question 1 view = %+v", v.Question)
	}

	_ = c.SelectAnswer(1, "b")
	if c.State().Incorrect[1] {
		t.Error("editing should clear the incorrect mark")
	}
	if !c.Submit().Passed {
		t.Error("resubmission should pass after correction")
	}
}

func TestSelectAnswer(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		value   string
		wantErr error
	}{
		{"not current", 1, "a", ErrNotCurrent},
		{"unknown choice", 0, "z", ErrUnknownChoice},
		{"valid", 0, "c", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(twoChoiceData())
			err := c.SelectAnswer(tt.index, tt.value)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			_, stored := c.State().Answers[0]
			if stored != (tt.wantErr == nil) {
				t.Errorf("answer stored = %v", stored)
			}
		})
	}
}

func TestSelectEmptyRemovesAnswer(t *testing.T) {
	c := New(Data{Quiz: &RawQuestion{Type: "writing", Answer: "x"}})
	_ = c.SelectAnswer(0, "x")
	_ = c.SelectAnswer(0, "   ")

	if _, ok := c.State().Answers[0]; ok {
		t.Error("blank writing answer should remove the entry")
	}
}

func TestNavigateClamps(t *testing.T) {
	c := New(twoChoiceData())
	c.Navigate(Prev)
	if got := c.State().Current; got != 0 {
		t.Errorf("prev at start: current = %d", got)
	}
	c.Navigate(Next)
	c.Navigate(Next)
	if got := c.State().Current; got != 1 {
		t.Errorf("next at end: current = %d", got)
	}
	v := c.View()
	if v.PrevDisabled || !v.NextDisabled {
		t.Errorf("prev disabled = %v, next disabled = %v", v.PrevDisabled, v.NextDisabled)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := NewState(twoChoiceData())
	next := Apply(s, Select{Index: 0, Value: "a"})

	if len(s.Answers) != 0 {
		t.Errorf("input answers mutated: %v", s.Answers)
	}
	if next.Answers[0] != "a" {
		t.Errorf("next answers = %v", next.Answers)
	}
}

func TestIndependentControllers(t *testing.T) {
	a := New(twoChoiceData())
	b := New(twoChoiceData())
	_ = a.SelectAnswer(0, "a")

	if len(b.State().Answers) != 0 {
		t.Error("controllers share state")
	}
}

func TestEmptyPractice(t *testing.T) {
	c := New(Data{})
	if !c.Empty() {
		t.Fatal("expected empty controller")
	}
	if err := c.SelectAnswer(0, "a"); err != ErrNoQuestions {
		t.Errorf("err = %v", err)
	}
	if res := c.Submit(); res.Graded {
		t.Errorf("result = %+v", res)
	}
	if !c.View().Empty {
		t.Error("view should be empty")
	}
}
