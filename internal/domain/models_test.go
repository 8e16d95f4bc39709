package domain

import (
	"errors"
	"testing"
	"time"
)

func validQuiz() Quiz {
	return Quiz{
		ID:    "capitals",
		Title: "Capitals",
		Questions: []Question{
			{
				ID:   "q1",
				Text: "Capital of France?",
				Options: []Option{
					{ID: "a", Text: "Paris", IsCorrect: true},
					{ID: "b", Text: "Lyon"},
				},
				TimeLimitSeconds: 20,
			},
		},
	}
}

func TestQuizValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Quiz)
		ok     bool
	}{
		{"valid quiz", func(q *Quiz) {}, true},
		{"zero time limit means default", func(q *Quiz) { q.Questions[0].TimeLimitSeconds = 0 }, true},
		{"four options allowed", func(q *Quiz) {
			q.Questions[0].Options = append(q.Questions[0].Options, Option{ID: "c", Text: "Nice"}, Option{ID: "d", Text: "Lille"})
		}, true},
		{"missing title", func(q *Quiz) { q.Title = "" }, false},
		{"no questions", func(q *Quiz) { q.Questions = nil }, false},
		{"question without text", func(q *Quiz) { q.Questions[0].Text = "" }, false},
		{"single option", func(q *Quiz) { q.Questions[0].Options = q.Questions[0].Options[:1] }, false},
		{"five options", func(q *Quiz) {
			q.Questions[0].Options = append(q.Questions[0].Options,
				Option{ID: "c", Text: "Nice"}, Option{ID: "d", Text: "Lille"}, Option{ID: "e", Text: "Nantes"})
		}, false},
		{"option without text", func(q *Quiz) { q.Questions[0].Options[1].Text = "" }, false},
		{"time limit too short", func(q *Quiz) { q.Questions[0].TimeLimitSeconds = 3 }, false},
		{"time limit too long", func(q *Quiz) { q.Questions[0].TimeLimitSeconds = 180 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quiz := validQuiz()
			tc.mutate(&quiz)
			err := quiz.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected a validation error")
				}
				if !errors.Is(err, ErrInvalidQuiz) {
					t.Fatalf("expected ErrInvalidQuiz, got %v", err)
				}
			}
		})
	}
}

func TestQuestionTimeLimitFallback(t *testing.T) {
	q := Question{TimeLimitSeconds: 0}
	if got := q.TimeLimit(); got != time.Duration(DefaultTimeLimitSeconds)*time.Second {
		t.Fatalf("expected default time limit, got %v", got)
	}
	q.TimeLimitSeconds = 45
	if got := q.TimeLimit(); got != 45*time.Second {
		t.Fatalf("expected 45s, got %v", got)
	}
}
