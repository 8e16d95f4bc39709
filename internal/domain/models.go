package domain

import (
	"fmt"
	"time"
)

// Option is one answer choice inside raw quiz content. IDs are optional in
// stored content; the game assigns stable ones before a question is played.
type Option struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a timed multiple-choice question as stored or uploaded by a host.
type Question struct {
	ID               string   `json:"id,omitempty"`
	Text             string   `json:"text"`
	Options          []Option `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// TimeLimit returns the answering window, falling back to the default when
// the stored value is zero.
func (q Question) TimeLimit() time.Duration {
	if q.TimeLimitSeconds <= 0 {
		return time.Duration(DefaultTimeLimitSeconds) * time.Second
	}
	return time.Duration(q.TimeLimitSeconds) * time.Second
}

// Quiz is an ordered question set with a title.
type Quiz struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

const (
	MinOptions              = 2
	MaxOptions              = 4
	MinTimeLimitSeconds     = 5
	MaxTimeLimitSeconds     = 120
	DefaultTimeLimitSeconds = 20
)

// Validate checks quiz content against the bounds the game relies on:
// a title, at least one question, 2-4 options each and a 5-120s time limit.
// A zero time limit is allowed and means "use the default".
func (q Quiz) Validate() error {
	if q.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if question.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuiz, i+1)
		}
		if n := len(question.Options); n < MinOptions || n > MaxOptions {
			return fmt.Errorf("%w: question %d has %d options, want %d-%d", ErrInvalidQuiz, i+1, n, MinOptions, MaxOptions)
		}
		for j, opt := range question.Options {
			if opt.Text == "" {
				return fmt.Errorf("%w: question %d option %d has no text", ErrInvalidQuiz, i+1, j+1)
			}
		}
		if tl := question.TimeLimitSeconds; tl != 0 && (tl < MinTimeLimitSeconds || tl > MaxTimeLimitSeconds) {
			return fmt.Errorf("%w: question %d time limit %ds outside %d-%ds", ErrInvalidQuiz, i+1, tl, MinTimeLimitSeconds, MaxTimeLimitSeconds)
		}
	}
	return nil
}

// ScoreboardEntry is one ranked row of a session scoreboard.
type ScoreboardEntry struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// AnswerRecord captures a player's single answer to the current question.
// Records are immutable once written; at most one exists per player per round.
type AnswerRecord struct {
	PlayerNickname   string    `json:"playerNickname"`
	SelectedOptionID string    `json:"selectedOptionId"`
	ReceivedAt       time.Time `json:"receivedAt"`
	PointsAwarded    int       `json:"pointsAwarded"`
	IsCorrect        bool      `json:"isCorrect"`
}
