package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates quiz content that fails validation bounds.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrNoCorrectOption indicates a question with no option flagged correct.
	// Such a question is unplayable and ends the round.
	ErrNoCorrectOption = errors.New("question has no correct option")
	// ErrCodeSpaceExhausted is returned when no unique game code could be
	// generated within the retry budget.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique game code")
)
