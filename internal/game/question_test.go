package game

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"quizhub/internal/domain"
)

func TestResolveQuestionAssignsMissingIDs(t *testing.T) {
	q := domain.Question{
		Text: "Pick one",
		Options: []domain.Option{
			{Text: "A", IsCorrect: true},
			{Text: "B"},
		},
		TimeLimitSeconds: 15,
	}

	resolved, err := ResolveQuestion(q, slog.Default())
	require.NoError(t, err)
	require.NotEmpty(t, resolved.ID)
	require.Len(t, resolved.Options, 2)
	require.NotEmpty(t, resolved.Options[0].ID)
	require.NotEmpty(t, resolved.Options[1].ID)
	require.NotEqual(t, resolved.Options[0].ID, resolved.Options[1].ID)
	require.Equal(t, resolved.Options[0].ID, resolved.CorrectOptionID)
	require.Equal(t, 15, resolved.TimeLimitSecs)
}

func TestResolveQuestionDeduplicatesCollidingIDs(t *testing.T) {
	q := domain.Question{
		ID:   "q1",
		Text: "Pick one",
		Options: []domain.Option{
			{ID: "dup", Text: "A"},
			{ID: "dup", Text: "B", IsCorrect: true},
		},
	}

	resolved, err := ResolveQuestion(q, slog.Default())
	require.NoError(t, err)
	require.Equal(t, "dup", resolved.Options[0].ID)
	require.NotEqual(t, "dup", resolved.Options[1].ID)
	require.Equal(t, resolved.Options[1].ID, resolved.CorrectOptionID)
}

func TestResolveQuestionKeepsFirstOfMultipleCorrect(t *testing.T) {
	q := domain.Question{
		ID:   "q1",
		Text: "Pick one",
		Options: []domain.Option{
			{ID: "a", Text: "A", IsCorrect: true},
			{ID: "b", Text: "B", IsCorrect: true},
		},
	}

	resolved, err := ResolveQuestion(q, slog.Default())
	require.NoError(t, err)
	require.Equal(t, "a", resolved.CorrectOptionID)
}

func TestResolveQuestionFailsWithoutCorrectOption(t *testing.T) {
	q := domain.Question{
		ID:   "q1",
		Text: "Pick one",
		Options: []domain.Option{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B"},
		},
	}

	_, err := ResolveQuestion(q, slog.Default())
	require.ErrorIs(t, err, domain.ErrNoCorrectOption)
}

func TestResolveQuestionDefaultsTimeLimit(t *testing.T) {
	q := domain.Question{
		ID:   "q1",
		Text: "Pick one",
		Options: []domain.Option{
			{ID: "a", Text: "A", IsCorrect: true},
			{ID: "b", Text: "B"},
		},
	}

	resolved, err := ResolveQuestion(q, slog.Default())
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTimeLimitSeconds, resolved.TimeLimitSecs)
}
