package game

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"quizhub/internal/domain"
	"quizhub/internal/protocol"
)

// Question is a resolved, playable question: every option has a unique id and
// exactly one option is recorded as correct.
type Question struct {
	ID              string
	Text            string
	Options         []protocol.QuestionOption
	CorrectOptionID string
	TimeLimitSecs   int
}

// ResolveQuestion turns raw question content into a playable Question.
// Options lacking an id, or colliding with an id already assigned within the
// same question, get a generated one. The first option flagged correct wins;
// additional flagged options are a data-quality defect that is logged but does
// not block resolution. No flagged option at all makes the question unusable.
func ResolveQuestion(q domain.Question, log *slog.Logger) (Question, error) {
	seen := make(map[string]struct{}, len(q.Options))
	options := make([]protocol.QuestionOption, 0, len(q.Options))
	correctID := ""

	for _, opt := range q.Options {
		id := opt.ID
		for id == "" || collides(id, seen) {
			id = "opt_" + shortID(6)
		}
		seen[id] = struct{}{}
		options = append(options, protocol.QuestionOption{ID: id, Text: opt.Text})

		if opt.IsCorrect {
			if correctID != "" {
				log.Error("multiple correct options flagged, keeping first",
					"question", q.Text, "kept", correctID)
				continue
			}
			correctID = id
		}
	}

	if correctID == "" {
		return Question{}, fmt.Errorf("resolve question %q: %w", q.Text, domain.ErrNoCorrectOption)
	}

	questionID := q.ID
	if questionID == "" {
		questionID = "q_" + shortID(8)
	}

	limit := q.TimeLimitSeconds
	if limit <= 0 {
		limit = domain.DefaultTimeLimitSeconds
	}

	return Question{
		ID:              questionID,
		Text:            q.Text,
		Options:         options,
		CorrectOptionID: correctID,
		TimeLimitSecs:   limit,
	}, nil
}

func collides(id string, seen map[string]struct{}) bool {
	_, ok := seen[id]
	return ok
}

// shortID returns n hex characters of a fresh UUID.
func shortID(n int) string {
	id := uuid.New()
	hex := fmt.Sprintf("%x", id[:])
	return hex[:n]
}
