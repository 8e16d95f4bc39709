package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"quizhub/internal/domain"
	"quizhub/internal/protocol"
)

// QuizRepository loads stored quiz content (cache or backing store) for the
// load_quiz message.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Router maps a decoded inbound envelope plus the sender's standing in the
// session onto the right session operation. It enforces the closed message
// set: join must come first, unknown types are rejected, and a panic in a
// handler is contained at this boundary instead of killing the read loop.
type Router struct {
	quizzes QuizRepository
	log     *slog.Logger
}

func NewRouter(quizzes QuizRepository) *Router {
	return &Router{quizzes: quizzes, log: slog.Default()}
}

// Dispatch routes one raw frame from conn into sess. Malformed envelopes and
// pre-join traffic close the connection with an unsupported-data code; the
// actual teardown then flows through the transport's disconnect path.
func (r *Router) Dispatch(ctx context.Context, sess *Session, conn Conn, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic while handling message", "game", sess.Code(), "conn", conn.ID(), "panic", rec)
			if err := conn.Send(protocol.Error("internal server error while processing the message", "")); err != nil {
				r.log.Warn("could not report internal error", "conn", conn.ID(), "err", err)
			}
		}
	}()

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.log.Warn("malformed message envelope", "game", sess.Code(), "conn", conn.ID(), "err", err)
		_ = conn.Send(protocol.Error("invalid JSON message", ""))
		conn.Close(CloseUnsupportedData, "invalid JSON")
		return
	}

	if env.Type == protocol.TypeJoin {
		var payload protocol.JoinPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			_ = conn.Send(protocol.Error("invalid join payload", ""))
			return
		}
		sess.Join(conn, payload.Nickname)
		return
	}

	if !sess.IsMember(conn.ID()) {
		r.log.Warn("message before join", "game", sess.Code(), "conn", conn.ID(), "type", env.Type)
		_ = conn.Send(protocol.Error("you must join first", ""))
		conn.Close(CloseUnsupportedData, "join required")
		return
	}

	switch env.Type {
	case protocol.TypeLoadQuizData:
		var quiz domain.Quiz
		if err := json.Unmarshal(env.Payload, &quiz); err != nil {
			_ = conn.Send(protocol.Error("invalid quiz format", ""))
			return
		}
		sess.LoadQuizData(conn, quiz)

	case protocol.TypeLoadQuiz:
		var payload protocol.LoadQuizPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.QuizID == "" {
			_ = conn.Send(protocol.Error("invalid load_quiz payload", ""))
			return
		}
		r.loadStoredQuiz(ctx, sess, conn, payload.QuizID)

	case protocol.TypeStartGame:
		sess.Start(conn)

	case protocol.TypeSubmitAnswer:
		var payload protocol.SubmitAnswerPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.AnswerID == "" {
			_ = conn.Send(protocol.Error("invalid answer payload", ""))
			return
		}
		sess.SubmitAnswer(conn, payload.AnswerID)

	case protocol.TypeNextQuestion:
		sess.Advance(conn)

	case protocol.TypeEndGame:
		sess.End(conn)

	default:
		r.log.Warn("unknown message type", "game", sess.Code(), "conn", conn.ID(), "type", env.Type)
		_ = conn.Send(protocol.Error("unknown message type: '"+string(env.Type)+"'", ""))
	}
}

// loadStoredQuiz authorizes first so a non-host cannot probe the repository,
// then fetches by id and hands the content to the session, which re-checks
// the guards before attaching it.
func (r *Router) loadStoredQuiz(ctx context.Context, sess *Session, conn Conn, quizID string) {
	if !sess.AuthorizeQuizLoad(conn) {
		return
	}
	if r.quizzes == nil {
		_ = conn.Send(protocol.Error("quiz storage is not configured", ""))
		return
	}
	quiz, err := r.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			_ = conn.Send(protocol.Error("quiz '"+quizID+"' not found", ""))
			return
		}
		r.log.Error("quiz load failed", "game", sess.Code(), "quiz", quizID, "err", err)
		_ = conn.Send(protocol.Error("could not load quiz content", ""))
		return
	}
	sess.LoadQuizData(conn, quiz)
}
