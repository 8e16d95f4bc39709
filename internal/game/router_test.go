package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizhub/internal/domain"
	"quizhub/internal/protocol"
)

type fakeQuizRepo struct {
	quizzes map[string]domain.Quiz
	calls   int
}

func (f *fakeQuizRepo) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	f.calls++
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func dispatch(t *testing.T, router *Router, sess *Session, conn Conn, msgType protocol.Type, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	env, err := json.Marshal(map[string]json.RawMessage{
		"type":    json.RawMessage(`"` + string(msgType) + `"`),
		"payload": raw,
	})
	require.NoError(t, err)
	router.Dispatch(context.Background(), sess, conn, env)
}

func TestDispatchRejectsMalformedJSON(t *testing.T) {
	_, sess := newGame(t, Config{})
	router := NewRouter(nil)

	c := newTestConn("c1")
	router.Dispatch(context.Background(), sess, c, []byte("{not json"))

	closed, code := c.closedWith()
	require.True(t, closed)
	require.Equal(t, CloseUnsupportedData, code)
	require.Equal(t, 1, c.count(protocol.TypeError))
}

func TestDispatchRequiresJoinFirst(t *testing.T) {
	_, sess := newGame(t, Config{})
	router := NewRouter(nil)

	c := newTestConn("c1")
	dispatch(t, router, sess, c, protocol.TypeStartGame, struct{}{})

	closed, code := c.closedWith()
	require.True(t, closed)
	require.Equal(t, CloseUnsupportedData, code)
}

func TestDispatchJoin(t *testing.T) {
	_, sess := newGame(t, Config{})
	router := NewRouter(nil)

	c := newTestConn("c1")
	dispatch(t, router, sess, c, protocol.TypeJoin, protocol.JoinPayload{Nickname: "Host"})

	require.True(t, sess.IsMember(c.ID()))
	require.Equal(t, 1, c.count(protocol.TypeJoinAck))
}

func TestDispatchUnknownType(t *testing.T) {
	_, sess := newGame(t, Config{})
	router := NewRouter(nil)
	host, _ := lobbyWith(t, sess)

	dispatch(t, router, sess, host, protocol.Type("teleport"), struct{}{})

	closed, _ := host.closedWith()
	require.False(t, closed)
	msg, ok := host.last(protocol.TypeError)
	require.True(t, ok)
	require.Contains(t, msg.Payload.(protocol.ErrorPayload).Message, "unknown message type")
}

func TestDispatchLoadQuizData(t *testing.T) {
	_, sess := newGame(t, Config{})
	router := NewRouter(nil)
	host, _ := lobbyWith(t, sess, "Alice")

	dispatch(t, router, sess, host, protocol.TypeLoadQuizData, capitalsQuiz())
	require.Equal(t, 1, host.count(protocol.TypeQuizLoadedAck))
}

func TestDispatchLoadStoredQuiz(t *testing.T) {
	repo := &fakeQuizRepo{quizzes: map[string]domain.Quiz{"capitals": capitalsQuiz()}}
	router := NewRouter(repo)

	t.Run("host loads by id", func(t *testing.T) {
		_, sess := newGame(t, Config{})
		host, _ := lobbyWith(t, sess, "Alice")

		dispatch(t, router, sess, host, protocol.TypeLoadQuiz, protocol.LoadQuizPayload{QuizID: "capitals"})

		msg, ok := host.last(protocol.TypeQuizLoadedAck)
		require.True(t, ok)
		require.Equal(t, "Capitals", msg.Payload.(protocol.QuizLoadedAckPayload).Title)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		_, sess := newGame(t, Config{})
		host, _ := lobbyWith(t, sess, "Alice")

		dispatch(t, router, sess, host, protocol.TypeLoadQuiz, protocol.LoadQuizPayload{QuizID: "missing"})

		msg, ok := host.last(protocol.TypeError)
		require.True(t, ok)
		require.Contains(t, msg.Payload.(protocol.ErrorPayload).Message, "not found")
	})

	t.Run("non-host cannot probe the repository", func(t *testing.T) {
		_, sess := newGame(t, Config{})
		_, players := lobbyWith(t, sess, "Alice")
		before := repo.calls

		dispatch(t, router, sess, players[0], protocol.TypeLoadQuiz, protocol.LoadQuizPayload{QuizID: "capitals"})

		require.Equal(t, before, repo.calls)
		require.Equal(t, 1, players[0].count(protocol.TypeError))
	})

	t.Run("nil repository is reported, not a panic", func(t *testing.T) {
		_, sess := newGame(t, Config{})
		host, _ := lobbyWith(t, sess, "Alice")
		bare := NewRouter(nil)

		dispatch(t, bare, sess, host, protocol.TypeLoadQuiz, protocol.LoadQuizPayload{QuizID: "capitals"})

		msg, ok := host.last(protocol.TypeError)
		require.True(t, ok)
		require.Contains(t, msg.Payload.(protocol.ErrorPayload).Message, "not configured")
	})
}

func TestDispatchSubmitAnswerValidation(t *testing.T) {
	_, sess := newGame(t, Config{AutoAdvanceDelay: time.Hour})
	router := NewRouter(nil)
	host, players := lobbyWith(t, sess, "Alice")
	alice := players[0]

	sess.LoadQuizData(host, capitalsQuiz())
	sess.Start(host)

	dispatch(t, router, sess, alice, protocol.TypeSubmitAnswer, protocol.SubmitAnswerPayload{})
	msg, ok := alice.last(protocol.TypeError)
	require.True(t, ok)
	require.Contains(t, msg.Payload.(protocol.ErrorPayload).Message, "invalid answer payload")

	dispatch(t, router, sess, alice, protocol.TypeSubmitAnswer, protocol.SubmitAnswerPayload{AnswerID: currentCorrectID(sess)})
	require.Equal(t, 1, alice.count(protocol.TypeAnswerResult))
}

func TestDispatchFullGameFlow(t *testing.T) {
	_, sess := newGame(t, Config{AutoAdvanceDelay: time.Hour})
	router := NewRouter(nil)

	host := newTestConn("c-host")
	alice := newTestConn("c-alice")
	dispatch(t, router, sess, host, protocol.TypeJoin, protocol.JoinPayload{Nickname: "Host"})
	dispatch(t, router, sess, alice, protocol.TypeJoin, protocol.JoinPayload{Nickname: "Alice"})

	dispatch(t, router, sess, host, protocol.TypeLoadQuizData, capitalsQuiz())
	dispatch(t, router, sess, host, protocol.TypeStartGame, struct{}{})
	require.Equal(t, StageQuestionActive, sess.Stage())

	dispatch(t, router, sess, alice, protocol.TypeSubmitAnswer, protocol.SubmitAnswerPayload{AnswerID: currentCorrectID(sess)})
	require.Equal(t, 1, alice.count(protocol.TypeAnswerResult))

	dispatch(t, router, sess, host, protocol.TypeNextQuestion, struct{}{})
	require.Equal(t, StageLeaderboard, sess.Stage())
	require.Equal(t, 1, alice.count(protocol.TypeUpdateScoreboard))

	dispatch(t, router, sess, host, protocol.TypeEndGame, struct{}{})
	require.Equal(t, StageFinished, sess.Stage())
	require.Equal(t, 1, alice.count(protocol.TypeGameOver))
}
