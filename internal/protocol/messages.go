// Package protocol defines the closed set of websocket messages exchanged
// between participants and a game session. Every message travels inside the
// same envelope: {"type": string, "payload": object|null}. Anything outside
// this set is rejected at the boundary.
package protocol

import (
	"encoding/json"

	"quizhub/internal/domain"
)

type Type string

const (
	// Participant -> session
	TypeJoin         Type = "join"
	TypeLoadQuizData Type = "load_quiz_data"
	TypeLoadQuiz     Type = "load_quiz"
	TypeStartGame    Type = "start_game"
	TypeSubmitAnswer Type = "submit_answer"
	TypeNextQuestion Type = "next_question"
	TypeEndGame      Type = "end_game"

	// Session -> participant(s)
	TypeJoinAck           Type = "join_ack"
	TypeParticipantJoined Type = "participant_joined"
	TypeParticipantLeft   Type = "participant_left"
	TypeQuizLoadedAck     Type = "quiz_loaded_ack"
	TypeGameStarted       Type = "game_started"
	TypeNewQuestion       Type = "new_question"
	TypeAnswerResult      Type = "answer_result"
	TypeUpdateScoreboard  Type = "update_scoreboard"
	TypeGameOver          Type = "game_over"
	TypeError             Type = "error"
)

// Envelope is the inbound wire form; the payload stays raw until the router
// knows which shape to decode it into.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is the outbound wire form.
type Message struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// --- participant -> session payloads ---

type JoinPayload struct {
	Nickname string `json:"nickname"`
}

// LoadQuizPayload references stored quiz content by id; the session pulls it
// through the quiz repository.
type LoadQuizPayload struct {
	QuizID string `json:"quizId"`
}

type SubmitAnswerPayload struct {
	AnswerID string `json:"answerId"`
}

// --- session -> participant payloads ---

type JoinAckPayload struct {
	Nickname    string `json:"nickname"`
	Message     string `json:"message"`
	PlayerCount int    `json:"playerCount"`
}

type ParticipantJoinedPayload struct {
	Nickname    string `json:"nickname"`
	PlayerCount int    `json:"playerCount"`
}

type ParticipantLeftPayload struct {
	Nickname    string `json:"nickname"`
	PlayerCount int    `json:"playerCount"`
}

type QuizLoadedAckPayload struct {
	Title         string `json:"title"`
	QuestionCount int    `json:"questionCount"`
}

// QuestionOption is the sanitized option form sent to clients: id and text
// only, never the correct flag.
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type NewQuestionPayload struct {
	QuestionID       string           `json:"questionId"`
	QuestionText     string           `json:"questionText"`
	Options          []QuestionOption `json:"options"`
	TimeLimitSeconds int              `json:"timeLimitSeconds"`
	QuestionNumber   int              `json:"questionNumber"`
	TotalQuestions   int              `json:"totalQuestions"`
}

type AnswerResultPayload struct {
	IsCorrect       bool   `json:"isCorrect"`
	CorrectAnswerID string `json:"correctAnswerId"`
	PointsAwarded   int    `json:"pointsAwarded"`
	CurrentScore    int    `json:"currentScore"`
	CurrentRank     int    `json:"currentRank"`
}

type UpdateScoreboardPayload struct {
	Scoreboard []domain.ScoreboardEntry `json:"scoreboard"`
}

// GameOverPayload varies by role: competitors get their own final rank and
// score alongside the podium, the host gets the podium only.
type GameOverPayload struct {
	Podium       []domain.ScoreboardEntry `json:"podium"`
	MyFinalRank  *int                     `json:"myFinalRank,omitempty"`
	MyFinalScore *int                     `json:"myFinalScore,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Machine-readable error codes carried in ErrorPayload.Code.
const (
	CodeInvalidGameCode  = "INVALID_GAME_CODE"
	CodeHostDisconnected = "HOST_DISCONNECTED"
)

// Error builds an error message frame; code may be empty.
func Error(msg, code string) Message {
	return Message{Type: TypeError, Payload: ErrorPayload{Message: msg, Code: code}}
}
