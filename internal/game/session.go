// Package game owns the live trivia session core: the per-session stage
// machine, scoring, question resolution, scoreboards and the registry of
// running sessions. Each session is a single serialized actor: one mutex
// guards all mutation, whether it comes from a connection, the router or the
// auto-advance timer. Outbound sends never block the actor; the transport
// buffers per connection and preserves per-connection ordering.
package game

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/protocol"
)

// Stage is the lifecycle phase of a session.
type Stage string

const (
	StageLobby          Stage = "LOBBY"
	StageQuestionActive Stage = "QUESTION_ACTIVE"
	StageLeaderboard    Stage = "LEADERBOARD"
	StageFinished       Stage = "FINISHED"
)

// Config tunes session pacing and scoring.
type Config struct {
	// AutoAdvanceDelay is how long the leaderboard stays up before the game
	// advances on its own.
	AutoAdvanceDelay time.Duration
	// BasePoints is the score for an instantaneous correct answer.
	BasePoints int
	// CodeLength is the game code length minted by the registry.
	CodeLength int
}

func (c Config) withDefaults() Config {
	if c.AutoAdvanceDelay <= 0 {
		c.AutoAdvanceDelay = 5 * time.Second
	}
	if c.BasePoints <= 0 {
		c.BasePoints = DefaultBasePoints
	}
	if c.CodeLength <= 0 {
		c.CodeLength = 4
	}
	return c
}

// Player is one joined participant's mutable state.
type Player struct {
	Nickname     string
	Score        int
	HasAnswered  bool
	LastAnswerAt time.Time

	// seq fixes the encounter order used to break scoreboard ties.
	seq int
}

// Session is one running game, identified by a short code. All fields behind
// mu; mutation happens only through the exported operations and the timer.
type Session struct {
	code     string
	registry *Registry
	cfg      Config
	log      *slog.Logger
	now      func() time.Time

	mu                sync.Mutex
	stage             Stage
	quiz              *domain.Quiz
	questionIndex     int
	questionStartedAt time.Time
	correctOptionID   string
	players           map[string]*Player
	conns             map[string]Conn
	hostID            string
	answers           map[string]domain.AnswerRecord
	joinSeq           int
	advanceGen        uint64
}

func newSession(code string, registry *Registry, cfg Config) *Session {
	return &Session{
		code:          code,
		registry:      registry,
		cfg:           cfg,
		log:           slog.Default().With("game", code),
		now:           time.Now,
		stage:         StageLobby,
		questionIndex: -1,
		players:       make(map[string]*Player),
		conns:         make(map[string]Conn),
		answers:       make(map[string]domain.AnswerRecord),
	}
}

// Code returns the session's game code.
func (s *Session) Code() string { return s.code }

// Stage returns the current lifecycle stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// IsMember reports whether the connection has successfully joined.
func (s *Session) IsMember(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.players[connID]
	return ok
}

// Join registers a participant. Guards, in order: non-empty nickname, lobby
// stage, nickname uniqueness (case-insensitive); each failure closes the
// connection with a policy-violation code. A connection that already joined
// gets an informational error and stays open. The first successful joiner
// becomes host.
func (s *Session) Join(conn Conn, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		s.sendTo(conn, protocol.Error("nickname must not be empty", ""))
		conn.Close(ClosePolicyViolation, "empty nickname")
		return
	}
	if s.stage != StageLobby {
		s.sendTo(conn, protocol.Error("the game has already started", ""))
		conn.Close(ClosePolicyViolation, "game already started")
		return
	}
	if s.nicknameTakenLocked(nickname) {
		s.sendTo(conn, protocol.Error("nickname already in use", ""))
		conn.Close(ClosePolicyViolation, "nickname in use")
		return
	}
	if _, ok := s.players[conn.ID()]; ok {
		s.sendTo(conn, protocol.Error("you already joined this game", ""))
		return
	}

	s.joinSeq++
	s.players[conn.ID()] = &Player{Nickname: nickname, seq: s.joinSeq}
	s.conns[conn.ID()] = conn

	var welcome string
	if s.hostID == "" {
		s.hostID = conn.ID()
		welcome = "You are the host of game " + s.code + ". Waiting for players..."
		s.log.Info("host assigned", "nickname", nickname)
	} else {
		welcome = "Welcome to game " + s.code + ", " + nickname + "! Waiting for the host."
	}

	count := s.playerCountLocked()
	s.sendTo(conn, protocol.Message{Type: protocol.TypeJoinAck, Payload: protocol.JoinAckPayload{
		Nickname:    nickname,
		Message:     welcome,
		PlayerCount: count,
	}})
	s.broadcastLocked(protocol.Message{Type: protocol.TypeParticipantJoined, Payload: protocol.ParticipantJoinedPayload{
		Nickname:    nickname,
		PlayerCount: count,
	}}, conn.ID())

	s.log.Info("participant joined", "nickname", nickname, "players", count, "connections", len(s.conns))
}

// AuthorizeQuizLoad checks that the sender may load quiz content right now
// (host, lobby). On failure it reports to the sender and returns false.
func (s *Session) AuthorizeQuizLoad(conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorizeQuizLoadLocked(conn)
}

func (s *Session) authorizeQuizLoadLocked(conn Conn) bool {
	if conn.ID() != s.hostID {
		s.sendTo(conn, protocol.Error("only the host can load quiz content", ""))
		return false
	}
	if s.stage != StageLobby {
		s.sendTo(conn, protocol.Error("quiz content cannot be loaded once the game has started", ""))
		return false
	}
	return true
}

// LoadQuizData validates and attaches quiz content to the session and
// acknowledges to the host. Sender must be host and the session in lobby.
func (s *Session) LoadQuizData(conn Conn, quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authorizeQuizLoadLocked(conn) {
		return
	}
	if err := quiz.Validate(); err != nil {
		s.log.Warn("rejected quiz content", "err", err)
		s.sendTo(conn, protocol.Error("invalid quiz format: "+err.Error(), ""))
		return
	}

	s.quiz = &quiz
	s.log.Info("quiz loaded", "title", quiz.Title, "questions", len(quiz.Questions))
	s.sendTo(conn, protocol.Message{Type: protocol.TypeQuizLoadedAck, Payload: protocol.QuizLoadedAckPayload{
		Title:         quiz.Title,
		QuestionCount: len(quiz.Questions),
	}})
}

// Start begins the game: host only, from lobby, with quiz content present and
// at least one competitor. On success the first question goes out immediately
// after the start notice; per-connection ordering keeps them in sequence.
func (s *Session) Start(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.ID() != s.hostID {
		s.sendTo(conn, protocol.Error("only the host can start the game", ""))
		return
	}
	if s.stage != StageLobby {
		s.sendTo(conn, protocol.Error("the game is not waiting to start", ""))
		return
	}
	if s.playerCountLocked() == 0 {
		s.sendTo(conn, protocol.Error("not enough players (besides the host) to start", ""))
		return
	}
	if s.quiz == nil || len(s.quiz.Questions) == 0 {
		s.log.Error("start requested with no quiz content")
		s.sendTo(conn, protocol.Error("no quiz content has been loaded", ""))
		return
	}

	s.log.Info("game starting", "title", s.quiz.Title)
	s.questionIndex = 0
	s.broadcastLocked(protocol.Message{Type: protocol.TypeGameStarted}, "")
	s.sendQuestionLocked()
}

// SubmitAnswer scores a player's answer to the active question. Out-of-stage,
// unknown-sender, host and duplicate submissions are dropped with a log line;
// duplicate answers never change a score. The result goes back privately;
// nothing is broadcast until the leaderboard stage.
func (s *Session) SubmitAnswer(conn Conn, optionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageQuestionActive {
		s.log.Warn("answer outside active question, ignoring", "stage", s.stage)
		return
	}
	if conn.ID() == s.hostID {
		s.log.Warn("host attempted to submit an answer, ignoring")
		return
	}
	player, ok := s.players[conn.ID()]
	if !ok {
		s.log.Error("answer from unknown connection, ignoring", "conn", conn.ID())
		return
	}
	if player.HasAnswered {
		s.log.Warn("duplicate answer, ignoring", "nickname", player.Nickname, "question", s.questionIndex)
		return
	}

	if s.correctOptionID == "" {
		s.log.Error("missing cached correct option id while scoring", "question", s.questionIndex)
		s.sendTo(conn, protocol.Error("internal server error (no correct answer recorded)", ""))
		return
	}
	if s.questionStartedAt.IsZero() {
		s.log.Error("missing question start time while scoring", "question", s.questionIndex)
		s.sendTo(conn, protocol.Error("internal server error (invalid question timing)", ""))
		return
	}

	received := s.now()
	player.HasAnswered = true
	player.LastAnswerAt = received

	isCorrect := optionID == s.correctOptionID
	points := 0
	if isCorrect {
		if received.Before(s.questionStartedAt) {
			s.log.Warn("answer timestamp precedes question start, awarding 0",
				"nickname", player.Nickname)
		} else {
			points = Points(s.questionStartedAt, received, s.currentTimeLimitLocked(), s.cfg.BasePoints)
		}
	}
	player.Score += points

	s.answers[player.Nickname] = domain.AnswerRecord{
		PlayerNickname:   player.Nickname,
		SelectedOptionID: optionID,
		ReceivedAt:       received,
		PointsAwarded:    points,
		IsCorrect:        isCorrect,
	}

	rank := 0
	for _, entry := range s.playerScoreboardLocked() {
		if entry.Nickname == player.Nickname {
			rank = entry.Rank
			break
		}
	}

	s.sendTo(conn, protocol.Message{Type: protocol.TypeAnswerResult, Payload: protocol.AnswerResultPayload{
		IsCorrect:       isCorrect,
		CorrectAnswerID: s.correctOptionID,
		PointsAwarded:   points,
		CurrentScore:    player.Score,
		CurrentRank:     rank,
	}})

	s.log.Info("answer scored", "nickname", player.Nickname, "question", s.questionIndex+1,
		"correct", isCorrect, "points", points, "total", player.Score, "rank", rank)
}

// Advance handles the host's next_question request. From an active question
// it forces the leaderboard; while the leaderboard is showing it is a no-op
// because a pending timer already owns the transition; anywhere else it is a
// stage mismatch.
func (s *Session) Advance(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.ID() != s.hostID {
		s.sendTo(conn, protocol.Error("only the host can control game progress", ""))
		return
	}

	switch s.stage {
	case StageQuestionActive:
		s.log.Info("host advanced to leaderboard")
		s.advanceLocked()
	case StageLeaderboard:
		s.log.Info("advance requested during leaderboard, auto-advance timer is authoritative")
	default:
		s.sendTo(conn, protocol.Error("cannot advance from the current stage ("+string(s.stage)+")", ""))
	}
}

// End handles the host's end_game request; ending an already finished game is
// a no-op.
func (s *Session) End(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.ID() != s.hostID {
		s.sendTo(conn, protocol.Error("only the host can end the game", ""))
		return
	}
	s.log.Info("host ended the game")
	s.finishLocked()
}

// Disconnect detaches a connection: roster and host bookkeeping, a
// participant_left notice when a competitor leaves mid-game, game teardown
// when the host leaves, and registry removal once nobody is attached. The
// host-triggered game over runs detached so this handler never waits on it.
func (s *Session) Disconnect(conn Conn) {
	s.mu.Lock()

	id := conn.ID()
	delete(s.conns, id)
	player, wasPlayer := s.players[id]
	delete(s.players, id)

	wasHost := wasPlayer && id == s.hostID
	nickname := "unknown"
	if wasPlayer {
		nickname = player.Nickname
	}

	if wasPlayer && !wasHost && s.stage != StageFinished {
		s.broadcastLocked(protocol.Message{Type: protocol.TypeParticipantLeft, Payload: protocol.ParticipantLeftPayload{
			Nickname:    nickname,
			PlayerCount: s.playerCountLocked(),
		}}, "")
	}

	if wasHost {
		s.hostID = ""
		if s.stage != StageFinished {
			s.log.Warn("host disconnected, ending game", "nickname", nickname)
			s.broadcastLocked(protocol.Error("the host has disconnected; the game will end", protocol.CodeHostDisconnected), "")
			go s.gameOver()
		}
	}

	empty := len(s.conns) == 0
	s.log.Info("participant disconnected", "nickname", nickname, "wasHost", wasHost, "remaining", len(s.conns))
	s.mu.Unlock()

	if empty {
		s.registry.remove(s.code)
	}
}

// gameOver is the detached entry point into the finish path.
func (s *Session) gameOver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

// --- internals (callers hold s.mu) ---

// advanceLocked performs one stage transition: active question -> leaderboard
// (broadcast standings, arm the timer), or leaderboard -> next question / end.
func (s *Session) advanceLocked() {
	switch s.stage {
	case StageQuestionActive:
		s.stage = StageLeaderboard
		s.broadcastLocked(protocol.Message{Type: protocol.TypeUpdateScoreboard, Payload: protocol.UpdateScoreboardPayload{
			Scoreboard: s.playerScoreboardLocked(),
		}}, "")
		s.scheduleAutoAdvanceLocked()
	case StageLeaderboard:
		if s.quiz == nil {
			s.log.Error("cannot advance: quiz content missing")
			s.finishLocked()
			return
		}
		s.questionIndex++
		if s.questionIndex < len(s.quiz.Questions) {
			s.sendQuestionLocked()
		} else {
			s.log.Info("no more questions, ending game")
			s.finishLocked()
		}
	default:
		s.log.Error("advance requested from unexpected stage", "stage", s.stage)
	}
}

// sendQuestionLocked resolves and broadcasts the question at the current
// index. An out-of-range index is the natural end of the quiz; a resolution
// failure is a data defect. Either way the game finishes instead of stalling.
func (s *Session) sendQuestionLocked() {
	if s.quiz == nil || s.questionIndex < 0 || s.questionIndex >= len(s.quiz.Questions) {
		s.finishLocked()
		return
	}

	question, err := ResolveQuestion(s.quiz.Questions[s.questionIndex], s.log)
	if err != nil {
		s.log.Error("unusable question, ending game", "index", s.questionIndex, "err", err)
		s.finishLocked()
		return
	}

	s.stage = StageQuestionActive
	s.correctOptionID = question.CorrectOptionID
	s.questionStartedAt = s.now()
	s.answers = make(map[string]domain.AnswerRecord)
	for _, p := range s.players {
		p.HasAnswered = false
	}

	payload := protocol.NewQuestionPayload{
		QuestionID:       question.ID,
		QuestionText:     question.Text,
		Options:          question.Options,
		TimeLimitSeconds: question.TimeLimitSecs,
		QuestionNumber:   s.questionIndex + 1,
		TotalQuestions:   len(s.quiz.Questions),
	}
	s.log.Info("sending question", "number", payload.QuestionNumber, "total", payload.TotalQuestions)
	s.broadcastLocked(protocol.Message{Type: protocol.TypeNewQuestion, Payload: payload}, "")
}

// scheduleAutoAdvanceLocked arms the delayed leaderboard exit. Each
// leaderboard entry bumps a generation counter the timer re-checks on wake,
// together with the registry lookup and stage check, so a stale timer can
// never advance a session that moved on (or ended) without it.
func (s *Session) scheduleAutoAdvanceLocked() {
	s.advanceGen++
	gen := s.advanceGen
	code := s.code
	registry := s.registry
	s.log.Info("auto-advance scheduled", "delay", s.cfg.AutoAdvanceDelay)

	time.AfterFunc(s.cfg.AutoAdvanceDelay, func() {
		sess, ok := registry.Get(code)
		if !ok {
			return
		}
		sess.autoAdvance(gen)
	})
}

func (s *Session) autoAdvance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageLeaderboard || gen != s.advanceGen {
		s.log.Info("auto-advance aborted", "stage", s.stage)
		return
	}
	s.log.Info("auto-advance firing")
	s.advanceLocked()
}

// finishLocked moves the session to FINISHED (idempotently) and sends each
// attached connection its personalized game-over: competitors get the podium
// plus their own final rank and score, the host gets the podium only.
func (s *Session) finishLocked() {
	if s.stage == StageFinished {
		s.log.Warn("game already finished, ignoring duplicate finish")
		return
	}
	s.stage = StageFinished

	board := s.playerScoreboardLocked()
	podium := board
	if len(podium) > 3 {
		podium = podium[:3]
	}

	ranks := make(map[string]int, len(board))
	scores := make(map[string]int, len(board))
	for _, entry := range board {
		ranks[entry.Nickname] = entry.Rank
		scores[entry.Nickname] = entry.Score
	}

	s.log.Info("game over", "podium", len(podium))
	for id, conn := range s.conns {
		payload := protocol.GameOverPayload{Podium: podium}
		if id != s.hostID {
			player, ok := s.players[id]
			if !ok {
				s.log.Warn("skipping game_over for unregistered connection", "conn", id)
				continue
			}
			rank := ranks[player.Nickname]
			score := scores[player.Nickname]
			payload.MyFinalRank = &rank
			payload.MyFinalScore = &score
		}
		s.sendTo(conn, protocol.Message{Type: protocol.TypeGameOver, Payload: payload})
	}
}

// broadcastLocked fans a message out to every attached connection except
// excludeID. A failed send is logged and never stops delivery to the rest;
// dead connections are cleaned up by the disconnect path, not here.
func (s *Session) broadcastLocked(msg protocol.Message, excludeID string) {
	for id, conn := range s.conns {
		if id == excludeID {
			continue
		}
		if err := conn.Send(msg); err != nil {
			s.log.Warn("broadcast send failed", "conn", id, "type", msg.Type, "err", err)
		}
	}
}

func (s *Session) sendTo(conn Conn, msg protocol.Message) {
	if err := conn.Send(msg); err != nil {
		s.log.Warn("send failed", "conn", conn.ID(), "type", msg.Type, "err", err)
	}
}

// playerCountLocked counts competitors (everyone in the roster but the host).
func (s *Session) playerCountLocked() int {
	n := 0
	for id := range s.players {
		if id != s.hostID {
			n++
		}
	}
	return n
}

func (s *Session) nicknameTakenLocked(nickname string) bool {
	for _, p := range s.players {
		if strings.EqualFold(p.Nickname, nickname) {
			return true
		}
	}
	return false
}

func (s *Session) currentTimeLimitLocked() time.Duration {
	if s.quiz != nil && s.questionIndex >= 0 && s.questionIndex < len(s.quiz.Questions) {
		return s.quiz.Questions[s.questionIndex].TimeLimit()
	}
	// Scoring must not fail outright when the quiz went away mid-round.
	s.log.Warn("time limit unavailable for current question, using fallback", "index", s.questionIndex)
	return 30 * time.Second
}
