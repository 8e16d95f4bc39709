package game

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"quizhub/internal/domain"
)

const (
	codeCharset         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeMintAttempts = 10
)

// Registry is the concurrency-safe map of game code to running session. It
// is the only state shared across sessions; everything else is private to
// one session's own lock.
type Registry struct {
	cfg Config
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg.withDefaults(),
		log:      slog.Default(),
		sessions: make(map[string]*Session),
	}
}

// Create mints a session under a fresh unique code. A code collision triggers
// a retry; running out of attempts means the code space is effectively full.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxCodeMintAttempts; attempt++ {
		code, err := randomCode(r.cfg.CodeLength)
		if err != nil {
			return nil, err
		}
		if _, taken := r.sessions[code]; taken {
			continue
		}
		sess := newSession(code, r, r.cfg)
		r.sessions[code] = sess
		r.log.Info("session created", "game", code, "active", len(r.sessions))
		return sess, nil
	}
	return nil, domain.ErrCodeSpaceExhausted
}

// Get looks a session up by code. Codes are human-entered, so lookup
// normalizes case and surrounding whitespace.
func (r *Registry) Get(code string) (*Session, bool) {
	code = NormalizeCode(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[code]
	return sess, ok
}

// Len reports the number of running sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[code]; !ok {
		return
	}
	delete(r.sessions, code)
	r.log.Info("session removed", "game", code, "active", len(r.sessions))
}

// NormalizeCode maps user input onto the canonical game-code form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(codeCharset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeCharset[n.Int64()]
	}
	return string(b), nil
}
