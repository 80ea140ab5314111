// Package session holds per-conversation transcripts for the lifetime of the
// user's interaction. The store is bounded: idle sessions expire after the
// configured TTL, and the oldest session is evicted when capacity is reached.
package session

import (
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

const (
	defaultTTL         = 24 * time.Hour
	defaultMaxSessions = 1024
	sweepInterval      = 10 * time.Minute
)

type Config struct {
	TTL         time.Duration `split_words:"true" default:"24h"`
	MaxSessions int           `split_words:"true" default:"1024"`
}

// Session is one conversation: an ordered transcript plus the identity flag
// set by a successful insured identification. The pointer is shared between
// dispatch cycles for the same id; all access goes through the mutex.
type Session struct {
	ID string

	mu         sync.Mutex
	turns      []*schema.Message
	identified bool
	lastSeen   time.Time
}

// Append adds turns to the transcript in order.
func (s *Session) Append(msgs ...*schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, msgs...)
}

// Snapshot returns a copy of the transcript slice. The messages themselves
// are shared; callers must not mutate them.
func (s *Session) Snapshot() []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Message, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// MarkIdentified records a successful two-fact identity confirmation.
func (s *Session) MarkIdentified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identified = true
}

func (s *Session) Identified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identified
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store maps session ids to live conversations. Unrelated sessions never
// share a lock beyond the brief map access.
type Store struct {
	policy      string
	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

type StoreOption func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a store whose new sessions start with a single system turn
// carrying the policy text.
func NewStore(policy string, cfg Config, opts ...StoreOption) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}

	s := &Store{
		policy:      policy,
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*Session),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	go s.janitor()
	return s
}

// GetOrCreate returns the live session for id, creating and seeding it on
// first reference. Later calls return the same backing session so dispatch
// mutations stay visible.
func (s *Store) GetOrCreate(id string) *Session {
	now := s.now()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictOldestLocked()
		}
		sess = &Session{
			ID:       id,
			turns:    []*schema.Message{schema.SystemMessage(s.policy)},
			lastSeen: now,
		}
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	sess.touch(now)
	return sess
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// evictOldestLocked drops the least recently touched session. Caller holds mu.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		seen := sess.seen()
		if oldestID == "" || seen.Before(oldest) {
			oldestID = id
			oldest = seen
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
		log.Debug().Str("session_id", oldestID).Msg("session evicted at capacity")
	}
}

func (s *Store) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.seen().Before(cutoff) {
			delete(s.sessions, id)
			log.Debug().Str("session_id", id).Msg("session expired")
		}
	}
}
