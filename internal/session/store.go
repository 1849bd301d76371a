package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tamirka/ainario/internal/studio"
)

// ErrBusy is returned when a generation is started while another one runs.
var ErrBusy = errors.New("a generation is already running")

type Session struct {
	Key    string
	View   studio.View
	Result *studio.Result
	// Errors holds the lines of the single active error, if any.
	Errors       []string
	LastActivity time.Time
}

type Options struct {
	TTL time.Duration
}

type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get returns a copy of the session for key; unknown keys are Idle.
func (s *Store) Get(key string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

// Begin moves the session into Saving. A session already saving yields ErrBusy.
func (s *Store) Begin(key string) (Session, error) {
	sess, err := s.Apply(key, studio.EventStart, nil)
	if errors.Is(err, studio.ErrIllegalTransition) && sess.View == studio.Saving {
		return sess, ErrBusy
	}
	return sess, err
}

func (s *Store) Succeed(key string, result studio.Result) (Session, error) {
	return s.Apply(key, studio.EventSucceed, func(sess *Session) {
		sess.Result = &result
		sess.Errors = nil
	})
}

func (s *Store) Fail(key string, lines []string) (Session, error) {
	return s.Apply(key, studio.EventFail, func(sess *Session) {
		sess.Result = nil
		sess.Errors = append([]string(nil), lines...)
	})
}

func (s *Store) Dismiss(key string) (Session, error) {
	return s.Apply(key, studio.EventDismiss, func(sess *Session) {
		sess.Errors = nil
	})
}

// Apply runs one state machine event and, if it is legal, mutate on the new session.
func (s *Store) Apply(key string, event studio.Event, mutate func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked(key)
	next, err := sess.View.Transition(event)
	if err != nil {
		return sess, fmt.Errorf("session %s: %w", key, err)
	}
	sess.View = next
	sess.LastActivity = time.Now()
	if next == studio.Saving {
		// A new action discards the previous outcome.
		sess.Result = nil
		sess.Errors = nil
	}
	if mutate != nil {
		mutate(&sess)
	}
	s.cache.Set(key, sess, s.ttl)
	return sess, nil
}

// Reset forgets the session entirely.
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(key)
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func (s *Store) getLocked(key string) Session {
	if v, ok := s.cache.Get(key); ok {
		return v.(Session)
	}
	return Session{Key: key, View: studio.Idle}
}
