package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/cache"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/llm"
	"github.com/TuanStark/english-learning-ai-assistant/pkg/logging"
)

const (
	historyKeyPrefix = "conversation_history:"
	counterKeyPrefix = "session_query_count:"

	// lockSweepThreshold bounds the per-session mutex map. Session ids are
	// caller supplied, so the map is swept once it outgrows this.
	lockSweepThreshold = 1024
)

// Config carries the two session TTLs. They are independent on purpose:
// conversation context goes stale within the hour, while the per-session
// query quota has to survive a full day so the cap cannot be reset by
// waiting out the history expiry.
type Config struct {
	HistoryTTL time.Duration
	CounterTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		HistoryTTL: time.Hour,
		CounterTTL: 24 * time.Hour,
	}
}

// Store keeps per-session conversation history and query counters in an
// ephemeral TTL cache. It also hands out per-session mutexes so callers
// can serialize read-modify-write cycles on the same session.
type Store struct {
	cache  *cache.Cache
	cfg    Config
	logger logging.Logger

	locks     sync.Map // sessionID -> *sync.Mutex
	lockCount atomic.Int64
}

func NewStore(c *cache.Cache, cfg Config, logger logging.Logger) *Store {
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = time.Hour
	}
	if cfg.CounterTTL <= 0 {
		cfg.CounterTTL = 24 * time.Hour
	}
	return &Store{cache: c, cfg: cfg, logger: logger}
}

// Lock acquires the mutex for sessionID and returns its unlock func.
func (s *Store) Lock(sessionID string) func() {
	value, loaded := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	if !loaded && s.lockCount.Add(1) > lockSweepThreshold {
		s.sweepLocks()
	}
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// sweepLocks drops free mutexes for sessions that have no cached state
// left. Such a session has nothing to serialize, so a fresh query racing
// the sweep just mints a new mutex.
func (s *Store) sweepLocks() {
	s.locks.Range(func(key, value interface{}) bool {
		id := key.(string)
		if s.hasState(id) {
			return true
		}
		mu := value.(*sync.Mutex)
		if mu.TryLock() {
			s.locks.Delete(id)
			s.lockCount.Add(-1)
			mu.Unlock()
		}
		return true
	})
}

func (s *Store) hasState(sessionID string) bool {
	if _, ok := s.cache.Peek(historyKeyPrefix + sessionID); ok {
		return true
	}
	_, ok := s.cache.Peek(counterKeyPrefix + sessionID)
	return ok
}

// History returns the stored conversation for the session, or an empty
// slice when nothing is cached.
func (s *Store) History(sessionID string) []llm.Message {
	value, ok := s.cache.Peek(historyKeyPrefix + sessionID)
	if !ok {
		return nil
	}
	history, ok := value.([]llm.Message)
	if !ok {
		if s.logger != nil {
			s.logger.WithField("session_id", sessionID).Warn("Dropping malformed conversation history")
		}
		s.cache.Delete(historyKeyPrefix + sessionID)
		return nil
	}
	return history
}

// SaveHistory stores the conversation, refreshing the history TTL.
func (s *Store) SaveHistory(sessionID string, history []llm.Message) {
	s.cache.Set(historyKeyPrefix+sessionID, history, s.cfg.HistoryTTL)
}

// ClearHistory drops the conversation but keeps the query counter.
func (s *Store) ClearHistory(sessionID string) {
	s.cache.Delete(historyKeyPrefix + sessionID)
}

// QueryCount returns how many queries the session has spent.
func (s *Store) QueryCount(sessionID string) int {
	value, ok := s.cache.Peek(counterKeyPrefix + sessionID)
	if !ok {
		return 0
	}
	count, ok := value.(int)
	if !ok {
		return 0
	}
	return count
}

// IncrementQueryCount bumps the counter and refreshes its TTL.
func (s *Store) IncrementQueryCount(sessionID string) int {
	count := s.QueryCount(sessionID) + 1
	s.cache.Set(counterKeyPrefix+sessionID, count, s.cfg.CounterTTL)
	if s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"session_id": sessionID,
			"count":      count,
		}).Debug("Session query count incremented")
	}
	return count
}

// Clear removes everything stored for the session.
func (s *Store) Clear(sessionID string) {
	s.cache.Delete(historyKeyPrefix + sessionID)
	s.cache.Delete(counterKeyPrefix + sessionID)
	if _, loaded := s.locks.LoadAndDelete(sessionID); loaded {
		s.lockCount.Add(-1)
	}
}
