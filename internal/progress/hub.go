package progress

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Entry is the wire shape of a single session-log event.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      Level     `json:"type"`
	ID        string    `json:"id"`
}

// maxEntries caps each session's buffer; the oldest entries are evicted.
const maxEntries = 1000

type session struct {
	entries []Entry
	subs    map[int]chan Entry
	nextSub int
}

// Hub is an in-memory pub/sub log keyed by session id. Sessions live in an
// LRU so abandoned sessions eventually age out instead of accumulating for
// the process lifetime. Everything is lost on restart; the logs are
// diagnostic, not the artifact of record.
type Hub struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *session]
}

func NewHub(maxSessions int) *Hub {
	h := &Hub{}
	cache, err := lru.NewWithEvict[string, *session](maxSessions, func(_ string, s *session) {
		for k, ch := range s.subs {
			close(ch)
			delete(s.subs, k)
		}
	})
	if err != nil {
		panic(fmt.Sprintf("progress: bad session cap: %v", err))
	}
	h.sessions = cache
	return h
}

func (h *Hub) get(id string) *session {
	if s, ok := h.sessions.Get(id); ok {
		return s
	}
	s := &session{subs: make(map[int]chan Entry)}
	h.sessions.Add(id, s)
	return s
}

// Log appends an entry to the session buffer and broadcasts it to every
// subscriber. Slow subscribers drop events rather than blocking the pipeline.
func (h *Hub) Log(id string, level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	e := Entry{Timestamp: time.Now(), Message: msg, Type: level, ID: id}

	logrus.WithField("session", id).Log(logrusLevel(level), msg)

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.get(id)
	s.entries = append(s.entries, e)
	if len(s.entries) > maxEntries {
		s.entries = s.entries[len(s.entries)-maxEntries:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe attaches an observer to a session. It returns a snapshot of the
// buffered entries (replay), a channel carrying entries logged after the
// snapshot, and a cancel function the observer must call when done. The
// channel is closed when the session is evicted.
func (h *Hub) Subscribe(id string) ([]Entry, <-chan Entry, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.get(id)
	replay := make([]Entry, len(s.entries))
	copy(replay, s.entries)

	ch := make(chan Entry, 64)
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if cur, ok := h.sessions.Peek(id); ok && cur == s {
			if _, live := s.subs[key]; live {
				delete(s.subs, key)
				close(ch)
			}
		}
	}
	return replay, ch, cancel
}

// Entries returns a copy of the session's current buffer.
func (h *Hub) Entries(id string) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions.Peek(id)
	if !ok {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func logrusLevel(l Level) logrus.Level {
	switch l {
	case Warning:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
