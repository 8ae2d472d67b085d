package services

import (
	"sync"
	"time"

	"github.com/raulk/clock"
)

// SessionHeader identifies the client tab issuing search-as-you-type requests
const SessionHeader = "X-Search-Session"

const sessionIdleTimeout = time.Hour

// SearchSequencer tracks the newest sequence number seen per session. A response
// computed for an older sequence is stale and should be discarded by the client.
type SearchSequencer struct {
	mu       sync.Mutex
	clock    clock.Clock
	sessions map[string]*sequence
}

type sequence struct {
	latest   uint64
	lastSeen time.Time
}

var searchSequencerInstance *SearchSequencer

func NewSearchSequencer(clk clock.Clock) *SearchSequencer {
	if clk == nil {
		clk = clock.New()
	}
	return &SearchSequencer{clock: clk, sessions: make(map[string]*sequence)}
}

// GetSearchSequencer returns the initialized sequencer instance
func GetSearchSequencer() *SearchSequencer {
	return searchSequencerInstance
}

// SetSearchSequencer sets the sequencer instance
func SetSearchSequencer(s *SearchSequencer) {
	searchSequencerInstance = s
}

// Begin records that a request with seq started. Requests without a session or
// with seq 0 are not tracked.
func (s *SearchSequencer) Begin(session string, seq uint64) {
	if session == "" || seq == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.prune(now)

	cur, ok := s.sessions[session]
	if !ok {
		cur = &sequence{}
		s.sessions[session] = cur
	}
	if seq > cur.latest {
		cur.latest = seq
	}
	cur.lastSeen = now
}

// Stale reports whether a newer request for the session began after seq
func (s *SearchSequencer) Stale(session string, seq uint64) bool {
	if session == "" || seq == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[session]
	return ok && seq < cur.latest
}

// Sessions returns the number of tracked sessions
func (s *SearchSequencer) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SearchSequencer) prune(now time.Time) {
	for id, seq := range s.sessions {
		if now.Sub(seq.lastSeen) > sessionIdleTimeout {
			delete(s.sessions, id)
		}
	}
}
