package services

import (
	"sync"
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/raulk/clock"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (p *recordingPublisher) Publish(ev realtime.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Events() []realtime.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.ChangeEvent, len(p.events))
	copy(out, p.events)
	return out
}

func mockClockAt(t time.Time) *clock.Mock {
	mock := clock.NewMock()
	mock.Set(t)
	return mock
}
