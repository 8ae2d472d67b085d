package services

import (
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/raulk/clock"
	"go.uber.org/zap"
)

// ChangePublisher receives row change events. It is optional: every service
// works the same with a nil publisher.
type ChangePublisher interface {
	Publish(ev realtime.ChangeEvent)
}

// Options carries the collaborators shared by the services
type Options struct {
	Clock     clock.Clock
	Publisher ChangePublisher
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) publish(event realtime.EventType, entity string, newRow, oldRow any) {
	changeEvents.WithLabelValues(entity, string(event)).Inc()
	if o.Publisher == nil {
		return
	}
	o.Publisher.Publish(realtime.ChangeEvent{
		Event:  event,
		Entity: entity,
		New:    newRow,
		Old:    oldRow,
		At:     o.Clock.Now(),
	})
}
