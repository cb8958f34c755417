package notify

import (
	"context"

	"github.com/mpapenbr/simresults-indexer/pkg/utils/broadcast"
)

// Local distributes events within the process, for example to HTTP event
// stream clients.
type Local struct {
	bs broadcast.Server[Event]
}

func NewLocal() *Local {
	return &Local{bs: broadcast.New[Event]("notify")}
}

func (l *Local) Notify(_ context.Context, ev Event) error {
	l.bs.Publish(ev)
	return nil
}

func (l *Local) Subscribe() <-chan Event { return l.bs.Subscribe() }

func (l *Local) Unsubscribe(ch <-chan Event) { l.bs.CancelSubscription(ch) }

func (l *Local) Close() { l.bs.Close() }
