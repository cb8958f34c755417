// Package notify publishes index changes to interested parties.
package notify

import (
	"context"
	"time"
)

const (
	KindFileIndexed = "file.indexed"
	KindFilesPruned = "files.pruned"
	KindStoreReset  = "store.reset"
)

// Event describes a change of the index
type Event struct {
	Kind     string    `json:"kind"`
	Time     time.Time `json:"time"`
	Path     string    `json:"path,omitempty"`
	Sessions int       `json:"sessions,omitempty"`
	Drivers  int       `json:"drivers,omitempty"`
	Count    int       `json:"count,omitempty"`
	RunID    string    `json:"runId,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }

// Multi forwards events to all notifiers and reports the first error
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
