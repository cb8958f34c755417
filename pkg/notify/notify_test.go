package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestMulti(t *testing.T) {
	errFail := errors.New("fail")
	a := &recorder{err: errFail}
	b := &recorder{}
	m := Multi{Noop{}, a, b}
	err := m.Notify(context.Background(), Event{Kind: KindStoreReset})
	assert.ErrorIs(t, err, errFail)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestLocal(t *testing.T) {
	l := NewLocal()
	defer l.Close()
	ch := l.Subscribe()
	assert.NoError(t, l.Notify(context.Background(), Event{Kind: KindFileIndexed, Path: "/a.xml"}))
	select {
	case ev := <-ch:
		assert.Equal(t, "/a.xml", ev.Path)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	l.Unsubscribe(ch)
}

func TestSubject(t *testing.T) {
	n := &NatsNotifier{prefix: DefaultSubjectPrefix}
	assert.Equal(t, "sri.file.indexed", n.Subject(KindFileIndexed))
	n = &NatsNotifier{prefix: "lab"}
	assert.Equal(t, "lab.store.reset", n.Subject(KindStoreReset))
}
