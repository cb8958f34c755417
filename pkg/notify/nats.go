package notify

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/simresults-indexer/log"
)

const DefaultSubjectPrefix = "sri"

type (
	NatsOption func(*NatsNotifier)
	// NatsNotifier publishes events as JSON to <prefix>.<kind>
	NatsNotifier struct {
		conn   *nats.Conn
		prefix string
		l      *log.Logger
	}
)

func WithSubjectPrefix(prefix string) NatsOption {
	return func(n *NatsNotifier) {
		n.prefix = prefix
	}
}

func WithNatsLogger(l *log.Logger) NatsOption {
	return func(n *NatsNotifier) {
		n.l = l
	}
}

func NewNats(conn *nats.Conn, opts ...NatsOption) *NatsNotifier {
	ret := &NatsNotifier{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		l:      log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// ConnectNats connects to url and returns a notifier owning the connection
func ConnectNats(url string, opts ...NatsOption) (*NatsNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("sri"))
	if err != nil {
		return nil, err
	}
	return NewNats(conn, opts...), nil
}

func (n *NatsNotifier) Subject(kind string) string {
	return n.prefix + "." + kind
}

func (n *NatsNotifier) Notify(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.Subject(ev.Kind), data); err != nil {
		n.l.Warn("could not publish event",
			log.String("kind", ev.Kind), log.ErrorField(err))
		return err
	}
	return nil
}

func (n *NatsNotifier) Close() {
	if err := n.conn.Drain(); err != nil {
		n.l.Debug("drain failed", log.ErrorField(err))
		n.conn.Close()
	}
}
