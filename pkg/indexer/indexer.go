// Package indexer keeps the store in sync with the result files on disk.
//
// A file is re-indexed only when its fingerprint (path, size, mtime)
// differs from the stored one. Re-indexing replaces every session, driver,
// lap and stream of the file within one store transaction.
package indexer

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
	"github.com/mpapenbr/simresults-indexer/pkg/utils"
)

var ErrNoStore = errors.New("indexer has no store")

// Store is the part of the relational store the indexer writes to
type Store interface {
	Fingerprint(ctx context.Context, path string) (string, bool, error)
	ReplaceFile(ctx context.Context, rec *model.FileRecord) error
	Prune(ctx context.Context, exists func(path string) bool) (int, error)
	Reset(ctx context.Context) error
}

type Outcome string

const (
	Skipped Outcome = "skipped"
	Indexed Outcome = "indexed"
	Failed  Outcome = "failed"
)

type (
	Option  func(*Indexer)
	Indexer struct {
		store     Store
		pilots    *extract.PilotMatcher
		extractor *extract.Extractor
		notifier  notify.Notifier
		l         *log.Logger
		now       func() time.Time
		exists    func(path string) bool
		tracer    trace.Tracer
		files     metric.Int64Counter
		duration  metric.Float64Histogram
	}
	// Report summarizes an IndexAll run
	Report struct {
		RunID    string        `json:"runId"`
		Total    int           `json:"total"`
		Indexed  int           `json:"indexed"`
		Skipped  int           `json:"skipped"`
		Failed   int           `json:"failed"`
		Duration time.Duration `json:"duration"`
		Errors   []FileError   `json:"errors,omitempty"`
	}
	FileError struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}
)

func WithStore(s Store) Option {
	return func(i *Indexer) {
		i.store = s
	}
}

// WithPilots restricts stored drivers to the given pilots and their
// co-drivers. Without pilots no driver is stored.
func WithPilots(p *extract.PilotMatcher) Option {
	return func(i *Indexer) {
		i.pilots = p
	}
}

func WithExtractor(e *extract.Extractor) Option {
	return func(i *Indexer) {
		i.extractor = e
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(i *Indexer) {
		i.notifier = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(i *Indexer) {
		i.l = l
	}
}

// WithExistsFunc replaces the file existence check used by Prune
func WithExistsFunc(fn func(path string) bool) Option {
	return func(i *Indexer) {
		i.exists = fn
	}
}

func New(opts ...Option) *Indexer {
	ret := &Indexer{
		extractor: extract.New(),
		notifier:  notify.Noop{},
		l:         log.Default().Named("indexer"),
		now:       time.Now,
		exists:    fileExists,
		tracer:    otel.Tracer("sri.indexer"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.setupMetrics()
	return ret
}

func (i *Indexer) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("sri.indexer")
	var err error
	if i.files, err = meter.Int64Counter("sri.index.files",
		metric.WithDescription("Number of processed result files"),
		metric.WithUnit("{file}")); err != nil {
		i.l.Error("failed to register metric", log.ErrorField(err))
	}
	if i.duration, err = meter.Float64Histogram("sri.index.duration",
		metric.WithDescription("Duration of an index run"),
		metric.WithUnit("s")); err != nil {
		i.l.Error("failed to register metric", log.ErrorField(err))
	}
}

func (i *Indexer) record(ctx context.Context, o Outcome) {
	if i.files != nil {
		i.files.Add(ctx, 1, metric.WithAttributes(attribute.String("result", string(o))))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// Fingerprint returns the change detection key of a file
func Fingerprint(path string, size int64, mtime time.Time) string {
	return utils.FileFingerprint(path, size, mtime)
}

// NeedsIndex reports whether sf differs from the stored state
func (i *Indexer) NeedsIndex(ctx context.Context, sf *model.ScannedFile) (bool, error) {
	if i.store == nil {
		return false, ErrNoStore
	}
	stored, found, err := i.store.Fingerprint(ctx, sf.Path)
	if err != nil {
		return false, err
	}
	return !found || stored != Fingerprint(sf.Path, sf.Size, sf.MTime), nil
}

// IndexFile reads path and indexes it
func (i *Indexer) IndexFile(ctx context.Context, path string) (Outcome, error) {
	sf := scan.ReadFile(path)
	return i.IndexScanned(ctx, &sf)
}

// IndexScanned stores sf unless the stored fingerprint matches.
// A document without race results is stored as a file without sessions.
func (i *Indexer) IndexScanned(ctx context.Context, sf *model.ScannedFile) (Outcome, error) {
	ctx, span := i.tracer.Start(ctx, "index file",
		trace.WithAttributes(attribute.String("path", sf.Path)))
	defer span.End()

	o, err := i.indexScanned(ctx, sf)
	i.record(ctx, o)
	if err != nil {
		span.RecordError(err)
	}
	return o, err
}

func (i *Indexer) indexScanned(ctx context.Context, sf *model.ScannedFile) (Outcome, error) {
	if sf.Err != nil {
		return Failed, sf.Err
	}
	need, err := i.NeedsIndex(ctx, sf)
	if err != nil {
		return Failed, err
	}
	if !need {
		i.l.Debug("unchanged", log.String("path", sf.Path))
		return Skipped, nil
	}
	rec := i.buildRecord(sf)
	if err := i.store.ReplaceFile(ctx, rec); err != nil {
		return Failed, err
	}
	drivers := lo.SumBy(rec.Sessions, func(s *model.Session) int { return len(s.Drivers) })
	i.l.Info("indexed",
		log.String("path", sf.Path),
		log.Int("sessions", len(rec.Sessions)),
		log.Int("drivers", drivers))
	i.notify(ctx, notify.Event{
		Kind: notify.KindFileIndexed, Path: sf.Path,
		Sessions: len(rec.Sessions), Drivers: drivers,
	})
	return Indexed, nil
}

// IndexAll indexes files one after the other. Failures are counted and
// logged, they never stop the run. Only a canceled ctx does.
func (i *Indexer) IndexAll(ctx context.Context, files []model.ScannedFile) (*Report, error) {
	start := i.now()
	rep := &Report{RunID: uuid.NewString(), Total: len(files)}
	ctx, span := i.tracer.Start(ctx, "index all",
		trace.WithAttributes(attribute.String("run", rep.RunID),
			attribute.Int("files", len(files))))
	defer span.End()

	for idx := range files {
		if err := ctx.Err(); err != nil {
			rep.Duration = i.now().Sub(start)
			return rep, err
		}
		o, err := i.IndexScanned(ctx, &files[idx])
		switch o {
		case Indexed:
			rep.Indexed++
		case Skipped:
			rep.Skipped++
		case Failed:
			rep.Failed++
			rep.Errors = append(rep.Errors, FileError{Path: files[idx].Path, Error: err.Error()})
			i.l.Warn("indexing failed",
				log.String("run", rep.RunID),
				log.String("path", files[idx].Path),
				log.ErrorField(err))
		}
	}
	rep.Duration = i.now().Sub(start)
	if i.duration != nil {
		i.duration.Record(ctx, rep.Duration.Seconds())
	}
	i.l.Info("index run finished",
		log.String("run", rep.RunID),
		log.Int("total", rep.Total),
		log.Int("indexed", rep.Indexed),
		log.Int("skipped", rep.Skipped),
		log.Int("failed", rep.Failed),
		log.Duration("duration", rep.Duration))
	return rep, nil
}

// Prune removes stored files which no longer exist and returns their number
func (i *Indexer) Prune(ctx context.Context) (int, error) {
	if i.store == nil {
		return 0, ErrNoStore
	}
	n, err := i.store.Prune(ctx, i.exists)
	if err != nil {
		return n, err
	}
	i.l.Info("pruned", log.Int("files", n))
	if n > 0 {
		i.notify(ctx, notify.Event{Kind: notify.KindFilesPruned, Count: n})
	}
	return n, nil
}

// Reset drops all indexed data
func (i *Indexer) Reset(ctx context.Context) error {
	if i.store == nil {
		return ErrNoStore
	}
	if err := i.store.Reset(ctx); err != nil {
		return err
	}
	i.notify(ctx, notify.Event{Kind: notify.KindStoreReset})
	return nil
}

func (i *Indexer) notify(ctx context.Context, ev notify.Event) {
	ev.Time = i.now()
	if err := i.notifier.Notify(ctx, ev); err != nil {
		i.l.Warn("notification failed", log.String("kind", ev.Kind), log.ErrorField(err))
	}
}
