// Package service ties scanning, indexing, storage and statistics together.
package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/indexer"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/stats"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
	"github.com/mpapenbr/simresults-indexer/pkg/store"
)

var (
	ErrNoResultsFolder = errors.New("no results folder configured")
	ErrNoStore         = errors.New("no store available")
)

// StatsSource selects where statistics are computed from
type StatsSource string

const (
	SourceScan  StatsSource = "scan"
	SourceStore StatsSource = "store"
)

type (
	Option           func(*ResultsService)
	ResultsService struct {
		settings *config.Settings
		pilots   *extract.PilotMatcher
		source   StatsSource
		scanner  *scan.Scanner
		store    *store.Store
		notifier notify.Notifier
		cache    *stats.Cache
		l        *log.Logger

		refreshMu  sync.Mutex // serializes Refresh
		mu         sync.RWMutex
		indexer    *indexer.Indexer
		scanned    []model.ScannedFile
		entries    []*stats.Entry
		lastScan   time.Time
		lastReport *indexer.Report
	}
	Info struct {
		Settings     *config.Settings  `json:"settings"`
		Store        *model.StoreStats `json:"store,omitempty"`
		StatsSource  StatsSource       `json:"statsSource"`
		LastScan     time.Time         `json:"lastScan"`
		ScannedFiles int               `json:"scannedFiles"`
		FailedFiles  int               `json:"failedFiles"`
		LastReport   *indexer.Report   `json:"lastReport,omitempty"`
		CachedStats  int               `json:"cachedStats"`
	}
)

func WithStore(s *store.Store) Option {
	return func(r *ResultsService) {
		r.store = s
	}
}

func WithScanner(s *scan.Scanner) Option {
	return func(r *ResultsService) {
		r.scanner = s
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(r *ResultsService) {
		r.notifier = n
	}
}

func WithStatsSource(src StatsSource) Option {
	return func(r *ResultsService) {
		r.source = src
	}
}

func WithStatsCache(c *stats.Cache) Option {
	return func(r *ResultsService) {
		r.cache = c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *ResultsService) {
		r.l = l
	}
}

func New(settings *config.Settings, opts ...Option) *ResultsService {
	ret := &ResultsService{
		source:   SourceScan,
		notifier: notify.Noop{},
		l:        log.Default().Named("service"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.scanner == nil {
		ret.scanner = scan.NewScanner()
	}
	if ret.cache == nil {
		ret.cache = stats.NewCache()
	}
	ret.applySettings(settings)
	return ret
}

func (r *ResultsService) applySettings(s *config.Settings) {
	r.settings = s
	r.pilots = extract.NewPilotMatcher(s.PilotNames)
	if r.store != nil {
		r.indexer = indexer.New(
			indexer.WithStore(r.store),
			indexer.WithPilots(r.pilots),
			indexer.WithNotifier(r.notifier),
		)
	}
}

// UpdateSettings replaces the settings. Cached statistics are dropped,
// stored data is kept until the next Refresh.
func (r *ResultsService) UpdateSettings(ctx context.Context, s *config.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applySettings(s)
	r.cache.Invalidate(ctx)
}

func (r *ResultsService) Settings() *config.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// Refresh scans the results folder, indexes changed files and drops all
// cached statistics.
func (r *ResultsService) Refresh(ctx context.Context) Result[*indexer.Report] {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	r.mu.RLock()
	folder := r.settings.ResultsFolder
	idx := r.indexer
	r.mu.RUnlock()
	if folder == "" {
		return fail[*indexer.Report](ErrNoResultsFolder)
	}
	files, err := r.scanner.ScanDir(ctx, folder)
	if err != nil {
		return fail[*indexer.Report](err)
	}
	scan.SortByEventDate(files)
	entries := stats.FromScanned(files)

	var rep *indexer.Report
	if idx != nil {
		if rep, err = idx.IndexAll(ctx, files); err != nil {
			return fail[*indexer.Report](err)
		}
	} else {
		rep = &indexer.Report{Total: len(files)}
	}

	r.mu.Lock()
	r.scanned = files
	r.entries = entries
	r.lastScan = time.Now()
	r.lastReport = rep
	r.mu.Unlock()
	r.cache.Invalidate(ctx)
	return ok(rep)
}

// Scanned returns the files of the last Refresh, most recent first
func (r *ResultsService) Scanned() []model.ScannedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanned
}

// statsInput returns the entries for statistics, filtered by the configured
// session types.
func (r *ResultsService) statsInput(ctx context.Context) ([]*stats.Entry, error) {
	r.mu.RLock()
	entries, types, src := r.entries, r.settings.SessionTypes, r.source
	r.mu.RUnlock()
	if src == SourceStore {
		if r.store == nil {
			return nil, ErrNoStore
		}
		var err error
		if entries, err = stats.FromStore(ctx, r.store); err != nil {
			return nil, err
		}
	}
	if len(types) == 0 {
		return entries, nil
	}
	return lo.Filter(entries, func(e *stats.Entry, _ int) bool {
		return slices.Contains(types, string(e.SessionType))
	}), nil
}

func (r *ResultsService) currentPilots() *extract.PilotMatcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pilots
}

func (r *ResultsService) DriverStats(ctx context.Context) Result[*stats.DriverStats] {
	entries, err := r.statsInput(ctx)
	if err != nil {
		return fail[*stats.DriverStats](err)
	}
	ds, err := r.cache.Driver(ctx, entries, r.currentPilots())
	return resultOf(ds, err)
}

func (r *ResultsService) TrackStats(ctx context.Context) Result[[]*stats.TrackStats] {
	entries, err := r.statsInput(ctx)
	if err != nil {
		return fail[[]*stats.TrackStats](err)
	}
	ts, err := r.cache.Tracks(ctx, entries, r.currentPilots())
	return resultOf(ts, err)
}

// VehicleStats aggregates per class and vehicle. An empty class uses the
// selected class of the settings.
func (r *ResultsService) VehicleStats(ctx context.Context, class string) Result[[]*stats.ClassVehicles] {
	entries, err := r.statsInput(ctx)
	if err != nil {
		return fail[[]*stats.ClassVehicles](err)
	}
	if class == "" {
		class = r.Settings().SelectedClass
	}
	vs, err := r.cache.Vehicles(ctx, entries, r.currentPilots(), class)
	return resultOf(vs, err)
}

//nolint:whitespace // can't make both editor and linter happy
func (r *ResultsService) VehicleTrackStats(
	ctx context.Context, vehicle, class string,
) Result[[]*stats.TrackStats] {
	entries, err := r.statsInput(ctx)
	if err != nil {
		return fail[[]*stats.TrackStats](err)
	}
	if class == "" {
		class = r.Settings().SelectedClass
	}
	ts, err := r.cache.VehicleTracks(ctx, entries, r.currentPilots(), vehicle, class)
	return resultOf(ts, err)
}

func (r *ResultsService) File(ctx context.Context, path string) Result[*model.FileRecord] {
	if r.store == nil {
		return fail[*model.FileRecord](ErrNoStore)
	}
	rec, err := r.store.GetByPath(ctx, path)
	return resultOf(rec, err)
}

func (r *ResultsService) Files(ctx context.Context) Result[[]*model.ResultFile] {
	if r.store == nil {
		return fail[[]*model.ResultFile](ErrNoStore)
	}
	files, err := r.store.ListAll(ctx)
	return resultOf(files, err)
}

func (r *ResultsService) Dates(ctx context.Context, path string) Result[*model.FileDates] {
	if r.store == nil {
		return fail[*model.FileDates](ErrNoStore)
	}
	dates, err := r.store.GetDates(ctx, path)
	return resultOf(dates, err)
}

func (r *ResultsService) Info(ctx context.Context) Result[*Info] {
	r.mu.RLock()
	info := &Info{
		Settings:     r.settings,
		StatsSource:  r.source,
		LastScan:     r.lastScan,
		ScannedFiles: len(r.scanned),
		FailedFiles:  lo.CountBy(r.scanned, func(f model.ScannedFile) bool { return f.Err != nil }),
		LastReport:   r.lastReport,
		CachedStats:  r.cache.Len(),
	}
	r.mu.RUnlock()
	if r.store != nil {
		st, err := r.store.Stats(ctx)
		if err != nil {
			return fail[*Info](err)
		}
		info.Store = st
	}
	return ok(info)
}

func (r *ResultsService) Prune(ctx context.Context) Result[int] {
	idx := r.currentIndexer()
	if idx == nil {
		return fail[int](ErrNoStore)
	}
	n, err := idx.Prune(ctx)
	if err == nil && n > 0 {
		r.cache.Invalidate(ctx)
	}
	return resultOf(n, err)
}

func (r *ResultsService) Reset(ctx context.Context) Result[bool] {
	idx := r.currentIndexer()
	if idx == nil {
		return fail[bool](ErrNoStore)
	}
	if err := idx.Reset(ctx); err != nil {
		return fail[bool](err)
	}
	r.cache.Invalidate(ctx)
	return ok(true)
}

func (r *ResultsService) currentIndexer() *indexer.Indexer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexer
}
