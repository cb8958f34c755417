// Package scan reads and decodes result files with a bounded worker pool.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/xmltree"
)

const DefaultExtension = ".xml"

type (
	Option  func(*Scanner)
	Scanner struct {
		workers   int
		extension string
		l         *log.Logger
	}
)

// WithWorkers limits the number of files read in parallel.
// Values < 1 use the number of CPUs.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithExtension sets the extension of result files. An empty value keeps
// the default.
func WithExtension(ext string) Option {
	return func(s *Scanner) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.extension = ext
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) {
		s.l = l
	}
}

func NewScanner(opts ...Option) *Scanner {
	ret := &Scanner{extension: DefaultExtension, l: log.Default().Named("scan")}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.workers < 1 {
		ret.workers = runtime.NumCPU()
	}
	return ret
}

// ListFiles returns all files below dir with extension ext (case insensitive).
// Unreadable subdirectories are skipped.
func ListFiles(dir, ext string) ([]string, error) {
	ret := []string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			ret = append(ret, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ReadFile stats and decodes path. Failures are reported in the Err field.
func ReadFile(path string) model.ScannedFile {
	ret := model.ScannedFile{Path: path}
	fi, err := os.Stat(path)
	if err != nil {
		ret.Err = err
		return ret
	}
	ret.Size = fi.Size()
	ret.MTime = fi.ModTime()
	f, err := os.Open(path)
	if err != nil {
		ret.Err = err
		return ret
	}
	defer f.Close()
	if ret.Root, err = xmltree.DecodeReader(f); err != nil {
		ret.Err = fmt.Errorf("%s: %w", path, err)
	}
	return ret
}

// Scan reads paths in parallel. The result order is not defined.
// Files not yet started when ctx is canceled are omitted.
func (s *Scanner) Scan(ctx context.Context, paths []string) ([]model.ScannedFile, error) {
	var mu sync.Mutex
	ret := make([]model.ScannedFile, 0, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, p := range paths {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			sf := s.readGuarded(p)
			if sf.Err != nil {
				s.l.Warn("could not read result file",
					log.String("path", p), log.ErrorField(sf.Err))
			}
			mu.Lock()
			ret = append(ret, sf)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ret, err
	}
	return ret, ctx.Err()
}

func (s *Scanner) readGuarded(path string) (ret model.ScannedFile) {
	defer func() {
		if r := recover(); r != nil {
			ret = model.ScannedFile{Path: path, Err: fmt.Errorf("panic reading %s: %v", path, r)}
		}
	}()
	return ReadFile(path)
}

// ScanDir lists and scans all result files below dir. The returned paths
// are absolute.
func (s *Scanner) ScanDir(ctx context.Context, dir string) ([]model.ScannedFile, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	paths, err := ListFiles(dir, s.extension)
	if err != nil {
		return nil, err
	}
	s.l.Debug("scanning", log.String("dir", dir), log.Int("files", len(paths)))
	return s.Scan(ctx, paths)
}

// EventTime returns the session time recorded in the file, falling back to
// the modification time.
func EventTime(sf *model.ScannedFile) int64 {
	if root := extract.ResolveRoot(sf.Root); root != nil {
		if dt := extract.ExtractMeta(root).DateTime; dt > 0 {
			return dt
		}
	}
	return sf.MTime.Unix()
}

// SortByEventDate orders files most recent first, ties by path
func SortByEventDate(files []model.ScannedFile) {
	slices.SortStableFunc(files, func(a, b model.ScannedFile) int {
		ta, tb := EventTime(&a), EventTime(&b)
		switch {
		case ta > tb:
			return -1
		case ta < tb:
			return 1
		default:
			return strings.Compare(a.Path, b.Path)
		}
	})
}
