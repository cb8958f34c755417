package store

import (
	"context"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/driver"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/lap"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/resultfile"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/session"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/stream"
)

// ReplaceFile stores rec in a single transaction. Any previously stored data
// for rec.File.Path is replaced. On error nothing is changed.
func (s *Store) ReplaceFile(ctx context.Context, rec *model.FileRecord) error {
	return s.write(ctx, func(q repository.Querier) error {
		fileID, err := resultfile.Upsert(ctx, q, rec.File)
		if err != nil {
			return err
		}
		rec.File.ID = fileID
		if _, err := session.DeleteByFile(ctx, q, fileID); err != nil {
			return err
		}
		for _, sess := range rec.Sessions {
			sess.FileID = fileID
			if _, err := session.Create(ctx, q, sess); err != nil {
				return err
			}
			for _, d := range sess.Drivers {
				d.SessionID = sess.ID
				if _, err := driver.Create(ctx, q, d); err != nil {
					return err
				}
				if err := lap.CreateBatch(ctx, q, d.ID, d.Laps); err != nil {
					return err
				}
			}
			if sess.Stream != nil {
				sess.Stream.SessionID = sess.ID
				if err := stream.Create(ctx, q, sess.Stream); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Prune deletes every file for which exists returns false and returns the
// number of deleted files. Each file is deleted in its own transaction.
func (s *Store) Prune(ctx context.Context, exists func(path string) bool) (int, error) {
	var paths []string
	err := s.read(func(q repository.Querier) error {
		var err error
		paths, err = resultfile.LoadPaths(ctx, q)
		return err
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if exists(p) {
			continue
		}
		n, err := pruneFile(ctx, s.write, p)
		if err != nil {
			return deleted, err
		}
		deleted += n
		s.l.Debug("pruned", log.String("path", p))
	}
	return deleted, nil
}

type txRunner func(ctx context.Context, fn func(q repository.Querier) error) error

// pruneFile deletes path within one transaction. The count is only reported
// once the transaction is committed.
func pruneFile(ctx context.Context, run txRunner, path string) (int, error) {
	n := 0
	err := run(ctx, func(q repository.Querier) error {
		var err error
		n, err = resultfile.DeleteByPath(ctx, q, path)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
