package stream

import (
	"context"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

func Create(ctx context.Context, conn repository.Querier, b *model.StreamBlob) error {
	_, err := conn.Exec(ctx, `
	insert into stream_blob (session_id, data, driver_changes, incidents, penalties)
	values (?,?,?,?,?)`,
		b.SessionID, b.Data, b.DriverChanges, b.Incidents, b.Penalties)
	return err
}

func LoadBySession(ctx context.Context, conn repository.Querier, sessionID int64) (*model.StreamBlob, error) {
	var b model.StreamBlob
	err := conn.QueryRow(ctx, `
	select session_id, data, driver_changes, incidents, penalties
	from stream_blob where session_id=?`, sessionID).
		Scan(&b.SessionID, &b.Data, &b.DriverChanges, &b.Incidents, &b.Penalties)
	if err != nil {
		return nil, repository.NotFound(err)
	}
	return &b, nil
}

func Count(ctx context.Context, conn repository.Querier) (int64, error) {
	return repository.CountRows(ctx, conn, "stream_blob")
}
