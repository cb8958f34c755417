package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/mpapenbr/simresults-indexer/log"
)

type ConfigOption func(cfg *pgx.ConnConfig)

// WithTracer logs every statement with the given logger and level
func WithTracer(logger *log.Logger, level log.Level) ConfigOption {
	return func(cfg *pgx.ConnConfig) {
		cfg.Tracer = &myQueryTracer{log: logger, level: level}
	}
}

func WithOtlpTracer() ConfigOption {
	return func(cfg *pgx.ConnConfig) {
		cfg.Tracer = otelpgx.NewTracer()
	}
}

// IsURL reports whether s is a postgres connection url
func IsURL(s string) bool {
	return strings.HasPrefix(s, "postgresql://") || strings.HasPrefix(s, "postgres://")
}

// Open creates a database/sql handle backed by pgx and verifies the connection
func Open(ctx context.Context, url string, opts ...ConfigOption) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(cfg)
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type myQueryTracer struct {
	log   *log.Logger
	level log.Level
}

func (tracer *myQueryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	tracer.log.Log(tracer.level, "Executing",
		log.String("sql", data.SQL), log.Any("args", data.Args))
	return ctx
}

//nolint:whitespace // can't make the linters happy
func (tracer *myQueryTracer) TraceQueryEnd(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	if data.Err != nil {
		tracer.log.Log(tracer.level, "Query failed", log.ErrorField(data.Err))
	}
}
