package main

import (
	"context"
	"log/slog"

	"match-crawler/internal/config"
	"match-crawler/internal/storage"
)

// outputs holds the CSV sink plus every optional database mirror.
type outputs struct {
	csv *storage.CSVSink
	all storage.MultiSink
}

func (o *outputs) Close() error { return o.all.Close() }

// openSinks opens the CSV output and any configured database sinks. CSV is
// always first so a database failure never precedes the primary artifact.
func openSinks(ctx context.Context, cfg config.Config, logger *slog.Logger) (*outputs, error) {
	log := logger.With("component", "storage")

	csvSink, err := storage.NewCSVSink(cfg.OutDir, cfg.Resume)
	if err != nil {
		return nil, err
	}
	out := &outputs{csv: csvSink, all: storage.MultiSink{csvSink}}

	fail := func(err error) (*outputs, error) {
		out.all.Close()
		return nil, err
	}

	if cfg.SQLitePath != "" {
		s, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		log.Info("writing to SQLite", "path", cfg.SQLitePath)
		out.all = append(out.all, s)
	}
	if cfg.TursoURL != "" {
		s, err := storage.OpenTurso(ctx, cfg.TursoURL, cfg.TursoAuthToken)
		if err != nil {
			return fail(err)
		}
		log.Info("writing to Turso")
		out.all = append(out.all, s)
	}
	if cfg.DatabaseURL != "" {
		s, err := storage.NewPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		log.Info("writing to Postgres")
		out.all = append(out.all, s)
	}
	return out, nil
}
