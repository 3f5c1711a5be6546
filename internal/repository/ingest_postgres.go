package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/theakash04/termify/internal/entity"
)

// IngestRunRepository persists the per-run tally of batch ingestions.
type IngestRunRepository struct {
	pool *pgxpool.Pool
}

func NewIngestRunRepository(pool *pgxpool.Pool) *IngestRunRepository {
	return &IngestRunRepository{pool: pool}
}

func (r *IngestRunRepository) RecordRun(ctx context.Context, source string, report entity.IngestReport) error {
	const q = `
		INSERT INTO ingest_runs (id, source, files_total, files_ok, files_failed, chunks, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, q,
		uuid.NewString(),
		source,
		len(report.Files),
		report.FilesOK,
		report.FilesFail,
		report.Chunks,
		report.StartedAt,
		report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record ingest run: %w", err)
	}
	return nil
}
