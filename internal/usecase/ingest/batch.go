package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/extractor"
	"github.com/theakash04/termify/internal/index"
	"go.uber.org/zap"
)

// bulkBatchSize bounds how many records go to the index per append call.
const bulkBatchSize = 500

// RunRecorder persists the tally of one batch run. Failures are logged,
// never raised; the run's output is the CSV and the index, not the row.
type RunRecorder interface {
	RecordRun(ctx context.Context, source string, report entity.IngestReport) error
}

// BatchProcessor is the folder driver over the shared Pipeline: it walks
// a folder tree of source files, stages every chunk to a CSV handoff
// file, bulk-loads the CSV into the shared default index and returns a
// per-file tally. One unreadable file is skipped and tallied, never
// fatal to the run.
type BatchProcessor struct {
	pipeline   Pipeline
	extractors *extractor.Registry
	svc        index.Service
	recorder   RunRecorder

	namespace   string
	serviceName string
	workers     int
}

func NewBatchProcessor(
	pipeline Pipeline,
	extractors *extractor.Registry,
	svc index.Service,
	recorder RunRecorder,
	namespace, serviceName string,
	workers int,
) *BatchProcessor {
	if workers < 1 {
		workers = 1
	}
	return &BatchProcessor{
		pipeline:    pipeline,
		extractors:  extractors,
		svc:         svc,
		recorder:    recorder,
		namespace:   namespace,
		serviceName: serviceName,
		workers:     workers,
	}
}

// Run stages folder into csvPath and bulk-loads the result into the
// default index. Cancellation between files leaves the CSV valid; files
// already staged stay staged.
func (b *BatchProcessor) Run(ctx context.Context, folder, csvPath string) (entity.IngestReport, error) {
	report, err := b.Stage(ctx, folder, csvPath)
	if err != nil {
		return report, err
	}

	if err := b.BulkLoad(ctx, csvPath); err != nil {
		return report, err
	}

	report.FinishedAt = time.Now().UTC()
	b.recordRun(ctx, folder, report)
	return report, nil
}

// Stage walks the folder tree, chunks every supported file and appends
// the chunks as `name,data` rows to a fresh CSV at csvPath. Files fan out
// across a bounded worker pool; CSV writes are serialized.
func (b *BatchProcessor) Stage(ctx context.Context, folder, csvPath string) (entity.IngestReport, error) {
	report := entity.IngestReport{StartedAt: time.Now().UTC()}

	paths, err := b.collectFiles(folder)
	if err != nil {
		return report, fmt.Errorf("walk %s: %w", folder, err)
	}

	out, err := os.Create(csvPath)
	if err != nil {
		return report, fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"name", "data"}); err != nil {
		return report, fmt.Errorf("write csv header: %w", err)
	}

	var (
		writeMu  sync.Mutex
		writeErr error
	)
	jobs := make(chan string)
	results := make(chan entity.FileReport)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				// Cancellation boundary: never start a new file on a
				// cancelled run.
				if ctx.Err() != nil {
					results <- entity.FileReport{Path: path, Err: ctx.Err()}
					continue
				}

				chunks, err := b.stageFile(ctx, folder, path, w, &writeMu, &writeErr)
				results <- entity.FileReport{Path: path, Chunks: chunks, Err: err}
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for fr := range results {
		report.Files = append(report.Files, fr)
		if fr.Err != nil {
			report.FilesFail++
			continue
		}
		report.FilesOK++
		report.Chunks += fr.Chunks
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return report, fmt.Errorf("flush csv: %w", err)
	}
	if writeErr != nil {
		return report, fmt.Errorf("write csv rows: %w", writeErr)
	}

	report.FinishedAt = time.Now().UTC()
	ctxzap.Extract(ctx).Info("batch staging complete",
		zap.String("folder", folder),
		zap.String("csv", csvPath),
		zap.Int("files_ok", report.FilesOK),
		zap.Int("files_failed", report.FilesFail),
		zap.Int("chunks", report.Chunks),
	)

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

func (b *BatchProcessor) stageFile(ctx context.Context, root, path string, w *csv.Writer, mu *sync.Mutex, writeErr *error) (int, error) {
	doc, err := b.pipeline.Extract(ctx, path)
	if err != nil {
		ctxzap.Extract(ctx).Warn("skipping unreadable source file",
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, err
	}
	doc.SourceLabel = sourceLabel(root, path)

	chunks := b.pipeline.Chunk(doc)
	if len(chunks) == 0 {
		return 0, entity.ErrEmptyDocument
	}

	// One writer at a time; a document's rows stay contiguous and ordered.
	mu.Lock()
	defer mu.Unlock()
	if *writeErr != nil {
		return 0, *writeErr
	}
	for _, c := range chunks {
		if err := w.Write([]string{c.SourceLabel, c.Text}); err != nil {
			*writeErr = err
			return 0, err
		}
	}
	return len(chunks), nil
}

// BulkLoad reads a staged CSV and appends its records to the shared
// default index, then (re)builds the search index over it.
func (b *BatchProcessor) BulkLoad(ctx context.Context, csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != 2 || header[0] != "name" || header[1] != "data" {
		return fmt.Errorf("%w: csv header %v, want [name data]", entity.ErrInvalidParameter, header)
	}

	if err := b.svc.CreateNamespace(ctx, b.namespace); err != nil {
		return err
	}
	if err := b.svc.CreateCollection(ctx, b.namespace, "chunks"); err != nil {
		return err
	}

	var (
		batch []entity.ChunkRecord
		total int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := b.svc.AppendRecords(ctx, b.namespace, "chunks", batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv row: %w", err)
		}
		if len(row) != 2 {
			continue
		}
		batch = append(batch, entity.ChunkRecord{Name: row[0], Data: row[1]})
		if len(batch) == bulkBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := b.svc.CreateSearchIndex(ctx, b.namespace, b.serviceName); err != nil {
		return err
	}

	ctxzap.Extract(ctx).Info("bulk load complete",
		zap.String("namespace", b.namespace),
		zap.Int("records", total),
	)
	return nil
}

func (b *BatchProcessor) recordRun(ctx context.Context, source string, report entity.IngestReport) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.RecordRun(ctx, source, report); err != nil {
		ctxzap.Extract(ctx).Warn("ingest run not recorded", zap.Error(err))
	}
}

// collectFiles gathers every file under folder the extractor registry
// knows how to read, in walk order.
func (b *BatchProcessor) collectFiles(folder string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := b.extractors.ForPath(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// sourceLabel derives the record name from the file's position under the
// batch root: the containing folder (category) when nested, otherwise the
// file name without extension.
func sourceLabel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	dir := filepath.Dir(rel)
	if dir != "." {
		parts := strings.Split(dir, string(filepath.Separator))
		return parts[0]
	}

	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
