package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/builder"
	"go.uber.org/zap"
)

func main() {
	folder := flag.String("folder", "", "Folder tree of source files to ingest")
	out := flag.String("out", "chunks.csv", "Path for the staged CSV handoff file")
	workers := flag.Int("workers", 0, "Parallel file workers (0 = from config)")
	// The -env flag is registered and the command line parsed by config
	// loading inside BuildBatch; flags must be declared before that call.

	b, err := builder.BuildBatch(workers)
	if err != nil {
		log.Fatal("Failed to build batch ingester:", err)
	}
	defer b.Close()

	if *folder == "" {
		b.Logger.Fatal("missing required -folder flag")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = ctxzap.ToContext(ctx, b.Logger)

	report, err := b.Processor.Run(ctx, *folder, *out)

	b.Logger.Info("Batch ingestion finished",
		zap.String("folder", *folder),
		zap.String("csv", *out),
		zap.Int("files_ok", report.FilesOK),
		zap.Int("files_failed", report.FilesFail),
		zap.Int("chunks", report.Chunks),
	)
	for _, fr := range report.Files {
		if fr.Err != nil {
			b.Logger.Warn("file skipped", zap.String("path", fr.Path), zap.Error(fr.Err))
		}
	}

	if err != nil {
		b.Logger.Fatal("Batch ingestion failed", zap.Error(err))
	}
}
