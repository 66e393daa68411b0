// Package main runs the cross-namespace migration tool: copies all tenant
// data from an old organization name's namespace to a new one. Out-of-band,
// resumable, never deletes the source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orgvault/backend/internal/migration"
	"github.com/orgvault/backend/pkg/database"
)

func main() {
	mongoURI := flag.String("mongo-uri", "", "MongoDB connection URI (falls back to MONGO_URI)")
	oldName := flag.String("old", "", "old organization name")
	newName := flag.String("new", "", "new organization name")
	batch := flag.Int("batch", migration.DefaultBatchSize, "batch size for copying documents")
	flag.Parse()

	_ = godotenv.Load()
	if *mongoURI == "" {
		*mongoURI = os.Getenv("MONGO_URI")
	}
	if *mongoURI == "" {
		fmt.Fprintln(os.Stderr, "error: MongoDB URI not provided; use --mongo-uri or set MONGO_URI")
		os.Exit(1)
	}
	if *oldName == "" || *newName == "" {
		fmt.Fprintln(os.Stderr, "error: --old and --new organization names are required")
		os.Exit(1)
	}

	logger := newLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.NewMongoClient(ctx, *mongoURI, logger)
	if err != nil {
		logger.Fatal("mongo", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	migrator := migration.New(migration.NewMongoStore(client), *batch, logger)
	report, err := migrator.Run(ctx, *oldName, *newName)
	if err != nil {
		logger.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}

	printReport(report)
}

func printReport(r *migration.Report) {
	fmt.Println("\n--- MIGRATION COMPLETE ---")
	fmt.Printf("Run ID:      %s\n", r.RunID)
	fmt.Printf("Source:      %s\n", r.SourceNamespace)
	fmt.Printf("Destination: %s\n", r.DestinationNamespace)
	fmt.Printf("Duration:    %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	for _, c := range r.Collections {
		fmt.Printf("  %-30s copied=%d skipped=%d source=%d destination=%d\n",
			c.Name, c.Copied, c.Skipped, c.SourceCount, c.DestinationCount)
	}
	if len(r.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range r.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Println("\nMANUAL CUTOVER STEPS:")
	fmt.Printf("1. VERIFY DATA: inspect %q and confirm all collections copied correctly.\n", r.DestinationNamespace)
	fmt.Println("2. UPDATE CONFIGURATION: point the application at the new organization name.")
	fmt.Println("3. TEST: exercise the application against the new namespace.")
	fmt.Printf("4. DELETE (CAUTION): only once fully confident, manually drop %q.\n", r.SourceNamespace)
	fmt.Println("   The source namespace was not modified by this tool.")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
