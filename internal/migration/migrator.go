// Package migration copies all records from one tenant namespace to another:
// the out-of-band half of an organization rename. It never deletes source
// data; cutover and eventual deletion of the old namespace are manual steps.
package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/orgvault/backend/internal/tenant"
)

// DefaultBatchSize is the bulk-insert batch size when none is given.
const DefaultBatchSize = 100

// sampleSize documents are hashed per collection as an advisory spot check.
const sampleSize = 5

// Report is the structured result of one migration run.
type Report struct {
	RunID                string             `json:"run_id"`
	SourceNamespace      string             `json:"source_namespace"`
	DestinationNamespace string             `json:"destination_namespace"`
	Collections          []CollectionReport `json:"collections"`
	Warnings             []string           `json:"warnings"`
	StartedAt            time.Time          `json:"started_at"`
	FinishedAt           time.Time          `json:"finished_at"`
}

// CollectionReport summarizes one copied collection.
type CollectionReport struct {
	Name             string `json:"name"`
	SourceCount      int64  `json:"source_count"`
	Copied           int    `json:"copied"`
	Skipped          int    `json:"skipped"`
	DestinationCount int64  `json:"destination_count"`
	CountMatch       bool   `json:"count_match"`
	SampleMatch      bool   `json:"sample_match"`
}

// TotalCopied returns the number of documents copied across all collections.
func (r *Report) TotalCopied() int {
	var n int
	for _, c := range r.Collections {
		n += c.Copied
	}
	return n
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Migrator copies documents between tenant namespaces, resumable and
// idempotent: documents whose _id already exists at the destination are
// skipped, so an interrupted run can simply be re-run.
type Migrator struct {
	store     Store
	batchSize int
	logger    *zap.Logger
}

// New creates a migrator. batchSize <= 0 falls back to DefaultBatchSize.
func New(store Store, batchSize int, logger *zap.Logger) *Migrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{store: store, batchSize: batchSize, logger: logger}
}

// Run copies every collection from the old organization's namespace to the
// new one. Count and sample-hash mismatches are reported as warnings, not
// failures; only namespace absence and store connectivity abort the run.
// Cancelling ctx stops between documents; no partially written document is
// left behind, and re-running resumes where the copy stopped.
func (m *Migrator) Run(ctx context.Context, oldDisplayName, newDisplayName string) (*Report, error) {
	oldCanonical := tenant.Sanitize(oldDisplayName)
	newCanonical := tenant.Sanitize(newDisplayName)

	report := &Report{
		RunID:                uuid.New().String(),
		SourceNamespace:      tenant.NamespaceFor(oldCanonical),
		DestinationNamespace: tenant.NamespaceFor(newCanonical),
		StartedAt:            time.Now().UTC(),
	}

	if oldCanonical == newCanonical {
		report.warnf("old and new names sanitize to the same canonical name %q, nothing to migrate", oldCanonical)
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	names, err := m.store.DatabaseNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	if !contains(names, report.SourceNamespace) {
		return nil, fmt.Errorf("source namespace %q does not exist", report.SourceNamespace)
	}
	if contains(names, report.DestinationNamespace) {
		report.warnf("destination namespace %q already exists, resuming/merging", report.DestinationNamespace)
	}

	collections, err := m.store.CollectionNames(ctx, report.SourceNamespace)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	for _, coll := range collections {
		cr, err := m.copyCollection(ctx, report.SourceNamespace, report.DestinationNamespace, coll)
		if err != nil {
			return nil, fmt.Errorf("copy collection %q: %w", coll, err)
		}
		report.Collections = append(report.Collections, *cr)
		if !cr.CountMatch {
			report.warnf("count mismatch for %q: source %d, destination %d (skipped %d)",
				coll, cr.SourceCount, cr.DestinationCount, cr.Skipped)
		}
		if !cr.SampleMatch {
			report.warnf("sample hash mismatch for %q, inspect the destination before cutover", coll)
		}
	}

	report.FinishedAt = time.Now().UTC()
	m.logger.Info("migration finished",
		zap.String("run_id", report.RunID),
		zap.String("source", report.SourceNamespace),
		zap.String("destination", report.DestinationNamespace),
		zap.Int("copied", report.TotalCopied()),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

func (m *Migrator) copyCollection(ctx context.Context, src, dst, coll string) (*CollectionReport, error) {
	cr := &CollectionReport{Name: coll}

	total, err := m.store.Count(ctx, src, coll)
	if err != nil {
		return nil, err
	}
	cr.SourceCount = total

	cur, err := m.store.Documents(ctx, src, coll)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	batch := make([]bson.Raw, 0, m.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := m.store.InsertBatch(ctx, dst, coll, batch); err != nil {
			return err
		}
		cr.Copied += len(batch)
		batch = batch[:0]
		m.logger.Info("batch copied",
			zap.String("collection", coll),
			zap.Int("copied", cr.Copied),
			zap.Int64("source_total", total))
		return nil
	}

	for {
		doc, ok, err := cur.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		id, err := doc.LookupErr("_id")
		if err != nil {
			return nil, fmt.Errorf("document without _id in %s.%s", src, coll)
		}
		exists, err := m.store.Has(ctx, dst, coll, id)
		if err != nil {
			return nil, err
		}
		if exists {
			cr.Skipped++
			continue
		}
		batch = append(batch, doc)
		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	dstCount, err := m.store.Count(ctx, dst, coll)
	if err != nil {
		return nil, err
	}
	cr.DestinationCount = dstCount
	cr.CountMatch = dstCount == total

	match, err := m.sampleMatch(ctx, src, dst, coll)
	if err != nil {
		return nil, err
	}
	cr.SampleMatch = match
	return cr, nil
}

// sampleMatch hashes a small fixed-size sample from source and destination
// and compares. Advisory only: it spot-checks, it does not prove integrity.
func (m *Migrator) sampleMatch(ctx context.Context, src, dst, coll string) (bool, error) {
	srcSample, err := m.store.Sample(ctx, src, coll, sampleSize)
	if err != nil {
		return false, err
	}
	dstSample, err := m.store.Sample(ctx, dst, coll, sampleSize)
	if err != nil {
		return false, err
	}
	return sampleHash(srcSample) == sampleHash(dstSample), nil
}

func sampleHash(docs []bson.Raw) string {
	h := sha256.New()
	for _, d := range docs {
		h.Write(d)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
