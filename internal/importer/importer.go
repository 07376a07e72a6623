// Package importer orchestrates bulk company imports: it streams raw records
// from a source file, extracts canonical rows, and upserts them into the
// store in fixed-size batches.
package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/company-registry/internal/db"
	"github.com/jonathan/company-registry/internal/ingestion"
	"github.com/jonathan/company-registry/internal/parsing"
	"github.com/jonathan/company-registry/internal/schemas"
	"github.com/jonathan/company-registry/internal/types"
)

// DefaultBatchSize is the number of extracted rows committed per batch.
const DefaultBatchSize = 1000

// progressInterval is how many source records pass between progress lines.
const progressInterval = 10000

// Profile selects how source records are interpreted.
type Profile string

const (
	// ProfileAuto sniffs each record and picks flat or registry extraction.
	ProfileAuto Profile = "auto"
	// ProfileFlat treats every record as a flat export row.
	ProfileFlat Profile = "flat"
	// ProfileRegistry treats every record as a nested registry document and
	// keeps name histories intact instead of exploding them into rows.
	ProfileRegistry Profile = "registry"
)

// ParseProfile converts a user-supplied profile string into a Profile.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileAuto, ProfileFlat, ProfileRegistry:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("invalid profile %q (want %q, %q or %q)",
			s, ProfileAuto, ProfileFlat, ProfileRegistry)
	}
}

// Options holds configuration for one import run.
type Options struct {
	// BatchSize is rows per committed batch; zero or negative selects
	// DefaultBatchSize.
	BatchSize int
	// Mode selects duplicate handling. A run never mixes modes.
	Mode types.ConflictMode
	// Profile selects record interpretation; empty selects ProfileAuto.
	Profile Profile
	// Destructive drops and recreates the schema before importing.
	Destructive bool
	// CollectMetadata keeps unmapped source fields on the stored rows.
	CollectMetadata bool
	// Strict validates every extracted row against the embedded record
	// schema and counts failures as errored instead of importing them.
	Strict bool
	// Verbose enables per-batch logging.
	Verbose bool
}

// Importer runs bulk imports against a single store.
type Importer struct {
	store db.Store
	opts  Options
}

// New returns an Importer writing to store. Zero option fields are filled
// with the incremental-import defaults.
func New(store db.Store, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Mode == "" {
		opts.Mode = types.ConflictIgnore
	}
	if opts.Profile == "" {
		opts.Profile = ProfileAuto
	}
	return &Importer{store: store, opts: opts}
}

// Run imports every record from path and returns the run summary. A failed
// batch is logged, its rows are counted as errored, and the run continues
// with the next batch. Run returns an error only when the schema cannot be
// prepared, the source cannot be decoded at all, or the context is canceled.
func (i *Importer) Run(ctx context.Context, path string) (*types.ImportStats, error) {
	stats := &types.ImportStats{
		RunID:     uuid.New().String(),
		File:      path,
		Mode:      i.opts.Mode,
		StartedAt: time.Now().UTC(),
	}

	if i.opts.Destructive {
		if err := i.store.RecreateSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to recreate schema: %w", err)
		}
	} else {
		if err := i.store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	stream, err := ingestion.Open(path, ingestion.Options{
		ExplodeNames: i.opts.Profile != ProfileRegistry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer stream.Close()

	extractor := parsing.NewExtractor(parsing.Options{CollectMetadata: i.opts.CollectMetadata})

	log.Printf("[IMPORT] run %s: importing %s (mode=%s, profile=%s, batch=%d)",
		stats.RunID, path, i.opts.Mode, i.opts.Profile, i.opts.BatchSize)

	batch := make([]*types.Company, 0, i.opts.BatchSize)
	seq := 0
	synthesized := 0
	for stream.Next() {
		seq++

		company, err := i.extract(extractor, stream.Record(), seq)
		if err != nil {
			if parsing.IsReject(err) {
				stats.Skipped++
			} else {
				stats.Errored++
				log.Printf("[IMPORT] record %d: %v", seq, err)
			}
			continue
		}
		if i.opts.Strict {
			if err := schemas.ValidateCompanyRecord(company); err != nil {
				stats.Errored++
				log.Printf("[IMPORT] record %d failed validation: %v", seq, err)
				continue
			}
		}
		if company.HasAutoID() {
			synthesized++
		}

		batch = append(batch, company)
		if len(batch) >= i.opts.BatchSize {
			if err := i.flush(ctx, batch, stats); err != nil {
				stats.FinishedAt = time.Now().UTC()
				return stats, err
			}
			batch = batch[:0]
		}

		if seq%progressInterval == 0 {
			log.Printf("[IMPORT] processed %d records (%d imported, %d skipped, %d errored)",
				seq, stats.Imported, stats.Skipped, stats.Errored)
		}
	}
	if len(batch) > 0 {
		if err := i.flush(ctx, batch, stats); err != nil {
			stats.FinishedAt = time.Now().UTC()
			return stats, err
		}
	}

	stats.Malformed = stream.Malformed()
	stats.FinishedAt = time.Now().UTC()

	if err := stream.Err(); err != nil {
		return stats, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if synthesized > 0 {
		log.Printf("[IMPORT] run %s: synthesized %d business ids", stats.RunID, synthesized)
	}
	log.Printf("[IMPORT] run %s finished: %d imported, %d skipped, %d errored, %d malformed in %s",
		stats.RunID, stats.Imported, stats.Skipped, stats.Errored, stats.Malformed,
		stats.Duration().Round(time.Millisecond))

	return stats, nil
}

// flush commits one batch. On failure every row of the batch counts as
// errored and the run moves on, unless the context itself was canceled.
func (i *Importer) flush(ctx context.Context, batch []*types.Company, stats *types.ImportStats) error {
	result, err := i.store.UpsertBatch(ctx, batch, i.opts.Mode)
	if err != nil {
		stats.Errored += len(batch)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[IMPORT] batch of %d rows failed, continuing: %v", len(batch), err)
		return nil
	}

	stats.Imported += result.Applied
	stats.Skipped += result.Ignored
	if i.opts.Verbose {
		log.Printf("[IMPORT] committed batch: %d applied, %d ignored", result.Applied, result.Ignored)
	}
	return nil
}

// extract dispatches one record to the extractor matching the run profile.
func (i *Importer) extract(e *parsing.Extractor, rec map[string]any, seq int) (*types.Company, error) {
	switch i.opts.Profile {
	case ProfileRegistry:
		return e.ExtractRegistry(rec, seq)
	case ProfileFlat:
		return e.ExtractFlat(rec, seq)
	default:
		if parsing.IsRegistryRecord(rec) {
			return e.ExtractRegistry(rec, seq)
		}
		return e.ExtractFlat(rec, seq)
	}
}
