// Package extract orchestrates per-file feature extraction: directory
// walk, worker-pool fan-out, and the sniff → dispatch → parse →
// aggregate pipeline for each file.
package extract

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/feature"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/parsers"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/schema"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// Row pairs one file path with its schema-complete feature record.
type Row struct {
	Path   string
	Record *feature.Record
}

// Batch is the result of extracting a set of files.
type Batch struct {
	RunID       string
	Columns     []string
	Rows        []Row
	FilesSeen   int
	FilesFailed int
	Duration    time.Duration
}

// Extractor runs the extraction pipeline. Schema and registry are set
// once at construction and shared read-only across all workers.
type Extractor struct {
	schema   *schema.Schema
	registry *parsers.Registry
	sniffCfg sniff.Config

	workers int
	timeout time.Duration
	log     *logrus.Logger
}

// New creates an Extractor over an immutable schema and registry.
// If workers <= 0, it defaults to runtime.NumCPU().
func New(s *schema.Schema, reg *parsers.Registry, workers int) *Extractor {
	if workers <= 0 {
		workers = s.Global.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Extractor{
		schema:   s,
		registry: reg,
		sniffCfg: sniff.Config{
			EnabledFamilies:     s.EnabledFamilies(),
			FallbackMaxAttempts: s.Global.FallbackMaxAttempts,
		},
		workers: workers,
		log:     logrus.StandardLogger(),
	}
}

// SetTimeout sets an optional per-file deadline. A file that exceeds it
// is reported as failed without stalling sibling workers.
func (e *Extractor) SetTimeout(d time.Duration) {
	e.timeout = d
}

// SetLogger replaces the extractor's logger.
func (e *Extractor) SetLogger(log *logrus.Logger) {
	if log != nil {
		e.log = log
	}
}

// Run extracts features for every qualifying file under root. The path
// can be a directory (walked recursively) or a single file. Per-file
// faults are logged and counted; they never abort the batch.
func (e *Extractor) Run(ctx context.Context, root string) (*Batch, error) {
	targets, err := Discover(root, e.schema.Global.MinSizeBytes)
	if err != nil {
		return nil, err
	}
	return e.RunTargets(ctx, targets)
}

// RunTargets extracts features for a pre-built target list using a
// fixed-size worker pool. Files are independent tasks; the only shared
// state is the result slice behind a mutex.
func (e *Extractor) RunTargets(ctx context.Context, targets []*Target) (*Batch, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.log.WithFields(logrus.Fields{"run_id": runID, "files": len(targets)})
	log.Info("extraction started")

	fileCh := make(chan *Target, len(targets))
	for _, t := range targets {
		fileCh <- t
	}
	close(fileCh)

	var (
		mu     sync.Mutex
		rows   []Row
		failed int
		wg     sync.WaitGroup
	)

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range fileCh {
				if ctx.Err() != nil {
					return
				}
				rec, err := e.file(ctx, target.Path)
				mu.Lock()
				if err != nil {
					failed++
					mu.Unlock()
					log.WithField("path", target.Path).WithError(err).Warn("file skipped")
					continue
				}
				rows = append(rows, Row{Path: target.RelPath, Record: rec})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	batch := &Batch{
		RunID:       runID,
		Columns:     e.schema.Names(),
		Rows:        rows,
		FilesSeen:   len(targets),
		FilesFailed: failed,
		Duration:    time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"records":  len(rows),
		"failed":   failed,
		"duration": batch.Duration,
	}).Info("extraction finished")
	return batch, nil
}

// File runs the pipeline for a single file.
func (e *Extractor) File(ctx context.Context, path string) (*feature.Record, error) {
	return e.file(ctx, path)
}

func (e *Extractor) file(ctx context.Context, path string) (*feature.Record, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()

		type outcome struct {
			rec *feature.Record
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			rec, err := e.extractOne(path)
			done <- outcome{rec, err}
		}()
		select {
		case out := <-done:
			return out.rec, out.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.extractOne(path)
}

// extractOne is the sniff → dispatch → parse → aggregate sequence. Only
// the sample read can fail; parser faults degrade to defaulted features.
func (e *Extractor) extractOne(path string) (*feature.Record, error) {
	sample, err := sniff.CaptureFile(path, e.schema.Global.HeadBytes, e.schema.Global.TailBytes)
	if err != nil {
		return nil, err
	}

	res := sniff.Sniff(sample, e.sniffCfg)
	feats, parseErr := e.registry.Run(res, sample)
	if parseErr != nil {
		e.log.WithFields(logrus.Fields{
			"path":   path,
			"family": res.FormatFamily,
		}).WithError(parseErr).Debug("parser declined sample")
	}
	return feature.Aggregate(e.schema.Defs(), res.CommonValues(), res.FormatFamily, feats), nil
}
