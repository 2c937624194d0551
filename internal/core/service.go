package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/collegemap/internal/logging"
	"github.com/dustin/go-humanize"
)

// Paths names the three files a run touches.
type Paths struct {
	Reference string
	Input     string
	Output    string
}

// Publisher copies a finished output file somewhere else.
type Publisher interface {
	Publish(ctx context.Context, path string) (int64, error)
}

// Service runs the load-then-enrich pipeline.
type Service struct {
	paths     Paths
	store     ReferenceStore
	policy    InvalidCodePolicy
	publisher Publisher
}

// RunResult contains the outcome of a complete run.
type RunResult struct {
	Colleges  int // Distinct college ids loaded
	Enrich    EnrichResult
	Published int64 // Rows published, 0 if publishing is off
	Duration  time.Duration
}

// NewService creates a Service. publisher may be nil.
func NewService(paths Paths, store ReferenceStore, policy InvalidCodePolicy, publisher Publisher) *Service {
	return &Service{
		paths:     paths,
		store:     store,
		policy:    policy,
		publisher: publisher,
	}
}

// Run loads the reference table, enriches the cutoffs table, and publishes
// the output if a publisher is configured. Any failure aborts the run.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	var result RunResult
	start := time.Now()
	logger := logging.FromContext(ctx)

	logger.Info("loading college information", "path", s.paths.Reference)
	colleges, err := LoadReference(ctx, s.paths.Reference, s.store)
	if err != nil {
		return result, fmt.Errorf("load reference: %w", err)
	}
	result.Colleges = colleges
	logger.Info(fmt.Sprintf("loaded %s colleges", humanize.Comma(int64(colleges))), "count", colleges)

	logger.Info("processing combined cutoffs", "input", s.paths.Input, "policy", s.policy.String())
	enriched, err := EnrichFile(ctx, s.paths.Input, s.paths.Output, s.store, EnrichOptions{
		ReferenceName: filepath.Base(s.paths.Reference),
		InvalidCodes:  s.policy,
		Logger:        logging.WithFields(ctx, "stage", "enrich", "input", s.paths.Input),
	})
	if err != nil {
		return result, fmt.Errorf("enrich: %w", err)
	}
	result.Enrich = enriched

	if s.publisher != nil {
		n, err := s.publisher.Publish(ctx, s.paths.Output)
		if err != nil {
			return result, fmt.Errorf("publish: %w", err)
		}
		result.Published = n
	}

	result.Duration = time.Since(start)
	logger.Info("complete, output saved to "+s.paths.Output,
		"rows", humanize.Comma(int64(enriched.Rows)),
		"matched", enriched.Matched,
		"unmatched", len(enriched.Unmatched),
		"invalid", len(enriched.Invalid),
		"read", humanize.Bytes(uint64(enriched.BytesRead)),
		"duration", result.Duration.Round(time.Millisecond),
	)

	return result, nil
}
