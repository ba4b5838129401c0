package detector

import (
	"context"
	"errors"
	"fmt"

	"stash-ingest/core/feed"
	"stash-ingest/core/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// VariantResult is the outcome of one detector over a batch.
type VariantResult struct {
	Name string
	// Listings are the matches left after deduplication, in delivery order.
	Listings []Listing
	// Dropped counts matches suppressed by the fingerprint window.
	Dropped int
	// Err is set when the detector could not evaluate the batch.
	Err error
}

// Result holds every variant's outcome in detector order.
type Result struct {
	Variants []VariantResult
}

// Matched returns the total number of listings kept across variants.
func (r *Result) Matched() int {
	n := 0
	for _, v := range r.Variants {
		n += len(v.Listings)
	}
	return n
}

// Pipeline runs the general filter then every detector over the same listings.
// Each variant has its own fingerprint window, so variants never suppress each other.
type Pipeline struct {
	cfg       Config
	detectors []Detector
	windows   []*Window
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewPipeline builds the configured detectors.
func NewPipeline(cfg Config, dedup DedupConfig, logger *zap.Logger, m *metrics.Metrics) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg, logger: logger, metrics: m}
	for _, name := range cfg.Variants {
		d, err := NewDetector(name, cfg)
		if err != nil {
			return nil, err
		}
		p.detectors = append(p.detectors, d)
		p.windows = append(p.windows, NewWindow(dedup.Generations))
	}
	if len(p.detectors) == 0 {
		return nil, errors.New("no detector variants configured")
	}
	return p, nil
}

// Names returns the detector names in evaluation order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.detectors))
	for i, d := range p.detectors {
		names[i] = d.Name()
	}
	return names
}

// Run detects the interesting listings of one batch and rotates the dedup windows.
// A detector that fails yields an empty result; only cancellation fails Run.
func (p *Pipeline) Run(ctx context.Context, stashes []feed.Stash) (*Result, error) {
	listings := GeneralFilter(p.cfg, stashes)
	results := make([]VariantResult, len(p.detectors))

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range p.detectors {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.runOne(d, p.windows[i], listings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("detector pipeline: %w", err)
	}

	for _, w := range p.windows {
		w.Rotate()
	}
	return &Result{Variants: results}, nil
}

func (p *Pipeline) runOne(d Detector, w *Window, listings []Listing) VariantResult {
	res := VariantResult{Name: d.Name()}

	matches, err := d.Match(listings)
	if err != nil {
		res.Err = err
		p.metrics.DetectorErrors.WithLabelValues(res.Name).Inc()
		p.logger.Warn("Detector could not evaluate batch", zap.String("variant", res.Name), zap.Error(err))
		return res
	}

	res.Listings, res.Dropped = w.Filter(matches)
	p.metrics.ListingsMatched.WithLabelValues(res.Name).Add(float64(len(res.Listings)))
	p.metrics.ListingsDeduped.WithLabelValues(res.Name).Add(float64(res.Dropped))
	return res
}
