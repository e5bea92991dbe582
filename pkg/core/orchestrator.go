package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnines/catalog-sync/pkg/catalog"
	"github.com/saturnines/catalog-sync/pkg/config"
	"github.com/saturnines/catalog-sync/pkg/marketplace"
	"github.com/saturnines/catalog-sync/pkg/metrics"
)

// Orchestrator runs one full catalog rebuild: authenticate, clear the table,
// list offers, then enrich and insert each offer.
type Orchestrator struct {
	cfg     *config.Config
	tokens  TokenSource
	connect ConnectFunc
	sink    CatalogSink
	metrics *metrics.Metrics
	logger  *slog.Logger
	runID   string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics sets the metrics sink. Defaults to none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithRunID overrides the generated run id
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// NewOrchestrator wires a run from its collaborators.
func NewOrchestrator(cfg *config.Config, tokens TokenSource, connect ConnectFunc, sink CatalogSink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		tokens:  tokens,
		connect: connect,
		sink:    sink,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	o.logger = o.logger.With("component", "orchestrator", "run_id", o.runID)
	return o
}

// RunID returns the id attached to this run's logs and report.
func (o *Orchestrator) RunID() string { return o.runID }

// Run executes the run. It never panics and never returns an error:
// every outcome, including failure, is described by the Report.
func (o *Orchestrator) Run(ctx context.Context) (report Report) {
	start := time.Now()
	report = Report{
		RunID:       o.runID,
		State:       StateInit,
		SkipReasons: make(map[SkipReason]int),
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("run panicked", "panic", r, "stack", string(debug.Stack()))
			report.fail(fmt.Sprintf("panic: %v", r))
		}
		report.Duration = time.Since(start)
		o.metrics.ObserveRun(string(report.State), report.Duration)
		o.logSummary(report)
	}()

	o.logger.Info("run started")

	token, err := o.tokens.Acquire(ctx)
	if err != nil {
		report.fail(err.Error())
		return report
	}
	o.transition(&report, StateAuthenticated)
	api := o.connect(token)

	deleted, err := o.sink.ReplaceAll(ctx)
	if err != nil {
		if o.cfg.Sync.OnClearFailure != config.ClearFailureContinue {
			report.fail(err.Error())
			return report
		}
		o.logger.Warn("table clear failed, continuing", "error", err)
	}
	report.Deleted = deleted
	o.metrics.AddDeleted(deleted)
	o.transition(&report, StateCleared)

	o.transition(&report, StatePaginating)
	ids, ok := o.collectOfferIDs(ctx, api, &report)
	if !ok {
		return report
	}

	o.transition(&report, StateEnriching)
	resolver := catalog.NewCategoryResolver(api, o.logger)
	panicked := o.process(ctx, api, resolver, ids, &report)

	switch {
	case panicked != "":
		report.fail(panicked)
	case ctx.Err() != nil:
		report.fail(fmt.Sprintf("run cancelled: %v", ctx.Err()))
	default:
		o.transition(&report, StateDone)
	}
	return report
}

func (o *Orchestrator) collectOfferIDs(ctx context.Context, api Marketplace, report *Report) ([]string, bool) {
	fetcher, err := api.NewPageFetcher(ctx, marketplace.OffersQuery{
		UpdatedAtMin: o.cfg.API.UpdatedAtMin,
		PageSize:     o.cfg.API.PageSize,
		MaxPages:     o.cfg.API.MaxPages,
	})
	if err != nil {
		report.fail(err.Error())
		return nil, false
	}

	ids, stats, err := fetcher.FetchAll(ctx)
	report.Found = len(ids)
	report.Filtered = stats.Filtered
	o.metrics.AddOffers("found", len(ids))
	o.metrics.AddOffers("filtered", stats.Filtered)

	if len(ids) == 0 {
		if err != nil {
			report.fail(fmt.Sprintf("no offers: %v", err))
		} else {
			report.fail("no offers")
		}
		return nil, false
	}
	if err != nil {
		o.logger.Warn("offer listing ended early, continuing with partial ids", "found", len(ids), "error", err)
	}
	o.logger.Info("offers listed", "pages", stats.Pages, "found", len(ids), "filtered", stats.Filtered, "truncated", stats.Truncated)
	return ids, true
}

// outcome is one enriched offer travelling from a worker to the writer
type outcome struct {
	offerID string
	row     *catalog.CatalogRow
	reason  SkipReason
	panic   string
}

// process enriches every id and inserts each row in its own transaction.
// Only the calling goroutine touches the sink and the report.
// It returns a non-empty message if a worker panicked.
func (o *Orchestrator) process(ctx context.Context, api Marketplace, resolver *catalog.CategoryResolver, ids []string, report *Report) string {
	workers := o.cfg.Sync.Workers
	if workers <= 1 {
		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}
			o.record(ctx, o.enrich(ctx, api, resolver, id), report)
		}
		return ""
	}

	idCh := make(chan string)
	outCh := make(chan outcome, workers)

	go func() {
		defer close(idCh)
		for _, id := range ids {
			select {
			case idCh <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idCh {
				outCh <- o.safeEnrich(ctx, api, resolver, id)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outCh)
	}()

	var panicked string
	for out := range outCh {
		if out.panic != "" {
			if panicked == "" {
				panicked = out.panic
			}
			continue
		}
		o.record(ctx, out, report)
	}
	return panicked
}

func (o *Orchestrator) safeEnrich(ctx context.Context, api Marketplace, resolver *catalog.CategoryResolver, id string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("worker panicked", "offer_id", id, "panic", r, "stack", string(debug.Stack()))
			out = outcome{offerID: id, panic: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return o.enrich(ctx, api, resolver, id)
}

// enrich turns one offer id into a row, or a skip reason.
func (o *Orchestrator) enrich(ctx context.Context, api Marketplace, resolver *catalog.CategoryResolver, id string) outcome {
	offer, err := api.GetOffer(ctx, id)
	if err != nil {
		o.logger.Warn("offer unavailable", "offer_id", id, "error", err)
		return outcome{offerID: id, reason: SkipOfferUnavailable}
	}

	productID, ok := offer.ProductID.Get()
	if !ok || productID == "" {
		o.logger.Warn("productId missing", "offer_id", id)
		return outcome{offerID: id, reason: SkipProductIDMissing}
	}

	product, err := api.GetProduct(ctx, productID.String())
	if err != nil {
		o.logger.Warn("product unavailable", "offer_id", id, "product_id", productID, "error", err)
		return outcome{offerID: id, reason: SkipProductUnavailable}
	}

	categories := resolver.Resolve(ctx, product.Category.OrElse(""))
	row := catalog.Normalize(offer, product, categories, catalog.Options{CleanText: o.cfg.Sync.CleanText})
	return outcome{offerID: id, row: &row}
}

// record applies one outcome: a skip, or an insert batch of one.
func (o *Orchestrator) record(ctx context.Context, out outcome, report *Report) {
	report.Processed++

	if out.row == nil {
		report.skip(out.reason)
		o.metrics.IncSkipped(string(out.reason))
		return
	}

	inserted, err := o.sink.InsertMany(ctx, []catalog.CatalogRow{*out.row})
	if err != nil {
		o.logger.Warn("insert failed", "offer_id", out.offerID, "error", err)
		report.skip(SkipInsertFailed)
		o.metrics.IncSkipped(string(SkipInsertFailed))
		return
	}
	report.Inserted += inserted
	o.metrics.AddOffers("inserted", inserted)
	o.logger.Debug("row inserted", "offer_id", out.offerID)
}

func (o *Orchestrator) transition(report *Report, next State) {
	o.logger.Debug("state change", "from", report.State, "to", next)
	report.State = next
}

func (o *Orchestrator) logSummary(report Report) {
	attrs := []any{
		"state", report.State,
		"found", report.Found,
		"filtered", report.Filtered,
		"processed", report.Processed,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"deleted", report.Deleted,
		"duration", report.Duration,
	}
	for reason, n := range report.SkipReasons {
		attrs = append(attrs, "skipped_"+string(reason), n)
	}

	if report.Failed() {
		o.logger.Error("run failed", append(attrs, "reason", report.Reason)...)
		return
	}
	o.logger.Info("run finished", attrs...)
}
