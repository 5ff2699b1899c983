// Package pipeline orchestrates one run: collect search results per
// keyword, merge, filter, and deliver anything the ledger has not seen,
// oldest first.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"newswatch/internal/collect"
	"newswatch/internal/filter"
	"newswatch/internal/notify"
)

// Stage identifies where a run is (or ended) in its lifecycle.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageCollectingEmpty Stage = "collecting-empty"
	StageCollecting      Stage = "collecting"
	StageFiltering       Stage = "filtering"
	StageDelivering      Stage = "delivering"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// RecordPolicy decides what a failed ledger write after a successful
// send means for the run.
type RecordPolicy string

const (
	// RecordBestEffort logs the failure and keeps going: the reader got
	// the message, so the run prefers availability over a consistent
	// ledger. The article may be re-sent if the write keeps failing.
	RecordBestEffort RecordPolicy = "best-effort"
	// RecordStrict aborts the run when a delivery cannot be recorded.
	RecordStrict RecordPolicy = "strict"
)

// Searcher fetches candidate items for one keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string, display int) ([]collect.Item, error)
}

// FeedSource supplies supplemental items outside the keyword search.
type FeedSource interface {
	ParseAll(ctx context.Context) []collect.Item
}

// Sink delivers one item to the notification channel.
type Sink interface {
	Send(ctx context.Context, item collect.Item, keyword string) error
}

// Ledger is the dedup authority consulted before and updated after
// every delivery.
type Ledger interface {
	IsDelivered(link string) bool
	RecordDelivered(link, title string) error
}

// Options holds the per-run configuration the orchestrator consumes.
type Options struct {
	Keywords        []string
	ExcludeKeywords []string
	Display         int
	Pace            time.Duration // fixed delay between keyword fetches
	RecordPolicy    RecordPolicy
}

// Result is the per-run accounting reported back to the caller.
type Result struct {
	Stage        Stage
	Fetched      int            // items returned by all sources
	FetchErrors  int            // keywords whose fetch failed
	Merged       int            // distinct identities after merge
	Filtered     int            // items surviving the keyword filter
	Delivered    int            // successful sends this run
	Skipped      int            // already in the ledger
	SendFailures int            // sends that failed (retried next run)
	PerKeyword   map[string]int // fetched count per keyword
}

// Pipeline wires the injected collaborators for a single run.
type Pipeline struct {
	searcher Searcher
	feeds    FeedSource
	sink     Sink
	ledger   Ledger
	opts     Options
}

// New creates a pipeline. feeds may be nil when no feeds are configured.
func New(searcher Searcher, feeds FeedSource, sink Sink, ledger Ledger, opts Options) *Pipeline {
	if opts.Display <= 0 {
		opts.Display = collect.DefaultDisplay
	}
	if opts.RecordPolicy == "" {
		opts.RecordPolicy = RecordBestEffort
	}
	return &Pipeline{
		searcher: searcher,
		feeds:    feeds,
		sink:     sink,
		ledger:   ledger,
		opts:     opts,
	}
}

// Run executes one complete run. It never panics past this boundary:
// an unexpected failure ends the run in StageFailed with an error.
// Per-keyword fetch failures and per-item delivery failures are
// isolated and do not abort the run.
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	result = &Result{Stage: StageIdle, PerKeyword: make(map[string]int)}
	defer func() {
		if r := recover(); r != nil {
			result.Stage = StageFailed
			err = fmt.Errorf("pipeline panic: %v", r)
			log.Printf("CRITICAL: run aborted: %v", r)
		}
	}()

	if len(p.opts.Keywords) == 0 && p.feeds == nil {
		// CollectingEmpty: an explicit no-op run, not an error.
		log.Println("No keywords configured, nothing to collect")
		result.Stage = StageDone
		return result, nil
	}

	batch, err := p.collect(ctx, result)
	if err != nil {
		result.Stage = StageFailed
		return result, err
	}
	if len(batch) == 0 {
		log.Println("No items collected")
		result.Stage = StageDone
		return result, nil
	}

	result.Stage = StageFiltering
	filtered := filter.Apply(batch, p.opts.Keywords, p.opts.ExcludeKeywords)
	result.Filtered = len(filtered)
	log.Printf("Filtered %d items down to %d", len(batch), len(filtered))
	if len(filtered) == 0 {
		result.Stage = StageDone
		return result, nil
	}

	if err := p.deliver(ctx, result, deliveryOrder(filtered)); err != nil {
		result.Stage = StageFailed
		return result, err
	}

	result.Stage = StageDone
	log.Printf("Run complete: %d delivered, %d skipped, %d failed", result.Delivered, result.Skipped, result.SendFailures)
	return result, nil
}

// DryRun collects and filters exactly like Run but neither sends nor
// records anything. It returns the items a real run would deliver, in
// delivery order.
func (p *Pipeline) DryRun(ctx context.Context) (pending []collect.Item, result *Result, err error) {
	result = &Result{Stage: StageIdle, PerKeyword: make(map[string]int)}
	defer func() {
		if r := recover(); r != nil {
			result.Stage = StageFailed
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	if len(p.opts.Keywords) == 0 && p.feeds == nil {
		result.Stage = StageDone
		return nil, result, nil
	}

	batch, err := p.collect(ctx, result)
	if err != nil {
		result.Stage = StageFailed
		return nil, result, err
	}

	result.Stage = StageFiltering
	filtered := filter.Apply(batch, p.opts.Keywords, p.opts.ExcludeKeywords)
	result.Filtered = len(filtered)

	for _, item := range deliveryOrder(filtered) {
		if p.ledger.IsDelivered(item.Link) {
			result.Skipped++
			continue
		}
		pending = append(pending, item)
	}

	result.Stage = StageDone
	return pending, result, nil
}

// collect fetches every keyword in configured order with a fixed
// pacing delay between fetches, then appends feed items, then
// collapses duplicate identities. First seen wins, so the earliest
// keyword keeps the attribution.
func (p *Pipeline) collect(ctx context.Context, result *Result) ([]collect.Item, error) {
	result.Stage = StageCollecting

	var all []collect.Item
	for i, keyword := range p.opts.Keywords {
		if i > 0 {
			if err := pace(ctx, p.opts.Pace); err != nil {
				return nil, err
			}
		}

		items, err := p.searcher.Search(ctx, keyword, p.opts.Display)
		if err != nil {
			log.Printf("Fetch failed for keyword %q: %v", keyword, err)
			result.FetchErrors++
			continue
		}
		log.Printf("Fetched %d items for keyword %q", len(items), keyword)
		result.PerKeyword[keyword] = len(items)
		all = append(all, items...)
	}

	if p.feeds != nil {
		all = append(all, p.feeds.ParseAll(ctx)...)
	}
	result.Fetched = len(all)

	seen := make(map[string]struct{}, len(all))
	merged := make([]collect.Item, 0, len(all))
	for _, item := range all {
		if _, ok := seen[item.Link]; ok {
			continue
		}
		seen[item.Link] = struct{}{}
		merged = append(merged, item)
	}
	result.Merged = len(merged)

	return merged, nil
}

// deliver walks the items in delivery order, skipping anything the
// ledger already has, and records each successful send. A failed send
// leaves the item unrecorded so the next run retries it. Under the
// strict record policy a failed ledger write aborts the run.
func (p *Pipeline) deliver(ctx context.Context, result *Result, items []collect.Item) error {
	result.Stage = StageDelivering

	for _, item := range items {
		if p.ledger.IsDelivered(item.Link) {
			result.Skipped++
			continue
		}

		title := notify.CleanTitle(item.Title)
		if err := p.sink.Send(ctx, item, item.Keyword); err != nil {
			log.Printf("Delivery failed for %q: %v", title, err)
			result.SendFailures++
			continue
		}
		result.Delivered++

		if err := p.ledger.RecordDelivered(item.Link, title); err != nil {
			if p.opts.RecordPolicy == RecordStrict {
				return fmt.Errorf("recording %s: %w", item.Link, err)
			}
			log.Printf("Ledger write failed for %s (best-effort, continuing): %v", item.Link, err)
		}
	}

	return nil
}

// deliveryOrder reverses the filtered sequence so older batch
// positions go out first. The search provider returns newest-first, so
// this is a best-effort chronological order without a timestamp sort.
func deliveryOrder(items []collect.Item) []collect.Item {
	reversed := make([]collect.Item, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	return reversed
}

// pace blocks for the fixed inter-fetch delay. Cancelling the context
// aborts the whole run, not just the pause.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
