package retriever

import (
	"context"
	"errors"
	"fmt"
	"github-retriever/internal/components/assert"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/scrapers/github"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github-retriever/retriever")

const (
	report_retriever_session    = "retriever.session"
	report_retriever_checkpoint = "retriever.checkpoint"
	report_retriever_run        = "retriever.run"
)

// Exporter persists the state of a run. It is called with everything
// collected so far, so an export replaces the previous one.
type Exporter interface {
	Export(ctx context.Context, repos []github.Repository) error
}

type Options struct {
	Features    bool
	Discussions bool
	// Posts implies Discussions.
	Posts bool
	// CheckpointEvery exports after every n repositories, 0 only exports at
	// the end of the run.
	CheckpointEvery int
	FeatureRetry    github.RetryPolicy
}

type Stats struct {
	Repositories int
	Resolved     int
	GaveUp       int
	Discussions  int
	Posts        int
	Pages        int
	Checkpoints  int
}

// Retriever runs the scraper over a list of repositories one after another.
// The repository being worked on is private to Run, finished repositories
// are committed under a lock so Snapshot and Checkpoint can be called from
// other goroutines at any time.
type Retriever struct {
	names     []string
	scraper   *github.Scraper
	exporters []Exporter
	opts      Options
	tel       telemetry.API

	mu    sync.RWMutex
	repos []github.Repository
	stats Stats

	checkpointMu sync.Mutex
}

func NewRetriever(
	names []string,
	scraper *github.Scraper,
	exporters []Exporter,
	opts Options,
	tel telemetry.API,
) *Retriever {
	assert.NotNil(scraper)
	assert.NotNil(tel)
	assert.NonNegative("checkpoint frequency", opts.CheckpointEvery)

	if opts.Posts {
		opts.Discussions = true
	}
	if opts.FeatureRetry.MaxAttempts == 0 {
		opts.FeatureRetry = github.DefaultRetryPolicy()
	}

	return &Retriever{
		names:     names,
		scraper:   scraper,
		exporters: exporters,
		opts:      opts,
		tel:       telemetry.NewScopedAPI("retriever", tel),
	}
}

// Run processes every repository and exports the result. When ctx is
// cancelled it stops after the current request and still exports what was
// collected up to that point.
func (r *Retriever) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Retriever.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("repositories", len(r.names)))

	total := len(r.names)
	for i, name := range r.names {
		if ctx.Err() != nil {
			r.tel.ReportWarning(report_retriever_run, fmt.Errorf("stopped before %s: %w", name, ctx.Err()), i, total)
			break
		}

		repo, result, pages := r.process(ctx, name)
		r.commit(repo, result, pages)

		done := i + 1
		r.tel.ReportDebug(
			"processed repository",
			repo.FullName,
			fmt.Sprintf("%d/%d (%.2f%%)", done, total, float64(done)/float64(total)*100),
		)
		if r.opts.CheckpointEvery > 0 && done%r.opts.CheckpointEvery == 0 && done < total {
			// a failed intermediate checkpoint is reported and the run goes on
			r.Checkpoint(ctx)
		}
	}

	return r.Checkpoint(context.WithoutCancel(ctx))
}

func (r *Retriever) process(ctx context.Context, name string) (github.Repository, github.RetryResult, int) {
	ctx, span := tracer.Start(ctx, "Retriever.process")
	defer span.End()
	span.SetAttributes(attribute.String("repo", name))

	repo := github.NewRepository(name)
	session, err := r.scraper.NewSession()
	if err != nil {
		r.tel.ReportBroken(report_retriever_session, err, name)
		return repo, github.RetryResult{}, 0
	}

	var result github.RetryResult
	if r.opts.Features {
		result = session.ExtractFeatures(ctx, &repo, r.opts.FeatureRetry)
	}
	pages := 0
	if r.opts.Discussions {
		pages = session.CrawlDiscussions(ctx, &repo, r.opts.Posts)
	}
	return repo, result, pages
}

func (r *Retriever) commit(repo github.Repository, result github.RetryResult, pages int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.repos = append(r.repos, repo)
	r.stats.Repositories++
	if result.Resolved {
		r.stats.Resolved++
	}
	if result.GaveUp {
		r.stats.GaveUp++
	}
	r.stats.Discussions += len(repo.Discussions)
	r.stats.Posts += repo.PostCount()
	r.stats.Pages += pages
}

// Snapshot returns the repositories finished so far, in input order.
func (r *Retriever) Snapshot() []github.Repository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]github.Repository(nil), r.repos...)
}

func (r *Retriever) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Checkpoint hands the current snapshot to every exporter. Concurrent calls
// are serialized. All exporters run even if one fails.
func (r *Retriever) Checkpoint(ctx context.Context) error {
	r.checkpointMu.Lock()
	defer r.checkpointMu.Unlock()

	snapshot := r.Snapshot()
	r.tel.ReportDebug("checkpoint", len(snapshot))

	var errs []error
	for _, exporter := range r.exporters {
		err := exporter.Export(ctx, snapshot)
		if err != nil {
			r.tel.ReportBroken(report_retriever_checkpoint, err)
			errs = append(errs, err)
		}
	}

	r.mu.Lock()
	r.stats.Checkpoints++
	r.mu.Unlock()
	r.tel.ReportCount("checkpoints", 1)

	return errors.Join(errs...)
}
