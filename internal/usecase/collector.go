// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yshimizu/gh-commit-report/internal/domain"
	"github.com/yshimizu/gh-commit-report/internal/gateway"
)

// Collector gathers one month of per-commit statistics for a user across
// every repository of an organization.
type Collector struct {
	fetcher     gateway.Fetcher
	logger      *log.Logger
	concurrency int
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, logger *log.Logger, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		fetcher:     fetcher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// repoResult is the outcome of collecting one repository. Exactly one of
// entries or skipped is meaningful.
type repoResult struct {
	entries []domain.CommitEntry
	skipped *domain.SkippedRepository
}

// CollectMonth enumerates the organization's repositories and collects the
// user's commit statistics inside the window, folding them into a single
// aggregate. Repositories are processed by a bounded worker pool; the fold
// itself runs single-threaded after all workers finish so the aggregate's
// sum invariants hold.
//
// Failure policy: an organization-level auth or not-found error is fatal.
// A repository whose commit listing fails with not-found or an access
// rejection is recorded as skipped and the rest continue. A single
// commit whose stat fetch fails (after the gateway's bounded retries) is
// logged and dropped.
func (c *Collector) CollectMonth(ctx context.Context, org, user string, window domain.MonthWindow) (*domain.MonthlyAggregate, error) {
	c.logger.Printf("Collecting commits by %s in %s for %d-%02d...", user, org, window.Year, window.Month)

	repos, err := c.fetcher.ListRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make([]repoResult, 0, len(repos))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)
	for _, repo := range repos {
		repo := repo
		eg.Go(func() error {
			res, rerr := c.collectRepository(egCtx, org, repo.Name, user, window)
			if rerr != nil {
				return rerr
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var entries []domain.CommitEntry
	var skipped []domain.SkippedRepository
	for _, res := range results {
		if res.skipped != nil {
			skipped = append(skipped, *res.skipped)
			continue
		}
		entries = append(entries, res.entries...)
	}

	agg := Fold(window, entries)
	agg.Skipped = skipped
	c.logger.Printf("Collected %d commits across %d repositories (%d skipped)",
		agg.Commits, len(agg.ByRepository), len(skipped))
	return agg, nil
}

// collectRepository lists and resolves the commits of a single repository.
// Skippable failures are turned into a repoResult instead of an error so
// they never cancel the worker group.
func (c *Collector) collectRepository(ctx context.Context, org, repo, user string, window domain.MonthWindow) (repoResult, error) {
	refs, err := c.fetcher.ListCommits(ctx, org, repo, user, window.Since, window.Until)
	if err != nil {
		if isSkippableRepoError(err) {
			c.logger.Printf("Skipping repository %s: %v", repo, err)
			return repoResult{skipped: &domain.SkippedRepository{Name: repo, Reason: err.Error()}}, nil
		}
		return repoResult{}, err
	}

	entries := make([]domain.CommitEntry, 0, len(refs))
	for _, ref := range refs {
		stat, serr := c.fetcher.FetchCommitStats(ctx, org, repo, ref.SHA)
		if serr != nil {
			if !isSkippableCommitError(serr) || ctx.Err() != nil {
				return repoResult{}, serr
			}
			// One bad commit must not abort the aggregation.
			c.logger.Printf("Skipping commit %s in %s: %v", ref.SHA, repo, serr)
			continue
		}
		entries = append(entries, domain.CommitEntry{Ref: ref, Stat: stat})
	}
	return repoResult{entries: entries}, nil
}

// isSkippableCommitError reports whether a single commit's failed stat
// fetch should drop just that commit. A missing commit or a transport
// failure that outlived the retry budget is local to the commit; a
// rejected credential or an exhausted quota would fail every remaining
// fetch the same way, so those propagate and terminate the run.
func isSkippableCommitError(err error) bool {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var ne *domain.NetworkError
	return errors.As(err, &ne)
}

// isSkippableRepoError reports whether a repository-level listing failure
// should exclude just that repository. Credential-level failures stay
// fatal at the organization scope, but a 403 on a single repository means
// the token cannot see it, which is the same outcome as not-found.
func isSkippableRepoError(err error) bool {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var ae *domain.AuthError
	return errors.As(err, &ae)
}
