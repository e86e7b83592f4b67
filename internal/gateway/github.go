// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/yshimizu/gh-commit-report/internal/cache"
	"github.com/yshimizu/gh-commit-report/internal/config"
	"github.com/yshimizu/gh-commit-report/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// ListRepositories returns every repository of the organization,
	// deduplicated, in the API's natural order. An empty organization
	// yields an empty slice.
	ListRepositories(ctx context.Context, org string) ([]domain.Repository, error)
	// ListCommits returns the commits authored by author in the half-open
	// window [since, until), following pagination until exhausted.
	ListCommits(ctx context.Context, org, repo, author string, since, until time.Time) ([]domain.CommitRef, error)
	// FetchCommitStats fetches the addition/deletion counts of one commit.
	// The listing endpoint does not include them.
	FetchCommitStats(ctx context.Context, org, repo, sha string) (domain.CommitStat, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
// Repository enumeration goes through GraphQL; commit listing and the
// per-commit stat fetch only exist on the REST side.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	req           *requester
	logger        *log.Logger

	pageSize     int
	repoCache    *cache.Cache[[]domain.Repository]
	repoCacheTTL time.Duration
}

// orgRepositoriesQuery pages through an organization's repositories.
type orgRepositoriesQuery struct {
	Organization struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name             string
				DefaultBranchRef struct {
					Name string
				}
			}
		} `graphql:"repositories(first: $pageSize, after: $cursor)"`
	} `graphql:"organization(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, cfg config.Config, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	repoCache, err := cache.New[[]domain.Repository](cfg.RepoCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository cache: %w", err)
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		req:           newRequester(cfg.RequestsPerMinute, cfg.MaxRetries, cfg.RetryBackoff, logger),
		logger:        logger,
		pageSize:      cfg.PageSize,
		repoCache:     repoCache,
		repoCacheTTL:  cfg.RepoCacheTTL,
	}, nil
}

func (g *GitHubGateway) ListRepositories(ctx context.Context, org string) ([]domain.Repository, error) {
	cacheKey := "repos:" + org
	if repos, ok := g.repoCache.Get(cacheKey); ok {
		g.logger.Printf("Using cached repository list for %s (%d repositories)", org, len(repos))
		return repos, nil
	}

	g.logger.Printf("Fetching repositories for organization %s using GraphQL API...", org)
	variables := map[string]interface{}{
		"login":    githubv4.String(org),
		"pageSize": githubv4.Int(g.pageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	repos := []domain.Repository{}
	seen := make(map[string]bool)
	for {
		var q orgRepositoriesQuery
		err := g.req.do(ctx, fmt.Sprintf("organization %s", org), func() error {
			return g.graphqlClient.Query(ctx, &q, variables)
		})
		if err != nil {
			return nil, err
		}
		for _, node := range q.Organization.Repositories.Nodes {
			if node.Name == "" || seen[node.Name] {
				continue
			}
			seen[node.Name] = true
			repos = append(repos, domain.Repository{
				Name:          node.Name,
				DefaultBranch: node.DefaultBranchRef.Name,
			})
		}
		if !q.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Organization.Repositories.PageInfo.EndCursor)
		g.logger.Println("  Fetching next page of repositories...")
	}

	g.logger.Printf("Found %d repositories in %s", len(repos), org)
	g.repoCache.Set(cacheKey, repos, g.repoCacheTTL)
	return repos, nil
}

func (g *GitHubGateway) ListCommits(ctx context.Context, org, repo, author string, since, until time.Time) ([]domain.CommitRef, error) {
	opts := &github.CommitsListOptions{
		Author:      author,
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: g.pageSize},
	}
	resource := fmt.Sprintf("commits of %s/%s", org, repo)

	var refs []domain.CommitRef
	for {
		var commits []*github.RepositoryCommit
		var resp *github.Response
		err := g.req.do(ctx, resource, func() error {
			var cerr error
			commits, resp, cerr = g.restClient.Repositories.ListCommits(ctx, org, repo, opts)
			return cerr
		})
		if err != nil {
			return nil, err
		}
		for _, c := range commits {
			if c == nil {
				continue
			}
			authoredAt := c.GetCommit().GetAuthor().GetDate().Time.UTC()
			// The API treats the until parameter inclusively; re-check the
			// half-open window so no boundary commit lands in two months.
			if authoredAt.Before(since) || !authoredAt.Before(until) {
				continue
			}
			login := c.GetAuthor().GetLogin()
			if login == "" {
				login = c.GetCommit().GetAuthor().GetName()
			}
			refs = append(refs, domain.CommitRef{
				SHA:        c.GetSHA(),
				Repository: repo,
				Author:     login,
				AuthoredAt: authoredAt,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Printf("  Fetching next page of commits for %s...", repo)
	}
	return refs, nil
}

func (g *GitHubGateway) FetchCommitStats(ctx context.Context, org, repo, sha string) (domain.CommitStat, error) {
	resource := fmt.Sprintf("commit %s/%s@%s", org, repo, shortSHA(sha))

	var commit *github.RepositoryCommit
	err := g.req.do(ctx, resource, func() error {
		var cerr error
		commit, _, cerr = g.restClient.Repositories.GetCommit(ctx, org, repo, sha, &github.ListOptions{})
		return cerr
	})
	if err != nil {
		return domain.CommitStat{}, err
	}
	stats := commit.GetStats()
	return domain.CommitStat{
		Additions: stats.GetAdditions(),
		Deletions: stats.GetDeletions(),
	}, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
