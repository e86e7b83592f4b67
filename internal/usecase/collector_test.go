package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yshimizu/gh-commit-report/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListRepositories(ctx context.Context, org string) ([]domain.Repository, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *mockFetcher) ListCommits(ctx context.Context, org, repo, author string, since, until time.Time) ([]domain.CommitRef, error) {
	args := m.Called(ctx, org, repo, author, since, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CommitRef), args.Error(1)
}

func (m *mockFetcher) FetchCommitStats(ctx context.Context, org, repo, sha string) (domain.CommitStat, error) {
	args := m.Called(ctx, org, repo, sha)
	return args.Get(0).(domain.CommitStat), args.Error(1)
}

func ref(repo, sha string, at time.Time) domain.CommitRef {
	return domain.CommitRef{SHA: sha, Repository: repo, Author: "any-user", AuthoredAt: at}
}

func TestCollector_CollectMonth(t *testing.T) {
	window, err := domain.NewMonthWindow(2025, 7)
	require.NoError(t, err)
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	t.Run("happy path - folds commits from every repository", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "repo-a"}, {Name: "repo-b"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-a", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-a", "sha1", at), ref("repo-a", "sha2", at.Add(time.Hour))}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-b", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-b", "sha3", at)}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "sha1").
			Return(domain.CommitStat{Additions: 10, Deletions: 2}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "sha2").
			Return(domain.CommitStat{Additions: 5, Deletions: 5}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-b", "sha3").
			Return(domain.CommitStat{Additions: 1, Deletions: 0}, nil)

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 2)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.NoError(t, err)
		assert.Equal(t, 16, agg.Additions)
		assert.Equal(t, 7, agg.Deletions)
		assert.Equal(t, 3, agg.Commits)
		assert.Equal(t, 2, agg.ByRepository["repo-a"].Commits)
		assert.Equal(t, 1, agg.ByRepository["repo-b"].Commits)
		assert.Empty(t, agg.Skipped)
		fetcher.AssertExpectations(t)
	})

	t.Run("a repository that fails its listing is skipped, others are unaffected", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "gone"}, {Name: "repo-b"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "gone", "any-user", window.Since, window.Until).
			Return(nil, &domain.NotFoundError{Resource: "commits of any-org/gone", Err: errors.New("404")})
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-b", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-b", "sha1", at)}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-b", "sha1").
			Return(domain.CommitStat{Additions: 3, Deletions: 1}, nil)

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.NoError(t, err)
		assert.Equal(t, 3, agg.Additions)
		assert.NotContains(t, agg.ByRepository, "gone")
		require.Len(t, agg.Skipped, 1)
		assert.Equal(t, "gone", agg.Skipped[0].Name)
		fetcher.AssertExpectations(t)
	})

	t.Run("a repository the token cannot access is skipped", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "private"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "private", "any-user", window.Since, window.Until).
			Return(nil, &domain.AuthError{Resource: "commits of any-org/private", Err: errors.New("403")})

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.NoError(t, err)
		assert.Zero(t, agg.Commits)
		require.Len(t, agg.Skipped, 1)
		assert.Equal(t, "private", agg.Skipped[0].Name)
	})

	t.Run("a single failed stat fetch drops only that commit", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "repo-a"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-a", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-a", "bad", at), ref("repo-a", "good", at.Add(time.Hour))}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "bad").
			Return(domain.CommitStat{}, &domain.NetworkError{Resource: "commit", Attempts: 3, Err: errors.New("timeout")})
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "good").
			Return(domain.CommitStat{Additions: 7, Deletions: 7}, nil)

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.NoError(t, err)
		assert.Equal(t, 1, agg.Commits)
		assert.Equal(t, 7, agg.Additions)
		assert.Empty(t, agg.Skipped)
	})

	t.Run("an exhausted quota on a stat fetch terminates the run", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "repo-a"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-a", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-a", "sha1", at), ref("repo-a", "sha2", at.Add(time.Hour))}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", mock.Anything).
			Return(domain.CommitStat{}, &domain.RateLimitError{Resource: "commit any-org/repo-a@sha1", Reset: at, Err: errors.New("quota exhausted")})

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.Error(t, err, "a still-exhausted quota must not be swallowed as per-commit skips")
		var rle *domain.RateLimitError
		assert.ErrorAs(t, err, &rle)
		assert.Nil(t, agg)
	})

	t.Run("a credential rejected on a stat fetch terminates the run", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "repo-a"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-a", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-a", "sha1", at)}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "sha1").
			Return(domain.CommitStat{}, &domain.AuthError{Resource: "commit any-org/repo-a@sha1", Err: errors.New("token expired")})

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.Error(t, err)
		var ae *domain.AuthError
		assert.ErrorAs(t, err, &ae)
		assert.Nil(t, agg)
	})

	t.Run("a commit deleted between listing and fetch drops only that commit", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{{Name: "repo-a"}}, nil)
		fetcher.On("ListCommits", mock.Anything, "any-org", "repo-a", "any-user", window.Since, window.Until).
			Return([]domain.CommitRef{ref("repo-a", "vanished", at), ref("repo-a", "kept", at.Add(time.Hour))}, nil)
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "vanished").
			Return(domain.CommitStat{}, &domain.NotFoundError{Resource: "commit any-org/repo-a@vanished", Err: errors.New("404")})
		fetcher.On("FetchCommitStats", mock.Anything, "any-org", "repo-a", "kept").
			Return(domain.CommitStat{Additions: 2, Deletions: 1}, nil)

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.NoError(t, err)
		assert.Equal(t, 1, agg.Commits)
		assert.Equal(t, 2, agg.Additions)
	})

	t.Run("organization-level auth failure is fatal", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return(nil, &domain.AuthError{Resource: "organization any-org", Err: errors.New("bad credentials")})

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 1)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.Error(t, err)
		var ae *domain.AuthError
		assert.ErrorAs(t, err, &ae)
		assert.Nil(t, agg)
	})

	t.Run("empty organization yields an empty aggregate, not an error", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListRepositories", mock.Anything, "any-org").
			Return([]domain.Repository{}, nil)

		collector := NewCollector(fetcher, log.New(io.Discard, "", 0), 5)
		agg, err := collector.CollectMonth(context.Background(), "any-org", "any-user", window)

		require.NoError(t, err)
		assert.Zero(t, agg.Commits)
		assert.Empty(t, agg.ByRepository)
	})
}
