package resultstore

import (
	"context"
	"github-retriever/internal/components/chrono"
	"github-retriever/internal/components/configutil"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/db"
	"github-retriever/internal/scrapers/github"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openStore(t testing.TB, clock chrono.API) Store {
	database, err := configutil.Database{File: ":memory:"}.OpenDB(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, clock, telemetry.NewRecorder())
}

func sampleRepositories() []github.Repository {
	widgets := github.NewRepository("octo/widgets")
	widgets.Features = github.Features{Code: true, Issues: true, Discussions: true}
	widgets.Discussions = []github.Discussion{
		{
			RepoName:           "octo/widgets",
			Url:                "https://github.com/octo/widgets/discussions/3",
			Title:              "How do I configure widgets?",
			Number:             3,
			State:              "Answered",
			Author:             "octocat",
			Timestamp:          "2023-01-02T03:04:05Z",
			Emoji:              "🙏",
			Category:           "Q&A",
			ConvertedFromIssue: true,
			Posts: []github.Post{
				{
					Author:    "octocat",
					Timestamp: "2023-01-02T03:04:05Z",
					Content:   "<p>How?</p>",
					Reactions: &github.Reactions{Emojis: []string{"👍", "🎉"}, Counts: []int{3, 1}},
				},
				{
					Author:                 "hubot",
					Timestamp:              "2023-01-03T00:00:00Z",
					Content:                "<p>Like this.</p>",
					IsPartOfSelectedAnswer: true,
				},
			},
		},
		{
			RepoName: "octo/widgets",
			Url:      "https://github.com/octo/widgets/discussions/1",
		},
	}
	return []github.Repository{
		widgets,
		github.NewRepository("octo/unresolved"),
		// the same name twice is kept as two rows
		github.NewRepository("octo/unresolved"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	instant := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := openStore(t, chrono.FixedImpl{Instant: instant})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		repos, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, repos, 0)

		_, ok, err := store.LatestCheckpoint(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	}

	expected := sampleRepositories()
	require.NoError(t, store.Export(ctx, expected))

	repos, err := store.Load(ctx)
	require.NoError(t, err)
	diff := cmp.Diff(expected, repos)
	if diff != "" {
		t.Fatal(diff)
	}

	checkpoint, ok, err := store.LatestCheckpoint(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Checkpoint{Time: instant, Repositories: 3}, checkpoint)
}

func TestStoreExportReplaces(t *testing.T) {
	store := openStore(t, chrono.FixedImpl{Instant: time.Unix(100, 0).UTC()})
	ctx := context.Background()

	require.NoError(t, store.Export(ctx, sampleRepositories()))

	next := []github.Repository{github.NewRepository("octo/gadgets")}
	next[0].Features.Wiki = true
	require.NoError(t, store.Export(ctx, next))

	repos, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, "octo/gadgets", repos[0].FullName)
	require.True(t, repos[0].Features.Wiki)
	require.Empty(t, repos[0].Discussions)

	// nothing to export leaves the previous state alone
	require.NoError(t, store.Export(ctx, nil))
	repos, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	checkpoint, _, err := store.LatestCheckpoint(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, checkpoint.Repositories)
}
