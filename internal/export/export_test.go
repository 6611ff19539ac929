package export

import (
	"context"
	"encoding/csv"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/scrapers/github"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readCsv(t testing.TB, path string, delimiter rune) [][]string {
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.Comma = delimiter
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func sampleRepositories() []github.Repository {
	widgets := github.NewRepository("octo/widgets")
	widgets.Features = github.Features{Code: true, Issues: true, Wiki: true}
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
					Content:   "<p>How do I configure widgets?</p>\n<p>Thanks!</p>",
					Reactions: &github.Reactions{Emojis: []string{"👍", "🎉"}, Counts: []int{3, 1}},
				},
				{
					Author:                 "hubot",
					Timestamp:              "2023-01-03T00:00:00Z",
					Content:                "<p>Pass the flag.</p>",
					IsPartOfSelectedAnswer: true,
				},
			},
		},
	}
	empty := github.NewRepository("octo/empty")
	empty.Features = github.Features{Code: true}
	return []github.Repository{widgets, empty}
}

func TestRows(t *testing.T) {
	repos := sampleRepositories()

	require.Equal(t, []string{
		"octo/widgets", "true", "true", "false", "false", "false", "false", "true", "false", "false",
	}, RepositoryRow(repos[0]))

	diff := cmp.Diff([][]string{{
		"octo/widgets",
		"https://github.com/octo/widgets/discussions/3",
		"How do I configure widgets?",
		"3",
		"Answered",
		"octocat",
		"2023-01-02T03:04:05Z",
		"🙏",
		"Q&A",
		"true",
	}}, DiscussionRows(repos[0]))
	if diff != "" {
		t.Fatal(diff)
	}

	placeholder := DiscussionRows(repos[1])
	require.Equal(t, [][]string{{
		"octo/empty", "n/a", "n/a", "n/a", "n/a", "n/a", "n/a", "n/a", "n/a", "n/a",
	}}, placeholder)
	require.Len(t, placeholder[0], len(DiscussionColumns))

	posts := PostRows(repos[0])
	require.Len(t, posts, 2)
	require.Equal(t, "👍:3;🎉:1", posts[0][4])
	require.Equal(t, "false", posts[0][5])
	require.Equal(t, "", posts[1][4])
	require.Equal(t, "true", posts[1][5])
	require.Empty(t, PostRows(repos[1]))
}

func TestDiscussionRowWithoutMetadata(t *testing.T) {
	repo := github.NewRepository("octo/widgets")
	repo.Discussions = []github.Discussion{{
		RepoName: "octo/widgets",
		Url:      "https://github.com/octo/widgets/discussions/9",
	}}
	require.Equal(t, [][]string{{
		"octo/widgets", "https://github.com/octo/widgets/discussions/9", "", "", "", "", "", "", "", "false",
	}}, DiscussionRows(repo))
}

func TestCSVWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rec := telemetry.NewRecorder()
	writer := NewCSVWriter(dir, "/data/repos.csv", ';', Kinds{Features: true, Discussions: true, Posts: true}, rec)

	require.Equal(t, filepath.Join(dir, "repos.csv"), writer.RepositoriesPath())
	require.Equal(t, filepath.Join(dir, "repos_discussions.csv"), writer.DiscussionsPath())
	require.Equal(t, filepath.Join(dir, "repos_discussion_posts.csv"), writer.PostsPath())

	err := writer.Export(context.Background(), sampleRepositories())
	require.NoError(t, err)

	repos := readCsv(t, writer.RepositoriesPath(), ';')
	require.Len(t, repos, 3)
	require.Equal(t, RepositoryColumns, repos[0])

	discussions := readCsv(t, writer.DiscussionsPath(), ';')
	require.Len(t, discussions, 3)
	require.Equal(t, DiscussionColumns, discussions[0])
	require.Equal(t, "n/a", discussions[2][1])

	posts := readCsv(t, writer.PostsPath(), ';')
	require.Len(t, posts, 3)
	require.Equal(t, "<p>How do I configure widgets?</p>\n<p>Thanks!</p>", posts[1][6])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestCSVWriterKinds(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, "repos", ',', Kinds{Discussions: true}, telemetry.NewRecorder())

	require.NoError(t, writer.Export(context.Background(), sampleRepositories()))

	_, err := os.Stat(writer.RepositoriesPath())
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(writer.PostsPath())
	require.True(t, os.IsNotExist(err))
	require.Equal(t, filepath.Join(dir, "repos_discussions.csv"), writer.DiscussionsPath())
	require.Len(t, readCsv(t, writer.DiscussionsPath(), ','), 3)
}

func TestCSVWriterNothingToExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	writer := NewCSVWriter(dir, "repos.csv", ',', Kinds{Features: true}, telemetry.NewRecorder())

	require.NoError(t, writer.Export(context.Background(), nil))
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestCSVWriterSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	rec := telemetry.NewRecorder()
	writer := NewCSVWriter(dir, "repos.csv", ',', Kinds{Posts: true}, rec)

	repos := sampleRepositories()
	repos[0].Discussions[0].Posts[1].Content = "broken \xff"
	require.NoError(t, writer.Export(context.Background(), repos))

	posts := readCsv(t, writer.PostsPath(), ',')
	require.Len(t, posts, 2)
	require.Equal(t, 1, rec.Count("warning", report_csv_row))

	err := writer.writeTable(filepath.Join(dir, "short.csv"), PostColumns, [][]string{{"too", "short"}})
	require.NoError(t, err)
	require.Len(t, readCsv(t, filepath.Join(dir, "short.csv"), ','), 1)
	require.Equal(t, 2, rec.Count("warning", report_csv_row))
}

func TestParseRepositoryNames(t *testing.T) {
	names, err := ParseRepositoryNames(strings.NewReader(
		"\ufeffid,repo_name,stars\n1,octo/widgets,10\n2, octo/gadgets ,3\n",
	), ',')
	require.NoError(t, err)
	require.Equal(t, []string{"octo/widgets", "octo/gadgets"}, names)

	names, err = ParseRepositoryNames(strings.NewReader("repo_name\nocto/widgets\n"), ';')
	require.NoError(t, err)
	require.Equal(t, []string{"octo/widgets"}, names)

	_, err = ParseRepositoryNames(strings.NewReader(""), ',')
	require.ErrorIs(t, err, ErrMissingHeader)

	_, err = ParseRepositoryNames(strings.NewReader("name\nocto/widgets\n"), ',')
	require.ErrorIs(t, err, ErrWrongFormat)

	_, err = ParseRepositoryNames(strings.NewReader("id,repo_name\n1,octo/widgets\n2,\n"), ',')
	require.ErrorIs(t, err, ErrWrongFormat)

	_, err = ParseRepositoryNames(strings.NewReader("id,repo_name\n1\n"), ',')
	require.ErrorIs(t, err, ErrWrongFormat)
}

func TestReadRepositoryNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.csv")
	require.NoError(t, os.WriteFile(path, []byte("repo_name\nocto/widgets\n"), 0644))

	names, err := ReadRepositoryNames(path, ',')
	require.NoError(t, err)
	require.Equal(t, []string{"octo/widgets"}, names)

	_, err = ReadRepositoryNames(filepath.Join(t.TempDir(), "missing.csv"), ',')
	require.Error(t, err)
}
