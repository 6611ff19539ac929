package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func discussionUrls(repo Repository) []string {
	var urls []string
	for _, d := range repo.Discussions {
		urls = append(urls, d.Url)
	}
	return urls
}

func TestCrawlDiscussions(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets/discussions?page=1", fixture(t, "discussions_page.html"))
	fake.serve("/octo/widgets/discussions?page=2", fixture(t, "discussions_blank.html"))
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, _ := newTestSession(t, srv, Options{})
	repo := NewRepository("octo/widgets")
	pages := session.CrawlDiscussions(context.Background(), &repo, false)

	require.Equal(t, 2, pages)
	diff := cmp.Diff([]string{
		srv.URL + "/octo/widgets/discussions/3",
		srv.URL + "/octo/widgets/discussions/2",
		srv.URL + "/octo/widgets/discussions/1",
	}, discussionUrls(repo))
	if diff != "" {
		t.Fatal(diff)
	}
	for _, d := range repo.Discussions {
		require.Equal(t, "octo/widgets", d.RepoName)
		require.Empty(t, d.Posts)
	}
	require.Equal(t, 0, fake.count("/octo/widgets/discussions?page=3"))
	require.Equal(t, []string{
		"/octo/widgets/discussions?page=1",
		"/octo/widgets/discussions?page=2",
	}, fake.Requests())
}

func TestCrawlDiscussionsEmptyRepository(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets/discussions?page=1", fixture(t, "discussions_blank.html"))
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, _ := newTestSession(t, srv, Options{})
	repo := NewRepository("octo/widgets")
	pages := session.CrawlDiscussions(context.Background(), &repo, true)

	require.Equal(t, 1, pages)
	require.Empty(t, repo.Discussions)
	require.Len(t, fake.Requests(), 1)
}

func TestCrawlDiscussionsFailure(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets/discussions?page=1", fixture(t, "discussions_page.html"))
	fake.fail("/octo/widgets/discussions?page=2", http.StatusBadGateway)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, rec := newTestSession(t, srv, Options{})
	repo := NewRepository("octo/widgets")
	session.CrawlDiscussions(context.Background(), &repo, false)

	require.Len(t, repo.Discussions, 3)
	require.Equal(t, 1, fake.count("/octo/widgets/discussions?page=2"))
	require.Equal(t, 1, rec.Count("warning", report_session_crawl_discussions))

	srv.Close()
	repo = NewRepository("octo/widgets")
	session.CrawlDiscussions(context.Background(), &repo, false)
	require.Empty(t, repo.Discussions)
}

func TestCrawlDiscussionsPageLimit(t *testing.T) {
	fake := newFakeGithub()
	// every page lists the same threads, only the limit stops the crawl
	for _, page := range []string{"1", "2", "3"} {
		fake.serve("/octo/widgets/discussions?page="+page, fixture(t, "discussions_page.html"))
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, rec := newTestSession(t, srv, Options{MaxDiscussionPages: 2})
	repo := NewRepository("octo/widgets")
	pages := session.CrawlDiscussions(context.Background(), &repo, false)

	require.Equal(t, 2, pages)
	require.Len(t, repo.Discussions, 6)
	require.Equal(t, 0, fake.count("/octo/widgets/discussions?page=3"))
	require.Equal(t, 1, rec.Count("warning", report_session_crawl_discussions))
}

func TestCrawlDiscussionsWithPosts(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets/discussions?page=1", fixture(t, "discussions_page.html"))
	fake.serve("/octo/widgets/discussions?page=2", fixture(t, "discussions_blank.html"))
	fake.serve("/octo/widgets/discussions/3", fixture(t, "thread.html"))
	fake.serve("/octo/widgets/discussions/2", fixture(t, "thread.html"))
	fake.serve("/octo/widgets/discussions/1", fixture(t, "thread.html"))
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, _ := newTestSession(t, srv, Options{})
	repo := NewRepository("octo/widgets")
	session.CrawlDiscussions(context.Background(), &repo, true)

	// threads are scraped as they are found, before the next listing page
	require.Equal(t, []string{
		"/octo/widgets/discussions?page=1",
		"/octo/widgets/discussions/3",
		"/octo/widgets/discussions/2",
		"/octo/widgets/discussions/1",
		"/octo/widgets/discussions?page=2",
	}, fake.Requests())
	require.Len(t, repo.Discussions, 3)
	require.Equal(t, 12, repo.PostCount())
	for _, d := range repo.Discussions {
		require.Equal(t, "How do I configure widgets?", d.Title)
	}
}
