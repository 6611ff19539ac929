package github

import (
	"context"
	"github-retriever/internal/components/telemetry"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGithub serves fixed pages keyed by path and query (`/o/r/discussions?page=2`)
// and remembers every request it received.
type fakeGithub struct {
	mu       sync.Mutex
	pages    map[string]string
	statuses map[string]int
	requests []string
}

func newFakeGithub() *fakeGithub {
	return &fakeGithub{
		pages:    map[string]string{},
		statuses: map[string]int{},
	}
}

func (f *fakeGithub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	f.mu.Lock()
	f.requests = append(f.requests, key)
	body, ok := f.pages[key]
	status, hasStatus := f.statuses[key]
	f.mu.Unlock()

	if hasStatus {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

func (f *fakeGithub) serve(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[key] = body
}

func (f *fakeGithub) fail(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[key] = status
}

func (f *fakeGithub) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeGithub) count(key string) int {
	n := 0
	for _, r := range f.Requests() {
		if r == key {
			n++
		}
	}
	return n
}

func fixture(t testing.TB, name string) string {
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}

func newTestSession(t testing.TB, srv *httptest.Server, opts Options) (*Session, *telemetry.Recorder) {
	rec := telemetry.NewRecorder()
	opts.BaseUrl = srv.URL
	scraper, err := NewScraper(opts, NewScheduler(SchedulerOptions{}), rec)
	require.NoError(t, err)
	session, err := scraper.NewSession()
	require.NoError(t, err)
	return session, rec
}

func TestFetch(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets", "<html>ok</html>")
	fake.fail("/octo/gone", http.StatusNotFound)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, _ := newTestSession(t, srv, Options{})
	ctx := context.Background()

	res := session.Fetch(ctx, srv.URL+"/octo/widgets")
	require.Equal(t, FetchOk, res.Kind)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "<html>ok</html>", string(res.Body))

	res = session.Fetch(ctx, srv.URL+"/octo/gone")
	require.Equal(t, FetchNotOk, res.Kind)
	require.Equal(t, http.StatusNotFound, res.Status)

	srv.Close()
	res = session.Fetch(ctx, srv.URL+"/octo/widgets")
	require.Equal(t, FetchNetworkFailure, res.Kind)
	require.Error(t, res.Err)
}

type memoryDump struct {
	mu       sync.Mutex
	messages map[string]string
}

func (m *memoryDump) Write(id, contents string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[id] = contents
}

func TestFetchWithHttpDump(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets", "<html>ok</html>")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	dump := &memoryDump{messages: map[string]string{}}
	session, _ := newTestSession(t, srv, Options{HttpDump: dump})

	res := session.Fetch(context.Background(), srv.URL+"/octo/widgets")
	require.Equal(t, FetchOk, res.Kind)
	require.Equal(t, "<html>ok</html>", string(res.Body))

	dump.mu.Lock()
	defer dump.mu.Unlock()
	require.Len(t, dump.messages, 1)
	for _, message := range dump.messages {
		require.Contains(t, message, "<NO BODY AVAILABLE>")
		require.Contains(t, message, "<html>ok</html>")
	}
}

func TestFetchCancelled(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets", "<html>ok</html>")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, _ := newTestSession(t, srv, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := session.Fetch(ctx, srv.URL+"/octo/widgets")
	require.Equal(t, FetchNetworkFailure, res.Kind)
	require.Empty(t, fake.Requests())
}

func TestSessionsShareScheduler(t *testing.T) {
	fake := newFakeGithub()
	fake.serve("/octo/widgets", "<html>ok</html>")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	scheduler := NewScheduler(SchedulerOptions{})
	scraper, err := NewScraper(Options{BaseUrl: srv.URL}, scheduler, telemetry.NewRecorder())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		session, err := scraper.NewSession()
		require.NoError(t, err)
		session.Fetch(context.Background(), srv.URL+"/octo/widgets")
	}
	require.Equal(t, 3, scheduler.Calls())
}

func TestUrls(t *testing.T) {
	scraper, err := NewScraper(Options{}, NewScheduler(SchedulerOptions{}), telemetry.NewRecorder())
	require.NoError(t, err)

	repo := NewRepository("octo/widgets")
	require.Equal(t, "https://github.com/octo/widgets", scraper.RepositoryUrl(repo))
	require.Equal(t, "https://github.com/octo/widgets/discussions?page=2", scraper.DiscussionPageUrl(repo, 2))
}
