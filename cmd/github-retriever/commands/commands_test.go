package commands

import (
	"bytes"
	"github-retriever/internal/retriever"
	"github-retriever/internal/scrapers/github"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "github-retriever.json5")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	diff := cmp.Diff(defaultConfig(), cfg)
	if diff != "" {
		t.Fatal(diff)
	}

	err = os.WriteFile(path, []byte(`{
		// slower than the defaults
		scheduler: { min_delay_ms: 500, max_delay_ms: 2000 },
		checkpoint_cron: "@every 10m",
		database: { file: "results.db" },
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "github-retriever.local.json5"), []byte(`{
		max_discussion_pages: 20,
	}`), 0644)
	require.NoError(t, err)

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, github.DefaultBaseUrl, cfg.BaseUrl)
	require.Equal(t, "@every 10m", cfg.CheckpointCron)
	require.Equal(t, "results.db", cfg.Database.File)
	require.Equal(t, 20, cfg.MaxDiscussionPages)
	require.Equal(t, 100, cfg.CheckpointEvery)

	opts := cfg.schedulerOptions()
	require.Equal(t, 500*time.Millisecond, opts.MinDelay)
	require.Equal(t, 2*time.Second, opts.MaxDelay)
	require.Equal(t, 50, opts.PauseEvery)
	require.Equal(t, 5*time.Second, opts.Pause)
}

func TestDefaultConfigMatchesScheduler(t *testing.T) {
	diff := cmp.Diff(github.DefaultSchedulerOptions(), defaultConfig().schedulerOptions())
	if diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, 30*time.Second, defaultConfig().scraperOptions().Timeout)
}

func TestConfigPath(t *testing.T) {
	t.Setenv(configEnv, "")
	require.Equal(t, defaultConfigPath, configPath(""))

	t.Setenv(configEnv, "/etc/github-retriever.json5")
	require.Equal(t, "/etc/github-retriever.json5", configPath(""))
	require.Equal(t, "other.json5", configPath("other.json5"))
}

func TestParseDelimiter(t *testing.T) {
	testCases := []struct {
		value    string
		expected rune
		fails    bool
	}{
		{value: ",", expected: ','},
		{value: ";", expected: ';'},
		{value: `\t`, expected: '\t'},
		{value: "|", expected: '|'},
		{value: "", fails: true},
		{value: ",,", fails: true},
		{value: `"`, fails: true},
	}

	for _, test := range testCases {
		r, err := parseDelimiter(test.value)
		if test.fails {
			require.Error(t, err, test.value)
			continue
		}
		require.NoError(t, err, test.value)
		require.Equal(t, test.expected, r)
	}
}

func TestRenderTables(t *testing.T) {
	repo := github.NewRepository("octo/widgets")
	repo.Features = github.Features{Code: true, Issues: true, Wiki: true}
	repo.Discussions = []github.Discussion{{Posts: []github.Post{{}, {}}}}

	var out bytes.Buffer
	renderRepositories(&out, []github.Repository{repo, github.NewRepository("octo/empty")})
	require.Contains(t, out.String(), "octo/widgets")
	require.Contains(t, out.String(), "code issues wiki")
	require.Contains(t, out.String(), "octo/empty")

	out.Reset()
	renderStats(&out, retriever.Stats{Repositories: 12, Posts: 345}, 90*time.Second)
	require.Contains(t, out.String(), "345")
	require.Contains(t, out.String(), "1m30s")
}
