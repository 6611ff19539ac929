package commands

import (
	"fmt"
	"github-retriever/internal/components/configutil"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/scrapers/github"
	"os"
	"time"
	"unicode/utf8"
)

const (
	configEnv         = "GITHUB_RETRIEVER_CONFIG"
	defaultConfigPath = "github-retriever.json5"
)

type SchedulerConfig struct {
	MinDelayMs        int     `json:"min_delay_ms"`
	MaxDelayMs        int     `json:"max_delay_ms"`
	PauseEvery        int     `json:"pause_every"`
	PauseSeconds      int     `json:"pause_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// Config is read from a json5 file, flags of the retrieve command take
// precedence. CheckpointCron adds time based checkpoints, ex. "@every 10m".
type Config struct {
	BaseUrl            string              `json:"base_url"`
	UserAgent          string              `json:"user_agent"`
	TimeoutSeconds     int                 `json:"timeout_seconds"`
	Scheduler          SchedulerConfig     `json:"scheduler"`
	FeatureRetries     int                 `json:"feature_retries"`
	MaxDiscussionPages int                 `json:"max_discussion_pages"`
	CheckpointEvery    int                 `json:"checkpoint_every"`
	CheckpointCron     string              `json:"checkpoint_cron"`
	TimeZone           string              `json:"time_zone"`
	Database           configutil.Database `json:"database"`
	Telemetry          telemetry.Config    `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl:        github.DefaultBaseUrl,
		TimeoutSeconds: 30,
		Scheduler: SchedulerConfig{
			MinDelayMs:   100,
			MaxDelayMs:   1000,
			PauseEvery:   50,
			PauseSeconds: 5,
		},
		FeatureRetries:  github.DefaultRetryPolicy().MaxAttempts,
		CheckpointEvery: 100,
	}
}

// configPath is the --config flag, then $GITHUB_RETRIEVER_CONFIG, then the
// default file in the working directory.
func configPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(configEnv); env != "" {
		return env
	}
	return defaultConfigPath
}

func loadConfig(path string) (Config, error) {
	return configutil.ReadConfigOr(path, defaultConfig())
}

func (c Config) schedulerOptions() github.SchedulerOptions {
	return github.SchedulerOptions{
		MinDelay:          time.Duration(c.Scheduler.MinDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(c.Scheduler.MaxDelayMs) * time.Millisecond,
		PauseEvery:        c.Scheduler.PauseEvery,
		Pause:             time.Duration(c.Scheduler.PauseSeconds) * time.Second,
		RequestsPerSecond: c.Scheduler.RequestsPerSecond,
	}
}

func (c Config) scraperOptions() github.Options {
	return github.Options{
		BaseUrl:            c.BaseUrl,
		UserAgent:          c.UserAgent,
		Timeout:            time.Duration(c.TimeoutSeconds) * time.Second,
		MaxDiscussionPages: c.MaxDiscussionPages,
	}
}

func parseDelimiter(value string) (rune, error) {
	if value == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%q cannot be used as a delimiter", value)
	}
	return r, nil
}
