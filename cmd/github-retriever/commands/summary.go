package commands

import (
	"fmt"
	"github-retriever/internal/components/chrono"
	"github-retriever/internal/components/configutil"
	"github-retriever/internal/components/serviceutil"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/db"
	"github-retriever/internal/resultstore"
	"github-retriever/internal/retriever"
	"github-retriever/internal/scrapers/github"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var summaryDb *string

func init() {
	summaryDb = summaryCmd.Flags().String("db", "results.db", "The database written by retrieve --db.")
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary [--db <path/to/results.db>]",
	Short: "Prints the repositories stored in a results database.",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(*summaryDb); err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		database, err := configutil.Database{File: *summaryDb}.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		clock, err := chrono.NewStandardImpl("")
		if err != nil {
			serviceutil.Fatal("failed to load time zone", err)
		}
		store := resultstore.NewStore(database, clock, telemetry.SlogAPI{})

		repos, err := store.Load(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load repositories", err)
		}
		checkpoint, ok, err := store.LatestCheckpoint(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load checkpoint", err)
		}

		renderRepositories(os.Stdout, repos)
		if ok {
			fmt.Printf("Last checkpoint: %s (%d repositories)\n", checkpoint.Time.Format(time.DateTime), checkpoint.Repositories)
		}
	},
}

func featureList(f github.Features) string {
	flags := []struct {
		name string
		on   bool
	}{
		{"code", f.Code},
		{"issues", f.Issues},
		{"pull_requests", f.PullRequests},
		{"discussions", f.Discussions},
		{"actions", f.Actions},
		{"projects", f.Projects},
		{"wiki", f.Wiki},
		{"security", f.Security},
		{"insights", f.Insights},
	}
	var names []string
	for _, flag := range flags {
		if flag.on {
			names = append(names, flag.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, " ")
}

func renderRepositories(w io.Writer, repos []github.Repository) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Repository", "Features", "Discussions", "Posts"})
	for _, repo := range repos {
		t.AppendRow(table.Row{
			repo.FullName,
			featureList(repo.Features),
			len(repo.Discussions),
			repo.PostCount(),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderStats(w io.Writer, stats retriever.Stats, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Repositories", "Resolved", "Gave up", "Discussions", "Posts", "Pages", "Checkpoints", "Time"})
	t.AppendRow(table.Row{
		stats.Repositories,
		stats.Resolved,
		stats.GaveUp,
		stats.Discussions,
		stats.Posts,
		stats.Pages,
		stats.Checkpoints,
		elapsed.Round(time.Second).String(),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
