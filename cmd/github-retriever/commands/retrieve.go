package commands

import (
	"context"
	"errors"
	"fmt"
	"github-retriever/internal/components/chrono"
	"github-retriever/internal/components/configutil"
	"github-retriever/internal/components/restyutil"
	"github-retriever/internal/components/serviceutil"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/db"
	"github-retriever/internal/export"
	"github-retriever/internal/resultstore"
	"github-retriever/internal/retriever"
	"github-retriever/internal/scrapers/github"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type retrieveFlags struct {
	input           string
	outputDir       string
	delimiter       string
	features        bool
	discussions     bool
	posts           bool
	backupFrequency int
	db              string
	dumpHttp        string
	config          string
}

var retrieveArgs retrieveFlags

func init() {
	flags := retrieveCmd.Flags()
	flags.StringVarP(&retrieveArgs.input, "input-file", "i", "", "CSV file with a repo_name column.")
	flags.StringVarP(&retrieveArgs.outputDir, "output-dir", "o", "", "Directory the CSV files are written to.")
	flags.StringVarP(&retrieveArgs.delimiter, "delimiter", "d", ",", "Delimiter of the input and output CSV files.")
	flags.BoolVarP(&retrieveArgs.features, "retrieve-features", "f", false, "Retrieve the features of every repository.")
	flags.BoolVarP(&retrieveArgs.discussions, "retrieve-discussions", "r", false, "Retrieve the discussions of every repository.")
	flags.BoolVarP(&retrieveArgs.posts, "retrieve-discussion-posts", "p", false, "Retrieve the posts of every discussion, implies -r.")
	flags.IntVarP(&retrieveArgs.backupFrequency, "backup-frequency", "b", 100, "Number of repositories to process before saving the current state.")
	flags.StringVar(&retrieveArgs.db, "db", "", "Also write results to this sqlite database.")
	flags.StringVar(&retrieveArgs.dumpHttp, "dump-http", "", "Write every http exchange to this directory.")
	flags.StringVar(&retrieveArgs.config, "config", "", fmt.Sprintf("Config file (default $%s or %s).", configEnv, defaultConfigPath))
	retrieveCmd.MarkFlagRequired("input-file")
	retrieveCmd.MarkFlagRequired("output-dir")

	rootCmd.AddCommand(retrieveCmd)
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve -i <repos.csv> -o <output dir> [-f] [-r] [-p]",
	Short: "Scrapes features, discussions and discussion posts of the repositories in a CSV file.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig(configPath(retrieveArgs.config))
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cmd.Flags().Changed("backup-frequency") {
			cfg.CheckpointEvery = retrieveArgs.backupFrequency
		}
		if retrieveArgs.db != "" {
			cfg.Database = configutil.Database{File: retrieveArgs.db}
		}

		kinds := export.Kinds{
			Features:    retrieveArgs.features,
			Discussions: retrieveArgs.discussions || retrieveArgs.posts,
			Posts:       retrieveArgs.posts,
		}
		if !kinds.Features && !kinds.Discussions {
			serviceutil.Fatal("nothing to retrieve", errors.New("pass at least one of -f, -r or -p"))
		}

		delimiter, err := parseDelimiter(retrieveArgs.delimiter)
		if err != nil {
			serviceutil.Fatal("invalid delimiter", err)
		}
		names, err := export.ReadRepositoryNames(retrieveArgs.input, delimiter)
		if err != nil {
			serviceutil.Fatal("failed to read repositories", err)
		}
		slog.Info("repositories have been imported", "count", len(names), "input", retrieveArgs.input)

		clock, err := chrono.NewStandardImpl(cfg.TimeZone)
		if err != nil {
			serviceutil.Fatal("invalid time zone", err)
		}

		otel, err := telemetry.Setup(ctx, "github-retriever", cfg.Telemetry)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer func() {
			err := otel.Shutdown(context.WithoutCancel(ctx))
			if err != nil {
				slog.Warn("failed to shutdown telemetry", "err", err)
			}
		}()
		tel := telemetry.SlogAPI{}
		if otel.Enabled() {
			telemetry.InstrumentPerfStats(ctx, tel)
		}

		r, closeOutputs := setupRetriever(cfg, names, delimiter, kinds, clock, tel)
		defer closeOutputs()

		if cfg.CheckpointCron != "" {
			cron := chrono.NewStandardCron(tel, clock)
			err := cron.Cron(cfg.CheckpointCron, func() {
				r.Checkpoint(ctx)
			})
			if err != nil {
				serviceutil.Fatal("invalid checkpoint cron", err)
			}
			defer func() {
				<-cron.Stop().Done()
			}()
		}

		start := clock.Now()
		err = r.Run(ctx)
		renderStats(os.Stdout, r.Stats(), clock.Now().Sub(start))
		if err != nil {
			serviceutil.Fatal("failed to export results", err)
		}
		if ctx.Err() != nil {
			slog.Warn("run was interrupted, results are partial")
		}
	},
}

func setupRetriever(
	cfg Config,
	names []string,
	delimiter rune,
	kinds export.Kinds,
	clock chrono.API,
	tel telemetry.API,
) (*retriever.Retriever, func()) {
	opts := cfg.scraperOptions()
	if retrieveArgs.dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(retrieveArgs.dumpHttp)
		if err != nil {
			serviceutil.Fatal("failed to create http dump directory", err)
		}
		opts.HttpDump = output
	}

	scraper, err := github.NewScraper(opts, github.NewScheduler(cfg.schedulerOptions()), tel)
	if err != nil {
		serviceutil.Fatal("failed to create scraper", err)
	}

	exporters := []retriever.Exporter{
		export.NewCSVWriter(retrieveArgs.outputDir, retrieveArgs.input, delimiter, kinds, tel),
	}
	closeOutputs := func() {}
	if !cfg.Database.Empty() {
		database, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		closeOutputs = func() { database.Close() }
		exporters = append(exporters, resultstore.NewStore(database, clock, tel))
	}

	r := retriever.NewRetriever(names, scraper, exporters, retriever.Options{
		Features:        kinds.Features,
		Discussions:     kinds.Discussions,
		Posts:           kinds.Posts,
		CheckpointEvery: cfg.CheckpointEvery,
		FeatureRetry:    github.RetryPolicy{MaxAttempts: cfg.FeatureRetries},
	}, tel)
	return r, closeOutputs
}
