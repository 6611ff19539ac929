package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"github-retriever/internal/components/assert"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/scrapers/github"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	report_csv_write = "csv.write"
	report_csv_row   = "csv.row"
)

// Kinds selects which of the three tables are written.
type Kinds struct {
	Features    bool
	Discussions bool
	Posts       bool
}

// CSVWriter writes the collected repositories as csv files named after the
// input file. Every call to Export replaces the files written by the
// previous one.
type CSVWriter struct {
	dir       string
	base      string
	delimiter rune
	kinds     Kinds
	tel       telemetry.API
}

func NewCSVWriter(dir, inputPath string, delimiter rune, kinds Kinds, tel telemetry.API) *CSVWriter {
	assert.NotEmptyStr(dir)
	assert.NotEmptyStr(inputPath)
	assert.NotNil(tel)

	return &CSVWriter{
		dir:       dir,
		base:      filepath.Base(inputPath),
		delimiter: delimiter,
		kinds:     kinds,
		tel:       telemetry.NewScopedAPI("csv_export", tel),
	}
}

// RepositoriesPath is the input file name inside the output directory.
func (w *CSVWriter) RepositoriesPath() string {
	return filepath.Join(w.dir, w.base)
}

func (w *CSVWriter) DiscussionsPath() string {
	return filepath.Join(w.dir, w.stem()+"_discussions.csv")
}

func (w *CSVWriter) PostsPath() string {
	return filepath.Join(w.dir, w.stem()+"_discussion_posts.csv")
}

func (w *CSVWriter) stem() string {
	return strings.TrimSuffix(w.base, ".csv")
}

// Export writes every enabled table. Nothing is written when `repos` is
// empty. Rows that do not fit the table are reported and skipped.
func (w *CSVWriter) Export(ctx context.Context, repos []github.Repository) error {
	if len(repos) == 0 {
		w.tel.ReportDebug("nothing to export")
		return nil
	}
	err := os.MkdirAll(w.dir, 0755)
	if err != nil {
		w.tel.ReportBroken(report_csv_write, err, w.dir)
		return fmt.Errorf("create output dir: %w", err)
	}

	if w.kinds.Features {
		rows := make([][]string, len(repos))
		for i, repo := range repos {
			rows[i] = RepositoryRow(repo)
		}
		err := w.writeTable(w.RepositoriesPath(), RepositoryColumns, rows)
		if err != nil {
			return err
		}
	}
	if w.kinds.Discussions {
		var rows [][]string
		for _, repo := range repos {
			rows = append(rows, DiscussionRows(repo)...)
		}
		err := w.writeTable(w.DiscussionsPath(), DiscussionColumns, rows)
		if err != nil {
			return err
		}
	}
	if w.kinds.Posts {
		var rows [][]string
		for _, repo := range repos {
			rows = append(rows, PostRows(repo)...)
		}
		err := w.writeTable(w.PostsPath(), PostColumns, rows)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeTable replaces `path` through a temporary file in the same directory.
func (w *CSVWriter) writeTable(path string, columns []string, rows [][]string) error {
	file, err := os.CreateTemp(w.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		w.tel.ReportBroken(report_csv_write, err, path)
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = w.delimiter

	err = writer.Write(columns)
	if err != nil {
		w.tel.ReportBroken(report_csv_write, err, path)
		return err
	}

	written := 0
	for _, row := range rows {
		err := validateRow(columns, row)
		if err != nil {
			w.tel.ReportWarning(report_csv_row, err, path, row)
			continue
		}
		err = writer.Write(row)
		if err != nil {
			w.tel.ReportBroken(report_csv_write, err, path)
			return err
		}
		written++
	}
	writer.Flush()
	err = writer.Error()
	if err != nil {
		w.tel.ReportBroken(report_csv_write, err, path)
		return err
	}

	err = file.Close()
	if err != nil {
		w.tel.ReportBroken(report_csv_write, err, path)
		return err
	}
	err = os.Rename(file.Name(), path)
	if err != nil {
		w.tel.ReportBroken(report_csv_write, err, path)
		return err
	}

	w.tel.ReportDebug("exported rows", path, written)
	w.tel.ReportCount(filepath.Base(path), int64(written))
	return nil
}

func validateRow(columns []string, row []string) error {
	if len(row) != len(columns) {
		return fmt.Errorf("expected %d columns, got %d", len(columns), len(row))
	}
	for i, cell := range row {
		if !utf8.ValidString(cell) {
			return fmt.Errorf("column %s is not valid utf-8", columns[i])
		}
	}
	return nil
}
