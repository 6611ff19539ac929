package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const RepoNameColumn = "repo_name"

var (
	ErrMissingHeader = errors.New("missing header in csv file")
	ErrWrongFormat   = errors.New("wrong csv format")
)

// ReadRepositoryNames reads the `repo_name` column of a csv file that has a
// header row. A row without a repository name is an error.
func ReadRepositoryNames(path string, delimiter rune) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseRepositoryNames(file, delimiter)
}

func ParseRepositoryNames(r io.Reader, delimiter rune) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	column := slices.Index(header, RepoNameColumn)
	if column < 0 {
		return nil, fmt.Errorf("%w: no %s column in header %q", ErrWrongFormat, RepoNameColumn, header)
	}

	var names []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWrongFormat, err)
		}
		line, _ := reader.FieldPos(0)
		if column >= len(row) {
			return nil, fmt.Errorf("%w: line %d has no %s", ErrWrongFormat, line, RepoNameColumn)
		}
		name := strings.TrimSpace(row[column])
		if name == "" {
			return nil, fmt.Errorf("%w: line %d has an empty %s", ErrWrongFormat, line, RepoNameColumn)
		}
		names = append(names, name)
	}
	return names, nil
}
