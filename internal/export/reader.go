package export

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const ratingsMemberName = "ratings.csv"

// ErrNoRatingsFile indicates an export zip without a ratings.csv member.
var ErrNoRatingsFile = errors.New("ratings.csv not found in export")

// ReadRows reads the ratings rows from an export file. The path may point at
// a raw ratings.csv or at the Letterboxd export zip; zips are detected by
// content, not extension, and the ratings.csv member is located inside.
// Each row is returned as a header→value map.
func ReadRows(path string) ([]map[string]string, error) {
	if rows, ok, err := readZip(path); err != nil {
		return nil, err
	} else if ok {
		return rows, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer file.Close()

	return readCSV(file)
}

func readZip(path string) ([]map[string]string, bool, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, false, nil // plain CSV
		}
		return nil, false, fmt.Errorf("open export: %w", err)
	}
	defer archive.Close()

	for _, member := range archive.File {
		if !strings.Contains(member.Name, ratingsMemberName) {
			continue
		}
		reader, err := member.Open()
		if err != nil {
			return nil, true, fmt.Errorf("open %s in export zip: %w", member.Name, err)
		}
		defer reader.Close()

		rows, err := readCSV(reader)
		return rows, true, err
	}

	return nil, true, ErrNoRatingsFile
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read export header: %w", err)
	}

	var rows []map[string]string
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
