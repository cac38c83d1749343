package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `Date,Name,Year,Letterboxd URI,Rating
2024-03-01,The Matrix,1999,https://boxd.it/2a,4.5
2024-03-02,Heat,1995,https://boxd.it/3b,5
`

func TestReadRowsPlainCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Name"] != "The Matrix" || rows[1]["Rating"] != "5" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestReadRowsExportZip(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	member, err := writer.Create("letterboxd-user-export/ratings.csv")
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := member.Write([]byte(sampleCSV)); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	path := filepath.Join(t.TempDir(), "letterboxd-export.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1]["Name"] != "Heat" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestReadRowsZipWithoutRatings(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	member, err := writer.Create("watchlist.csv")
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := member.Write([]byte("Name\n")); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	path := filepath.Join(t.TempDir(), "export.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	if _, err := ReadRows(path); !errors.Is(err, ErrNoRatingsFile) {
		t.Fatalf("expected ErrNoRatingsFile, got %v", err)
	}
}

func TestReadRowsMissingFile(t *testing.T) {
	if _, err := ReadRows(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadRowsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
