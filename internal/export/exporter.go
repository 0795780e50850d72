// Package export writes recorded statements to CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rebeliceyang/tablerest/internal/history"
)

// WriteCSV writes entries as CSV with a header row
func WriteCSV(w io.Writer, entries []history.Entry) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Kind", "Table", "Statement", "Executed", "Duration (ms)", "Rows", "Success", "Error"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Kind,
			e.Table,
			e.Statement,
			e.ExecutedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.DurationMs, 10),
			strconv.FormatInt(e.RowsAffected, 10),
			strconv.FormatBool(e.Success),
			e.ErrorMessage,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes entries as an indented JSON array
func WriteJSON(w io.Writer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to marshal statements to JSON: %w", err)
	}
	return nil
}

// ToFile writes entries to path in format ("csv" or "json")
func ToFile(entries []history.Entry, format, path string) error {
	write, err := writerFor(format)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", format, err)
	}
	if err := write(file, entries); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// To writes entries to w in format ("csv" or "json")
func To(w io.Writer, entries []history.Entry, format string) error {
	write, err := writerFor(format)
	if err != nil {
		return err
	}
	return write(w, entries)
}

func writerFor(format string) (func(io.Writer, []history.Entry) error, error) {
	switch format {
	case "csv":
		return WriteCSV, nil
	case "json":
		return WriteJSON, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
