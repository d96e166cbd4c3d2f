package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/linuxmatters/dropcue/internal/processor"
)

// NotAvailable is written in place of a duration that could not be measured.
const NotAvailable = "N/A"

// ExportRecord is one entry of the JSON export.
type ExportRecord struct {
	File                 string      `json:"file"`
	Duration             any         `json:"duration"` // json.Number or NotAvailable
	DropTimestampSeconds json.Number `json:"drop_timestamp_seconds"`
	Trigger              string      `json:"trigger"`
	Confidence           int         `json:"confidence"` // 0-100
	Details              string      `json:"details"`
}

// DefaultExportName returns the export file name for the given day,
// e.g. voicemail_drops_2025-01-31.json.
func DefaultExportName(now time.Time) string {
	return fmt.Sprintf("voicemail_drops_%s.json", now.Format("2006-01-02"))
}

// fixed3 renders v as a JSON number with exactly three decimals.
func fixed3(v float64) json.Number {
	return json.Number(strconv.FormatFloat(v, 'f', 3, 64))
}

// NewExportRecords converts batch results to export records in input order.
// Files skipped by cancellation are left out.
func NewExportRecords(results []processor.FileResult) []ExportRecord {
	records := make([]ExportRecord, 0, len(results))
	for _, fr := range results {
		if fr.Skipped() {
			continue
		}
		r := fr.Result

		rec := ExportRecord{
			File:                 filepath.Base(fr.Path),
			Duration:             NotAvailable,
			DropTimestampSeconds: fixed3(r.DropTimestamp),
			Trigger:              r.Trigger.String(),
			Confidence:           confidencePercent(r.Confidence),
			Details:              r.Details,
		}
		if r.Trigger != processor.TriggerError && r.Duration > 0 {
			rec.Duration = fixed3(r.Duration)
		}
		records = append(records, rec)
	}
	return records
}

// WriteJSON writes the results as an indented JSON array.
func WriteJSON(w io.Writer, results []processor.FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExportRecords(results)); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// ExportJSON writes the results to path, replacing any existing file.
func ExportJSON(path string, results []processor.FileResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := WriteJSON(f, results); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
