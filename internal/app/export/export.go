package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tealeg/xlsx"

	"printforge/internal/app/model"
)

// Format names accepted by the export endpoints and the CLI.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Conversions writes the records in the requested format.
func Conversions(records []model.ConversionRecord, format string, w io.Writer) error {
	switch format {
	case FormatCSV:
		return conversionsCSV(records, w)
	case FormatJSON:
		return asJSON(records, w)
	case FormatXLSX:
		return conversionsXLSX(records, w)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// PrintJobs writes the jobs in the requested format.
func PrintJobs(jobs []model.PrintJob, format string, w io.Writer) error {
	switch format {
	case FormatCSV:
		return jobsCSV(jobs, w)
	case FormatJSON:
		return asJSON(jobs, w)
	case FormatXLSX:
		return jobsXLSX(jobs, w)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func conversionsCSV(records []model.ConversionRecord, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"ID", "User", "Status", "Provider", "File Name", "File Size", "Model Path", "Retry Count", "Error", "Created At", "Completed At"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.UserID,
			string(r.Status),
			r.Provider,
			r.FileName,
			strconv.FormatInt(r.FileSize, 10),
			r.ModelPath,
			strconv.Itoa(r.RetryCount),
			r.Error,
			r.CreatedAt.Format(time.RFC3339),
			formatTimePtr(r.CompletedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

func jobsCSV(jobs []model.PrintJob, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"ID", "User", "Conversion ID", "Status", "Material", "Quality", "Estimated Minutes", "Error", "Submitted At", "Completed At"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, j := range jobs {
		row := []string{
			j.ID,
			j.UserID,
			j.ConversionID,
			string(j.Status),
			j.Settings.Material,
			j.Settings.Quality,
			strconv.Itoa(j.EstimatedMinutes),
			j.Error,
			formatTimePtr(j.SubmittedAt),
			formatTimePtr(j.CompletedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

func conversionsXLSX(records []model.ConversionRecord, w io.Writer) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Conversions")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range []string{"ID", "User", "Status", "Provider", "File Name", "Model Path", "Retry Count", "Error", "Created At"} {
		headerRow.AddCell().Value = h
	}
	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().Value = r.ID
		row.AddCell().Value = r.UserID
		row.AddCell().Value = string(r.Status)
		row.AddCell().Value = r.Provider
		row.AddCell().Value = r.FileName
		row.AddCell().Value = r.ModelPath
		row.AddCell().Value = strconv.Itoa(r.RetryCount)
		row.AddCell().Value = r.Error
		row.AddCell().Value = r.CreatedAt.Format(time.RFC3339)
	}
	return file.Write(w)
}

func jobsXLSX(jobs []model.PrintJob, w io.Writer) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Print Jobs")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range []string{"ID", "User", "Conversion ID", "Status", "Material", "Quality", "Estimated Minutes", "Error", "Submitted At"} {
		headerRow.AddCell().Value = h
	}
	for _, j := range jobs {
		row := sheet.AddRow()
		row.AddCell().Value = j.ID
		row.AddCell().Value = j.UserID
		row.AddCell().Value = j.ConversionID
		row.AddCell().Value = string(j.Status)
		row.AddCell().Value = j.Settings.Material
		row.AddCell().Value = j.Settings.Quality
		row.AddCell().Value = strconv.Itoa(j.EstimatedMinutes)
		row.AddCell().Value = j.Error
		row.AddCell().Value = formatTimePtr(j.SubmittedAt)
	}
	return file.Write(w)
}

func asJSON(v interface{}, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
