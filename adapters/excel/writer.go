package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pmcestimator/ports"
)

var resultHeaders = []string{
	"task_name", "error", "original", "adjusted",
	"adjusted_optimized", "adaptive_optimized",
	"calculation_mode", "source", "feedback_message", "chaining_drift",
}

// ResultWriter writes batch result summaries to an Excel Results sheet or a
// CSV file, chosen by the output path's extension
type ResultWriter struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewResultWriter creates a writer for the given output path
func NewResultWriter(filePath string) *ResultWriter {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &ResultWriter{filePath: filePath, fileType: fileType}
}

// WriteResults writes one row per task plus a header row
func (w *ResultWriter) WriteResults(ctx context.Context, results []ports.ResultRecord) error {
	log.Printf("[ResultWriter] Writing %d results to %s", len(results), w.filePath)

	switch w.fileType {
	case "csv":
		return w.writeCSV(results)
	case "xlsx":
		return w.writeExcel(results)
	default:
		return fmt.Errorf("unsupported file type: %s", w.fileType)
	}
}

func (w *ResultWriter) writeExcel(results []ports.ResultRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, header := range resultHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell %d: %w", col, err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}

	for i, rec := range results {
		for col, value := range resultCells(rec) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("result cell (%d,%d): %w", i, col, err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write result row %d: %w", i, err)
			}
		}
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func (w *ResultWriter) writeCSV(results []ports.ResultRecord) error {
	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(resultHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, rec := range results {
		row := make([]string, len(resultHeaders))
		for col, value := range resultCells(rec) {
			switch v := value.(type) {
			case string:
				row[col] = v
			case float64:
				row[col] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				row[col] = fmt.Sprint(v)
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// resultCells orders a record's fields to match resultHeaders
func resultCells(rec ports.ResultRecord) []interface{} {
	return []interface{}{
		rec.Name, rec.Error, rec.Original, rec.Adjusted,
		rec.AdjustedOptimized, rec.AdaptiveOptimized,
		rec.CalculationMode, rec.Source, rec.Feedback, rec.ChainingDrift,
	}
}
