// Package excel reads task batches from Excel/CSV files and writes result
// summaries back, implementing ports.TaskReader and ports.ResultWriter.
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
	"time"

	"github.com/xuri/excelize/v2"

	"pmcestimator/domain/estimate"
	"pmcestimator/ports"
)

// Column headers recognized in task sheets. Matching is case-insensitive
// and ignores spaces and underscores, so "Most Likely" and "mostLikely"
// both land on the same field.
const (
	colTaskName    = "taskname"
	colOptimistic  = "optimistic"
	colMostLikely  = "mostlikely"
	colPessimistic = "pessimistic"
	colTarget      = "targetvalue"
	colConfidence  = "confidencelevel"
	colOptimize    = "optimize"
	colAdaptive    = "adaptive"
	colProbeLevel  = "probelevel"
	colDirection   = "direction"
)

// TaskReader loads task records from Excel (Sheet1) or CSV files
type TaskReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewTaskReader creates a reader for the given file; the extension decides
// the format
func NewTaskReader(filePath string) *TaskReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &TaskReader{filePath: filePath, fileType: fileType}
}

// ReadTasks reads all task rows from the file
func (r *TaskReader) ReadTasks(ctx context.Context) ([]ports.TaskRecord, error) {
	log.Printf("[TaskReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("task file must have a header row and at least one data row")
	}

	return r.parseRows(rows)
}

// readExcelRows reads raw string rows from Sheet1
func (r *TaskReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[TaskReader] Sheet1 read in %.2fms (%d rows)",
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads raw string rows from a CSV file
func (r *TaskReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// parseRows converts raw string rows into task records. Rows that fail to
// parse abort the whole read: a silently skipped task is worse than an error.
func (r *TaskReader) parseRows(rows [][]string) ([]ports.TaskRecord, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	tasks := make([]ports.TaskRecord, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}

		cells := make(map[string]string, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				cells[headers[j]] = strings.TrimSpace(cell)
			}
		}

		task, err := parseTask(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		tasks = append(tasks, task)
	}

	log.Printf("[TaskReader] Parsed %d tasks", len(tasks))
	return tasks, nil
}

// parseTask builds one record from a header-keyed cell map
func parseTask(cells map[string]string) (ports.TaskRecord, error) {
	var task ports.TaskRecord
	var err error

	task.Name = cells[colTaskName]
	if task.Name == "" {
		return task, fmt.Errorf("missing task name")
	}

	if task.Optimistic, err = requireFloat(cells, colOptimistic); err != nil {
		return task, err
	}
	if task.MostLikely, err = requireFloat(cells, colMostLikely); err != nil {
		return task, err
	}
	if task.Pessimistic, err = requireFloat(cells, colPessimistic); err != nil {
		return task, err
	}

	if raw := cells[colTarget]; raw != "" {
		target, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return task, fmt.Errorf("invalid %s value %q: %w", colTarget, raw, err)
		}
		task.TargetValue = &target
	}

	task.ConfidenceLevel = cells[colConfidence]
	task.Optimize = parseBool(cells[colOptimize])
	task.Adaptive = parseBool(cells[colAdaptive])
	task.Direction = strings.ToLower(cells[colDirection])

	if raw := cells[colProbeLevel]; raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return task, fmt.Errorf("invalid %s value %q: %w", colProbeLevel, raw, err)
		}
		task.ProbeLevel = level
	}

	sliders, present, err := parseSliders(cells)
	if err != nil {
		return task, err
	}
	if present {
		task.SliderValues = &sliders
	}

	return task, nil
}

// parseSliders reads the seven slider columns; a row with none of them set
// gets no slider vector at all
func parseSliders(cells map[string]string) (estimate.SliderVector, bool, error) {
	names := estimate.SliderNames()
	var values [estimate.SliderCount]float64
	present := false

	for i, name := range names {
		raw := cells[normalizeHeader(name)]
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return estimate.SliderVector{}, false, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
		}
		values[i] = v
		present = true
	}

	if !present {
		return estimate.SliderVector{}, false, nil
	}

	// Unset slider columns on a row that sets any of them stay at zero,
	// the neutral setting
	return estimate.FromValues(values), true, nil
}

func requireFloat(cells map[string]string, key string) (float64, error) {
	raw := cells[key]
	if raw == "" {
		return 0, fmt.Errorf("missing %s value", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
