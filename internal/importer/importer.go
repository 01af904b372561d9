// Package importer builds triage batches from spreadsheet files. Imported
// cards enter the same accept/edit/delete workflow as AI-generated ones.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/flashdeck/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath     string // Path to the Excel or CSV file
	FrontColumn  string // Column with the card front
	BackColumn   string // Column with the card back
	SourceColumn string // Optional column with the provenance tag
	SheetName    string // Name of the sheet to import
	StartRow     int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn: "A",
		BackColumn:  "B",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Cards          []models.CandidateCard
	Skipped        int
	Errors         []string
}

// ImportCandidates reads candidate cards from an Excel or CSV file. The
// resulting cards are all pending, ready for BatchTriageEngine.LoadBatch.
func ImportCandidates(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(config)
	}

	return importFromExcel(config)
}

// importFromExcel imports candidates from an Excel file
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}

		result.TotalProcessed++
		processRow(row, config, result, i+1)
	}

	return result, nil
}

// importFromCSV imports candidates from a CSV file
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true    // Allow lazy quotes for custom CSV format

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		result.TotalProcessed++
		processRow(row, config, result, rowNum)
	}

	return result, nil
}

// processRow turns one spreadsheet row into a pending candidate card
func processRow(row []string, config ImportConfig, result *ImportResult, rowNum int) {
	var front, back, source string

	if colIdx := columnToIndex(config.FrontColumn); colIdx < len(row) {
		front = strings.TrimSpace(row[colIdx])
	}
	if colIdx := columnToIndex(config.BackColumn); colIdx < len(row) {
		back = strings.TrimSpace(row[colIdx])
	}
	if config.SourceColumn != "" {
		if colIdx := columnToIndex(config.SourceColumn); colIdx < len(row) {
			source = strings.TrimSpace(row[colIdx])
		}
	}

	if front == "" || back == "" {
		result.Skipped++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing front or back", rowNum))
		return
	}

	provenance := models.ProvenanceManual
	if models.Provenance(source).Valid() {
		provenance = models.Provenance(source)
	}

	result.Cards = append(result.Cards, models.NewCandidateCard(front, back, provenance))
}

// columnToIndex converts a column letter ("A", "B", ... "AA") to a 0-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for _, ch := range column {
		if ch < 'A' || ch > 'Z' {
			return 0
		}
		index = index*26 + int(ch-'A') + 1
	}
	if index == 0 {
		return 0
	}
	return index - 1
}
