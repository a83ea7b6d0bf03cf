// Package excel imports learning items from spreadsheet files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/recallengine/pkg/models"
)

// ItemStore is the storage surface the importer needs.
type ItemStore interface {
	GetItem(ctx context.Context, itemID string) (*models.LearningItem, error)
	SaveItem(ctx context.Context, item *models.LearningItem) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath           string // Path to the Excel or CSV file
	IDColumn           string // Column with the item identifier
	TitleColumn        string // Column with the title
	ContentTypeColumn  string // Column with the content type
	DomainColumn       string // Column with the domain
	DifficultyColumn   string // Column with the difficulty (1-10)
	LoadColumn         string // Column with the cognitive load (1-5)
	PrerequisiteColumn string // Column with comma separated prerequisite ids
	SheetName          string // Name of the sheet to import
	StartRow           int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		IDColumn:           "A",
		TitleColumn:        "B",
		ContentTypeColumn:  "C",
		DomainColumn:       "D",
		DifficultyColumn:   "E",
		LoadColumn:         "F",
		PrerequisiteColumn: "G",
		SheetName:          "Sheet1",
		StartRow:           2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportItems imports learning items from an Excel or CSV file
func ImportItems(ctx context.Context, store ItemStore, config ImportConfig) (*ImportResult, error) {
	// Check the file extension
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(ctx, store, config)
	}

	return importFromExcel(ctx, store, config)
}

// importFromExcel imports items from an Excel file
func importFromExcel(ctx context.Context, store ItemStore, config ImportConfig) (*ImportResult, error) {
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

		if err := processRow(ctx, store, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports items from a CSV file. The column layout follows the
// default config order regardless of the configured column letters.
func importFromCSV(ctx context.Context, store ItemStore, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

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
		if rowNum < config.StartRow {
			continue
		}

		result.TotalProcessed++

		if err := processRow(ctx, store, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// processRow extracts item fields from a single row and upserts the item.
func processRow(ctx context.Context, store ItemStore, row []string, config ImportConfig, result *ImportResult) error {
	var id, title, contentType, domain, difficulty, load, prereqs string

	if colIdx := columnToIndex(config.IDColumn); colIdx >= 0 && colIdx < len(row) {
		id = strings.TrimSpace(row[colIdx])
	}
	if colIdx := columnToIndex(config.TitleColumn); colIdx >= 0 && colIdx < len(row) {
		title = strings.TrimSpace(row[colIdx])
	}
	if colIdx := columnToIndex(config.ContentTypeColumn); colIdx >= 0 && colIdx < len(row) {
		contentType = strings.TrimSpace(row[colIdx])
	}
	if colIdx := columnToIndex(config.DomainColumn); colIdx >= 0 && colIdx < len(row) {
		domain = strings.TrimSpace(row[colIdx])
	}
	if colIdx := columnToIndex(config.DifficultyColumn); colIdx >= 0 && colIdx < len(row) {
		difficulty = strings.TrimSpace(row[colIdx])
	}
	if config.LoadColumn != "" {
		if colIdx := columnToIndex(config.LoadColumn); colIdx >= 0 && colIdx < len(row) {
			load = strings.TrimSpace(row[colIdx])
		}
	}
	if config.PrerequisiteColumn != "" {
		if colIdx := columnToIndex(config.PrerequisiteColumn); colIdx >= 0 && colIdx < len(row) {
			prereqs = strings.TrimSpace(row[colIdx])
		}
	}

	if id == "" {
		result.Skipped++
		return nil
	}
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	now := time.Now()
	item := &models.LearningItem{
		ID:               id,
		Title:            title,
		ContentType:      parseContentType(contentType),
		Domain:           domain,
		Difficulty:       parseIntOrDefault(difficulty, 1, 10, 5),
		CognitiveLoad:    parseIntOrDefault(load, 1, 5, 3),
		Prerequisites:    splitPrerequisites(prereqs),
		ImportanceWeight: 0.5,
		MasteryThreshold: 0.8,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	existing, err := store.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up item: %v", err)
	}
	if existing != nil {
		item.CreatedAt = existing.CreatedAt
	}

	if err := store.SaveItem(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %v", err)
	}

	if existing != nil {
		result.Updated++
	} else {
		result.Created++
	}
	return nil
}

func parseContentType(s string) models.ContentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(models.ContentConcept):
		return models.ContentConcept
	case string(models.ContentProcedure):
		return models.ContentProcedure
	case string(models.ContentPrinciple):
		return models.ContentPrinciple
	case string(models.ContentSkill):
		return models.ContentSkill
	default:
		return models.ContentFact
	}
}

func splitPrerequisites(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	var val int
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return min, err
	}
	if val < min {
		return min, nil
	}
	if val > max {
		return max, nil
	}
	return val, nil
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	if val, err := parseIntInRange(s, min, max); err == nil {
		return val
	}
	return defaultVal
}
